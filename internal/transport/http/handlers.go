package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkeye/Poker/internal/app/orch"
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxRoomBody = 1 << 20

type CreateRoomResponse struct {
	ID domain.RoomID `json:"id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomHandlers exposes room configs over REST next to the websocket protocol.
type RoomHandlers struct {
	Orch      *orch.Orchestrator
	OpTimeout time.Duration
}

func NewRoomHandlers(o *orch.Orchestrator, opTimeout time.Duration) *RoomHandlers {
	return &RoomHandlers{Orch: o, OpTimeout: opTimeout}
}

func (h *RoomHandlers) Register(g *gin.RouterGroup) {
	g.POST("/rooms", h.handleCreateRoom)
	g.GET("/rooms", h.handleListRooms)
	g.GET("/rooms/:id", h.handleGetRoom)
}

func (h *RoomHandlers) opContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.OpTimeout)
}

func (h *RoomHandlers) handleCreateRoom(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRoomBody)
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable body"})
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()
	room, err := h.Orch.CreateRoom(ctx, body)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, CreateRoomResponse{ID: room.ID})
	case errors.Is(err, domain.ErrInvalidRoom):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateRoom):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Str("module", "transport.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "store unavailable"})
	}
}

func (h *RoomHandlers) handleGetRoom(c *gin.Context) {
	ctx, cancel := h.opContext(c)
	defer cancel()
	cfg, err := h.Orch.GetRoom(ctx, domain.RoomID(c.Param("id")))
	switch {
	case err == nil:
		c.Data(http.StatusOK, "application/json; charset=utf-8", cfg)
	case errors.Is(err, core.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
	default:
		log.Error().Err(err).Str("module", "transport.http").Str("room", c.Param("id")).Msg("get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "store unavailable"})
	}
}

// handleListRooms lists rooms that currently have joined connections.
func (h *RoomHandlers) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.Orch.Rooms.List())
}
