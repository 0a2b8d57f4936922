package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

// parseRoomID accepts a room id sent as a JSON string or number.
func parseRoomID(raw json.RawMessage) (domain.RoomID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: missing room id", ErrBadPayload)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("%w: empty room id", ErrBadPayload)
		}
		return domain.RoomID(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: room id must be a string or number", ErrBadPayload)
	}
	return domain.RoomID(n.String()), nil
}

type roomPayload struct {
	RoomID json.RawMessage `json:"roomId"`
}

func (p roomPayload) room() (domain.RoomID, error) { return parseRoomID(p.RoomID) }

func (ctl *SignalWSController) handleCreateRoom(ctx context.Context, data []byte) error {
	room, err := ctl.Orch.CreateRoom(ctx, data)
	if err != nil {
		return err
	}
	log.Debug().Str("module", "signal").Str("room", string(room.ID)).Msg("createRoom")
	return nil
}

func (ctl *SignalWSController) handleEnterRoom(ctx context.Context, sid core.SessionID, data []byte) error {
	roomID, err := parseRoomID(data)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(roomID)).Msg("enterRoom")
	return ctl.Orch.EnterRoom(ctx, sid, roomID)
}

// handleLeaveRoom leaves one room; the connection stays open.
func (ctl *SignalWSController) handleLeaveRoom(ctx context.Context, sid core.SessionID, data []byte) error {
	roomID, err := parseRoomID(data)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(roomID)).Msg("leaveRoom")
	return ctl.Orch.LeaveRoom(ctx, sid, roomID)
}
