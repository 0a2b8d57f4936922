package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Poker/internal/app/orch"
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/dkeye/Poker/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// Inbound event names.
const (
	EventCreateUser = "createUser"
	EventEnterRoom  = "enterRoom"
	EventCreateRoom = "createRoom"
	EventLeaveRoom  = "leaveRoom"
	EventSendVote   = "sendVote"
	EventClearVote  = "clearVote"
	EventGetVotes   = "getVotes"
	EventResetVotes = "resetVotes"
	EventPing       = "ping"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	var ping <-chan time.Time
	if p := ctl.cfg.WS.PingPeriod; p > 0 {
		ticker := time.NewTicker(p)
		defer ticker.Stop()
		ping = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer ctl.disconnect(ctx, sid)

	if p := ctl.cfg.WS.PingPeriod; p > 0 {
		pongWait := p * 10 / 9
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, sid, data)
		}
	}
}

// disconnect runs once the read side is gone: the socket is closed first so
// nothing more is queued to it, then the rooms it joined are told.
func (ctl *SignalWSController) disconnect(ctx context.Context, sid core.SessionID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
	ctl.Orch.Registry.Cancel(sid)

	opCtx, cancel := ctl.opContext(ctx)
	defer cancel()
	if err := ctl.Orch.OnDisconnect(opCtx, sid); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("disconnect cleanup")
	}
	ctl.Orch.Registry.Unbind(sid)
	ctl.limiter.Forget(sid)
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.SessionID, data []byte) {
	var env inbound
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		metrics.ObserveEvent("invalid", "error")
		return
	}
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", env.Type).Msg("rate limited")
		metrics.ObserveEvent(env.Type, "limited")
		return
	}

	opCtx, cancel := ctl.opContext(ctx)
	defer cancel()

	var err error
	switch env.Type {
	case EventCreateUser:
		err = ctl.handleCreateUser(sid, env.Data)
	case EventEnterRoom:
		err = ctl.handleEnterRoom(opCtx, sid, env.Data)
	case EventCreateRoom:
		err = ctl.handleCreateRoom(opCtx, env.Data)
	case EventLeaveRoom:
		err = ctl.handleLeaveRoom(opCtx, sid, env.Data)
	case EventSendVote:
		err = ctl.handleSendVote(sid, env.Data)
	case EventClearVote:
		err = ctl.handleClearVote(sid, env.Data)
	case EventGetVotes:
		err = ctl.handleGetVotes(env.Data)
	case EventResetVotes:
		err = ctl.handleResetVotes(env.Data)
	case EventPing:
		ctl.handlePing(sid)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		metrics.ObserveEvent("unknown", "error")
		return
	}
	ctl.finish(sid, env.Type, err)
}

// finish records the outcome of an event. Rejections were already reported
// by the orchestrator; anything else gets an error event.
func (ctl *SignalWSController) finish(sid core.SessionID, event string, err error) {
	switch {
	case err == nil:
		metrics.ObserveEvent(event, "ok")
	case errors.Is(err, domain.ErrForbiddenRoom), errors.Is(err, domain.ErrNoUserFound):
		metrics.ObserveEvent(event, "rejected")
	default:
		metrics.ObserveEvent(event, "error")
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", event).Msg("event failed")
		ctl.Orch.Reply(sid, orch.EventError, orch.ErrorPayload{Event: event, Error: err.Error()})
	}
}
