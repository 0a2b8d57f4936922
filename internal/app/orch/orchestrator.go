// Package orch runs the room session protocol: it keeps each connection's
// per-room state consistent with what the room's broadcast group sees,
// and persists room configs through a core.RoomStore.
package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/dkeye/Poker/internal/metrics"
	"github.com/rs/zerolog/log"
)

var ErrUnknownSession = errors.New("unknown session")

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Store    core.RoomStore
	Policy   app.Policy

	// GCEmptyRooms deletes a room from the store once its last member is gone.
	GCEmptyRooms bool
	// AllowOverwrite lets createRoom replace an existing room config.
	AllowOverwrite bool
}

func (o *Orchestrator) session(sid core.SessionID) (core.MemberSession, error) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sid)
	}
	return sess, nil
}

// Reply sends an event to a single connection.
func (o *Orchestrator) Reply(sid core.SessionID, event string, data any) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	o.unicast(sess, event, data)
}

func (o *Orchestrator) unicast(sess core.MemberSession, event string, data any) {
	frame, err := Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return
	}
	if err := sess.Signal().TrySend(frame); err != nil {
		metrics.ObserveDelivery(event, 0, 1)
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sess.ID())).Str("event", event).Msg("unicast dropped")
		return
	}
	metrics.ObserveDelivery(event, 1, 0)
}

func (o *Orchestrator) broadcast(room core.RoomService, event string, data any) {
	frame, err := Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return
	}
	res := room.Broadcast(frame)
	metrics.ObserveDelivery(event, res.SendTo, len(res.Dropped))
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("room", string(room.ID())).Str("sid", string(slow.ID())).Msg("kicking slow member")
			o.Registry.Cancel(slow.ID())
		case app.NoAction:
		}
	}
}

// presence lists the users of the room's current subscribers in join order,
// skipping those matched by exclude.
func presence(room core.RoomService, exclude func(core.MemberView) bool) []domain.User {
	members := room.Members()
	users := make([]domain.User, 0, len(members))
	for _, m := range members {
		if exclude != nil && exclude(m) {
			continue
		}
		users = append(users, m.Member.User)
	}
	return users
}

// publishPresence recomputes the membership list and sends updateUsers to the room.
// Callers hold room.Exclusive.
func (o *Orchestrator) publishPresence(room core.RoomService, exclude func(core.MemberView) bool) []domain.User {
	users := presence(room, exclude)
	o.broadcast(room, EventUpdateUsers, users)
	return users
}

// refresh republishes presence of roomID if anyone is subscribed to it.
func (o *Orchestrator) refresh(roomID domain.RoomID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	room.Exclusive(func() {
		if room.Closed() {
			return
		}
		o.publishPresence(room, nil)
	})
}

// withRoom runs fn on the live broadcast group of roomID, creating it if needed.
// A group stopped while we waited for it is replaced by a fresh one.
func (o *Orchestrator) withRoom(roomID domain.RoomID, fn func(room core.RoomService) error) error {
	for {
		room := o.Rooms.GetOrCreate(roomID)
		var (
			err   error
			stale bool
		)
		room.Exclusive(func() {
			if room.Closed() {
				stale = true
				return
			}
			err = fn(room)
			if room.MemberCount() == 0 {
				o.Rooms.StopRoom(room)
			}
		})
		if !stale {
			return err
		}
	}
}

// collect drops an empty room: its group always, its config if GC is on.
// Callers hold room.Exclusive.
func (o *Orchestrator) collect(ctx context.Context, room core.RoomService) error {
	var err error
	if o.GCEmptyRooms {
		if err = o.Store.Delete(ctx, room.ID()); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("room", string(room.ID())).Msg("delete empty room")
		} else {
			log.Info().Str("module", "orch").Str("room", string(room.ID())).Msg("empty room deleted")
		}
	}
	o.Rooms.StopRoom(room)
	return err
}
