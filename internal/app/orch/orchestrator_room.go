package orch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

// RegisterUser attaches user to the connection for roomID, replacing any
// earlier registration. Nothing is broadcast.
func (o *Orchestrator) RegisterUser(sid core.SessionID, roomID domain.RoomID, user domain.User) error {
	sess, err := o.session(sid)
	if err != nil {
		return err
	}
	if roomID == "" {
		return fmt.Errorf("%w: empty room id", domain.ErrInvalidRoom)
	}
	if err := user.Validate(); err != nil {
		return err
	}
	sess.Memberships().Set(roomID, domain.NewMember(user))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Str("user", string(user.ID)).Msg("user registered")
	return nil
}

// CreateRoom persists a raw room object under its id.
func (o *Orchestrator) CreateRoom(ctx context.Context, raw []byte) (domain.Room, error) {
	room, err := domain.ParseRoom(raw)
	if err != nil {
		return domain.Room{}, err
	}
	if o.AllowOverwrite {
		err = o.Store.Put(ctx, room.ID, room.Config)
	} else {
		err = o.Store.Create(ctx, room.ID, room.Config)
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room %s: %w", room.ID, err)
	}
	log.Info().Str("module", "orch").Str("room", string(room.ID)).Msg("room created")
	return room, nil
}

// GetRoom returns the stored config of roomID.
func (o *Orchestrator) GetRoom(ctx context.Context, roomID domain.RoomID) (json.RawMessage, error) {
	data, err := o.Store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// EnterRoom subscribes the connection to roomID. The joiner gets getRoom
// after everyone, itself included, got the new membership list.
func (o *Orchestrator) EnterRoom(ctx context.Context, sid core.SessionID, roomID domain.RoomID) error {
	sess, err := o.session(sid)
	if err != nil {
		return err
	}
	return o.withRoom(roomID, func(room core.RoomService) error {
		cfg, err := o.Store.Get(ctx, roomID)
		if errors.Is(err, core.ErrRoomNotFound) {
			o.unicast(sess, EventForbiddenRoom, nil)
			return domain.ErrForbiddenRoom
		}
		if err != nil {
			return fmt.Errorf("enter room %s: %w", roomID, err)
		}

		member, ok := sess.Memberships().Get(roomID)
		if !ok {
			o.unicast(sess, EventNoUserFound, nil)
			return domain.ErrNoUserFound
		}

		room.AddMember(sess)
		users := o.publishPresence(room, nil)
		o.unicast(sess, EventGetRoom, RoomSnapshot{Room: cfg, Users: users, User: member})
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Int("members", len(users)).Msg("entered room")
		return nil
	})
}

// LeaveRoom unsubscribes the connection and drops its state for roomID.
// The rest of the room is told only if the room still exists.
func (o *Orchestrator) LeaveRoom(ctx context.Context, sid core.SessionID, roomID domain.RoomID) error {
	sess, err := o.session(sid)
	if err != nil {
		return err
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		sess.Memberships().Delete(roomID)
		return nil
	}

	var opErr error
	room.Exclusive(func() {
		if room.Closed() {
			sess.Memberships().Delete(roomID)
			return
		}
		remaining := room.RemoveMember(sid)
		sess.Memberships().Delete(roomID)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Int("remaining", remaining).Msg("left room")
		if remaining == 0 {
			opErr = o.collect(ctx, room)
			return
		}

		_, err := o.Store.Get(ctx, roomID)
		if errors.Is(err, core.ErrRoomNotFound) {
			return
		}
		if err != nil {
			opErr = fmt.Errorf("leave room %s: %w", roomID, err)
			return
		}
		o.publishPresence(room, nil)
	})
	return opErr
}

// OnDisconnect removes a closing connection from every room it joined and
// tells each room who is left. Rooms left empty are collected.
func (o *Orchestrator) OnDisconnect(ctx context.Context, sid core.SessionID) error {
	sess, err := o.session(sid)
	if err != nil {
		return err
	}

	var errs []error
	for _, roomID := range sess.Memberships().Rooms() {
		member, ok := sess.Memberships().Get(roomID)
		if !ok {
			continue
		}
		room, ok := o.Rooms.Get(roomID)
		if !ok {
			continue
		}
		room.Exclusive(func() {
			if room.Closed() || !room.Has(sid) {
				return
			}
			remaining := room.RemoveMember(sid)
			if remaining == 0 {
				if err := o.collect(ctx, room); err != nil {
					errs = append(errs, err)
				}
				return
			}

			_, err := o.Store.Get(ctx, roomID)
			if errors.Is(err, core.ErrRoomNotFound) {
				return
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("disconnect %s from %s: %w", sid, roomID, err))
				return
			}
			// Compare by user id so a duplicate identity disappears with it.
			leaving := member.User.ID
			o.publishPresence(room, func(v core.MemberView) bool {
				return v.Member.User.ID == leaving
			})
		})
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
	return errors.Join(errs...)
}
