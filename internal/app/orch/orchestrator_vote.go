package orch

import (
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

// SendVote records vote for the connection's user in roomID.
func (o *Orchestrator) SendVote(sid core.SessionID, roomID domain.RoomID, vote domain.Vote) error {
	sess, err := o.session(sid)
	if err != nil {
		return err
	}
	if len(vote) == 0 {
		return domain.ErrInvalidVote
	}
	if _, ok := sess.Memberships().Update(roomID, func(m domain.Member) domain.Member { return m.Voted(vote) }); !ok {
		o.unicast(sess, EventNoUserFound, nil)
		return domain.ErrNoUserFound
	}
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("vote recorded")
	o.refresh(roomID)
	return nil
}

// ClearVote withdraws the connection's vote in roomID.
func (o *Orchestrator) ClearVote(sid core.SessionID, roomID domain.RoomID) error {
	sess, err := o.session(sid)
	if err != nil {
		return err
	}
	if _, ok := sess.Memberships().Update(roomID, domain.Member.Cleared); !ok {
		o.unicast(sess, EventNoUserFound, nil)
		return domain.ErrNoUserFound
	}
	o.refresh(roomID)
	return nil
}

// Votes groups the numeric votes of roomID's current members.
// Members without a vote or with a non-numeric one are left out.
func Votes(room core.RoomService) VoteGroups {
	groups := VoteGroups{}
	for _, m := range room.Members() {
		key, ok := m.Member.Vote.Key()
		if !ok {
			continue
		}
		groups[key] = append(groups[key], m.Member.User)
	}
	return groups
}

// GetVotes reveals the votes of roomID to the whole room.
func (o *Orchestrator) GetVotes(roomID domain.RoomID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	room.Exclusive(func() {
		if room.Closed() {
			return
		}
		o.broadcast(room, EventShowVotes, Votes(room))
	})
}

// ResetVotes clears every member's vote in roomID and sends the cleared list.
func (o *Orchestrator) ResetVotes(roomID domain.RoomID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	room.Exclusive(func() {
		if room.Closed() {
			return
		}
		users := make([]domain.User, 0, room.MemberCount())
		for _, s := range room.Sessions() {
			m, ok := s.Memberships().Update(roomID, domain.Member.Cleared)
			if !ok {
				continue
			}
			users = append(users, m.User)
		}
		log.Info().Str("module", "orch").Str("room", string(roomID)).Int("members", len(users)).Msg("votes reset")
		o.broadcast(room, EventClearVotes, users)
	})
}
