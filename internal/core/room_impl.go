package core

import (
	"sort"
	"sync"

	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

type subscriber struct {
	session MemberSession
	seq     uint64
}

// roomImpl is a threadsafe in-memory broadcast group.
// It never closes adapter-owned resources.
type roomImpl struct {
	id domain.RoomID

	op sync.Mutex

	mu     sync.RWMutex
	bySID  map[SessionID]subscriber
	seq    uint64
	closed bool
}

func NewRoomService(id domain.RoomID) RoomService {
	return &roomImpl{
		id:    id,
		bySID: make(map[SessionID]subscriber),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) Has(sid SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySID[sid]
	return ok
}

func (r *roomImpl) AddMember(ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[ms.ID()]; ok {
		return
	}
	r.seq++
	r.bySID[ms.ID()] = subscriber{session: ms, seq: r.seq}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(ms.ID())).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; ok {
		delete(r.bySID, sid)
		log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Msg("member removed")
	}
	return len(r.bySID)
}

func (r *roomImpl) ordered() []subscriber {
	out := make([]subscriber, 0, len(r.bySID))
	for _, s := range r.bySID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (r *roomImpl) Sessions() []MemberSession {
	r.mu.RLock()
	subs := r.ordered()
	r.mu.RUnlock()
	out := make([]MemberSession, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.session)
	}
	return out
}

func (r *roomImpl) Members() []MemberView {
	r.mu.RLock()
	subs := r.ordered()
	r.mu.RUnlock()
	out := make([]MemberView, 0, len(subs))
	for _, s := range subs {
		m, ok := s.session.Memberships().Get(r.id)
		if !ok {
			continue
		}
		out = append(out, MemberView{SID: s.session.ID(), Member: m})
	}
	return out
}

func (r *roomImpl) Broadcast(data Frame) PublishResult {
	r.mu.RLock()
	subs := r.ordered()
	r.mu.RUnlock()
	res := PublishResult{}
	for _, s := range subs {
		if err := s.session.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, s.session)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) Exclusive(fn func()) {
	r.op.Lock()
	defer r.op.Unlock()
	fn()
}

func (r *roomImpl) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *roomImpl) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
