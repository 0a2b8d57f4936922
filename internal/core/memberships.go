package core

import (
	"sort"
	"sync"

	"github.com/dkeye/Poker/internal/domain"
)

// Memberships is one connection's room id -> Member table.
// It lives as long as the connection. Other connections read and
// reset it during room-wide operations, hence the lock.
type Memberships struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]domain.Member
}

func NewMemberships() *Memberships {
	return &Memberships{rooms: make(map[domain.RoomID]domain.Member)}
}

func (m *Memberships) Set(room domain.RoomID, member domain.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room] = member
}

func (m *Memberships) Get(room domain.RoomID) (domain.Member, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.rooms[room]
	return member, ok
}

func (m *Memberships) Delete(room domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, room)
}

// Update applies fn to the member of room and stores the result.
// It reports false when the connection holds no member for room.
func (m *Memberships) Update(room domain.RoomID, fn func(domain.Member) domain.Member) (domain.Member, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.rooms[room]
	if !ok {
		return domain.Member{}, false
	}
	member = fn(member)
	m.rooms[room] = member
	return member, true
}

// Rooms lists every room the connection holds state for, sorted.
func (m *Memberships) Rooms() []domain.RoomID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RoomID, 0, len(m.rooms))
	for id := range m.rooms {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Memberships) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
