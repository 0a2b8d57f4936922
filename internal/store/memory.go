package store

import (
	"context"
	"sync"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

// Memory keeps rooms in a process-local map.
type Memory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID][]byte
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[domain.RoomID][]byte)}
}

func (m *Memory) Create(_ context.Context, id domain.RoomID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; ok {
		return domain.ErrDuplicateRoom
	}
	m.rooms[id] = clone(data)
	return nil
}

func (m *Memory) Put(_ context.Context, id domain.RoomID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[id] = clone(data)
	return nil
}

func (m *Memory) Get(_ context.Context, id domain.RoomID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.rooms[id]
	if !ok {
		return nil, core.ErrRoomNotFound
	}
	return clone(data), nil
}

func (m *Memory) Delete(_ context.Context, id domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	return nil
}

func (m *Memory) Close() error { return nil }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
