package store

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/dkeye/Poker/internal/metrics"
)

type instrumented struct {
	next    core.RoomStore
	backend string
}

// Instrument records every call on next in the store metrics.
func Instrument(next core.RoomStore, backend string) core.RoomStore {
	return &instrumented{next: next, backend: backend}
}

// Lookup misses and duplicates are answers, not failures.
func outcome(err error) error {
	if errors.Is(err, core.ErrRoomNotFound) || errors.Is(err, domain.ErrDuplicateRoom) {
		return nil
	}
	return err
}

func (s *instrumented) Create(ctx context.Context, id domain.RoomID, data []byte) error {
	start := time.Now()
	err := s.next.Create(ctx, id, data)
	metrics.ObserveStoreOp(s.backend, "create", start, outcome(err))
	return err
}

func (s *instrumented) Put(ctx context.Context, id domain.RoomID, data []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, id, data)
	metrics.ObserveStoreOp(s.backend, "put", start, err)
	return err
}

func (s *instrumented) Get(ctx context.Context, id domain.RoomID) ([]byte, error) {
	start := time.Now()
	data, err := s.next.Get(ctx, id)
	metrics.ObserveStoreOp(s.backend, "get", start, outcome(err))
	return data, err
}

func (s *instrumented) Delete(ctx context.Context, id domain.RoomID) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	metrics.ObserveStoreOp(s.backend, "delete", start, err)
	return err
}

func (s *instrumented) Close() error { return s.next.Close() }
