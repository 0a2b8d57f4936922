package core

import (
	"context"
	"errors"

	"github.com/dkeye/Poker/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomStore durably maps a room id to the room's serialized config.
// Implementations must be safe for concurrent use; each call is atomic per key.
type RoomStore interface {
	// Create stores data only if id is free, otherwise domain.ErrDuplicateRoom.
	Create(ctx context.Context, id domain.RoomID, data []byte) error
	// Put stores data, replacing whatever was there.
	Put(ctx context.Context, id domain.RoomID, data []byte) error
	// Get returns ErrRoomNotFound when id is absent.
	Get(ctx context.Context, id domain.RoomID) ([]byte, error)
	// Delete of an absent id is not an error.
	Delete(ctx context.Context, id domain.RoomID) error
	Close() error
}
