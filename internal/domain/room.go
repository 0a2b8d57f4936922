package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

const MaxRoomIDLen = 128

var (
	ErrForbiddenRoom = errors.New("forbidden room")
	ErrNoUserFound   = errors.New("no user found")
	ErrDuplicateRoom = errors.New("duplicate room")
	ErrInvalidRoom   = errors.New("invalid room")
)

type RoomID string

// Room is a voting session. Config is the room object exactly as its
// creator sent it (id included); the server never re-encodes it.
type Room struct {
	ID     RoomID
	Config json.RawMessage
}

// ParseRoom validates a raw room object and extracts its id.
func ParseRoom(data []byte) (Room, error) {
	if !json.Valid(data) {
		return Room{}, fmt.Errorf("%w: malformed json", ErrInvalidRoom)
	}
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Room{}, fmt.Errorf("%w: room must be an object", ErrInvalidRoom)
	}
	id, err := parseID(head.ID)
	if err != nil {
		return Room{}, err
	}
	if len(id) > MaxRoomIDLen {
		return Room{}, fmt.Errorf("%w: id longer than %d", ErrInvalidRoom, MaxRoomIDLen)
	}
	cfg := make(json.RawMessage, len(data))
	copy(cfg, data)
	return Room{ID: RoomID(id), Config: cfg}, nil
}

func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: missing id", ErrInvalidRoom)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("%w: empty id", ErrInvalidRoom)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: id must be a string or number", ErrInvalidRoom)
	}
	return n.String(), nil
}
