package orch

import (
	"encoding/json"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

// Outbound event names.
const (
	EventForbiddenRoom = "forbiddenRoom"
	EventNoUserFound   = "noUserFound"
	EventUpdateUsers   = "updateUsers"
	EventGetRoom       = "getRoom"
	EventShowVotes     = "showVotes"
	EventClearVotes    = "clearVotes"
	EventError         = "error"
	EventPong          = "pong"
)

// Envelope is the frame shape in both directions.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// RoomSnapshot is what a joiner receives with getRoom.
type RoomSnapshot struct {
	Room  json.RawMessage `json:"room"`
	Users []domain.User   `json:"users"`
	User  domain.Member   `json:"user"`
}

type ErrorPayload struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// VoteGroups maps a rendered numeric vote to its voters in join order.
type VoteGroups map[string][]domain.User

func Encode(event string, data any) (core.Frame, error) {
	return json.Marshal(Envelope{Type: event, Data: data})
}
