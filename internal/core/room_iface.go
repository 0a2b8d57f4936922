package core

import (
	"github.com/dkeye/Poker/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberView is a read-only snapshot of one subscriber's state in a room.
type MemberView struct {
	SID    SessionID
	Member domain.Member
}

// RoomService is the broadcast group of a room.
// It owns the subscriber set but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	Has(sid SessionID) bool
	// Members returns subscribers holding a Member for this room, in join order.
	Members() []MemberView
	Sessions() []MemberSession

	AddMember(ms MemberSession)
	// RemoveMember returns the number of subscribers left.
	RemoveMember(sid SessionID) int
	Broadcast(data Frame) PublishResult

	// Exclusive serializes membership changes with the presence
	// recomputation that follows them.
	Exclusive(fn func())
	Closed() bool
	Close()
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"client_count"`
}

type RoomManager interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	// StopRoom closes room and forgets it if it is still the registered group for its id.
	StopRoom(room RoomService)
}
