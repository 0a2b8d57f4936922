package core

type SessionID string

// MemberSession binds a connection's per-room state and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Memberships() *Memberships
	Signal() SignalConnection
}
