package core

// memberSession implements MemberSession by pairing state + transport.
type memberSession struct {
	sid    SessionID
	state  *Memberships
	signal SignalConnection
}

func NewMemberSession(sid SessionID, signal SignalConnection) MemberSession {
	return &memberSession{sid: sid, state: NewMemberships(), signal: signal}
}

func (m *memberSession) ID() SessionID             { return m.sid }
func (m *memberSession) Memberships() *Memberships { return m.state }
func (m *memberSession) Signal() SignalConnection  { return m.signal }
