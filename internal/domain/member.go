package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

var ErrInvalidVote = errors.New("invalid vote")

// Vote is the raw value a participant submitted. A nil Vote means
// "not voted", which is different from voting zero.
type Vote json.RawMessage

func (v Vote) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return []byte(v), nil
}

func (v *Vote) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = nil
		return nil
	}
	*v = append((*v)[:0], data...)
	return nil
}

// Number reports the vote as a number. Strings, booleans and objects
// are not numeric even if they look like one.
func (v Vote) Number() (float64, bool) {
	data := bytes.TrimSpace(v)
	// json.Number would also take a quoted "5".
	if len(data) == 0 || (data[0] != '-' && (data[0] < '0' || data[0] > '9')) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Key renders a numeric vote the way it is grouped in results.
func (v Vote) Key() (string, bool) {
	f, ok := v.Number()
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User User `json:"user"`
	Vote Vote `json:"vote,omitempty"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user User) Member {
	user.IsReady = false
	return Member{User: user}
}

// Voted returns a copy carrying the vote.
func (m Member) Voted(v Vote) Member {
	m.Vote = append(Vote(nil), v...)
	m.User.IsReady = true
	return m
}

// Cleared returns a copy without a vote.
func (m Member) Cleared() Member {
	m.Vote = nil
	m.User.IsReady = false
	return m
}
