// Package domain contains entity without logic, just meta-data
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

const MaxUserIDLen = 64

var (
	ErrInvalidUser = errors.New("invalid user")
	ErrUserIDEmpty = errors.New("user id empty")
)

type UserID string

// User is a participant as the client describes it. Display attributes
// (name, avatar, role, ...) are opaque to the server and kept as sent.
type User struct {
	ID      UserID
	IsReady bool
	Attrs   map[string]json.RawMessage
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(u.Attrs)+2)
	for k, v := range u.Attrs {
		out[k] = v
	}
	id, err := json.Marshal(u.ID)
	if err != nil {
		return nil, err
	}
	out["id"] = id
	if u.IsReady {
		out["isReady"] = json.RawMessage("true")
	} else {
		out["isReady"] = json.RawMessage("false")
	}
	return json.Marshal(out)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	if raw == nil {
		return ErrInvalidUser
	}

	var id string
	if v, ok := raw["id"]; ok {
		// Clients send numeric ids too; keep their textual form.
		if err := json.Unmarshal(v, &id); err != nil {
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("%w: id must be a string or number", ErrInvalidUser)
			}
			id = n.String()
		}
	}
	var ready bool
	if v, ok := raw["isReady"]; ok {
		_ = json.Unmarshal(v, &ready)
	}
	delete(raw, "id")
	delete(raw, "isReady")

	u.ID = UserID(id)
	u.IsReady = ready
	u.Attrs = raw
	return nil
}

// Validate checks the fields the server relies on.
func (u User) Validate() error {
	if u.ID == "" {
		return ErrUserIDEmpty
	}
	if len(u.ID) > MaxUserIDLen {
		return fmt.Errorf("%w: id longer than %d", ErrInvalidUser, MaxUserIDLen)
	}
	return nil
}

// Attr decodes a single display attribute, e.g. "name".
func (u User) Attr(key string, v any) bool {
	raw, ok := u.Attrs[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
