package signal

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

func (ctl *SignalWSController) handleCreateUser(sid core.SessionID, data []byte) error {
	var p struct {
		roomPayload
		User domain.User `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	roomID, err := p.room()
	if err != nil {
		return err
	}
	return ctl.Orch.RegisterUser(sid, roomID, p.User)
}
