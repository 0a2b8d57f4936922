package signal

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

func (ctl *SignalWSController) handleSendVote(sid core.SessionID, data []byte) error {
	var p struct {
		roomPayload
		Vote domain.Vote `json:"vote"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	roomID, err := p.room()
	if err != nil {
		return err
	}
	return ctl.Orch.SendVote(sid, roomID, p.Vote)
}

func (ctl *SignalWSController) handleClearVote(sid core.SessionID, data []byte) error {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	roomID, err := p.room()
	if err != nil {
		return err
	}
	return ctl.Orch.ClearVote(sid, roomID)
}

func (ctl *SignalWSController) handleGetVotes(data []byte) error {
	roomID, err := parseRoomID(data)
	if err != nil {
		return err
	}
	ctl.Orch.GetVotes(roomID)
	return nil
}

func (ctl *SignalWSController) handleResetVotes(data []byte) error {
	roomID, err := parseRoomID(data)
	if err != nil {
		return err
	}
	ctl.Orch.ResetVotes(roomID)
	return nil
}
