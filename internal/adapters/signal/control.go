package signal

import (
	"github.com/dkeye/Poker/internal/app/orch"
	"github.com/dkeye/Poker/internal/core"
)

func (ctl *SignalWSController) handlePing(sid core.SessionID) {
	ctl.Orch.Reply(sid, orch.EventPong, nil)
}
