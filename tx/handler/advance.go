package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type AdvanceTxHandler struct {
	logger cmtlog.Logger
}

func NewAdvanceTxHandler(logger cmtlog.Logger) (h *AdvanceTxHandler) {
	logger = logger.With("module", "advanceTx")
	h = &AdvanceTxHandler{
		logger: logger,
	}
	return
}

func (h *AdvanceTxHandler) apply(st *state.State, btx *tx.BallotTx) (events []abcitypes.Event, err error) {
	if _, ok := btx.Tx.(*tx.AdvanceTx); !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.AdvancePhase(btx.Sender)
	if err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventPhaseChanged(event)}, nil
}

func (h *AdvanceTxHandler) Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(h.logger, st, btx, h.apply)
}

func (h *AdvanceTxHandler) Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return process(st, btx, h.apply)
}
