package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type VoteTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger: logger,
	}
	return
}

func (h *VoteTxHandler) apply(st *state.State, btx *tx.BallotTx) (events []abcitypes.Event, err error) {
	vtx, ok := btx.Tx.(*tx.VoteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.CastVote(btx.Sender, vtx.Proposal)
	if err != nil {
		return nil, err
	}
	return []abcitypes.Event{types.EncodeEventVoteCast(event)}, nil
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(h.logger, st, btx, h.apply)
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return process(st, btx, h.apply)
}
