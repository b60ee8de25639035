package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewProposalTxHandler(logger cmtlog.Logger) (h *ProposalTxHandler) {
	logger = logger.With("module", "proposalTx")
	h = &ProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *ProposalTxHandler) apply(st *state.State, btx *tx.BallotTx) (events []abcitypes.Event, err error) {
	ptx, ok := btx.Tx.(*tx.ProposalTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.SubmitProposal(btx.Sender, ptx.Description)
	if err != nil {
		return nil, err
	}
	h.logger.Info("proposal registered", "index", event.ProposalIndex, "proposer", event.Proposer)
	return []abcitypes.Event{types.EncodeEventProposalRegistered(event)}, nil
}

func (h *ProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(h.logger, st, btx, h.apply)
}

func (h *ProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return process(st, btx, h.apply)
}
