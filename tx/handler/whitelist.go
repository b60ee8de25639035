package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type WhitelistTxHandler struct {
	logger cmtlog.Logger
}

func NewWhitelistTxHandler(logger cmtlog.Logger) (h *WhitelistTxHandler) {
	logger = logger.With("module", "whitelistTx")
	h = &WhitelistTxHandler{
		logger: logger,
	}
	return
}

func (h *WhitelistTxHandler) apply(st *state.State, btx *tx.BallotTx) (events []abcitypes.Event, err error) {
	wtx, ok := btx.Tx.(*tx.WhitelistTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	event, err := st.Whitelist(btx.Sender, wtx.PubKey)
	if err != nil {
		return nil, err
	}
	h.logger.Info("voter whitelisted", "voter", event.Voter)
	return []abcitypes.Event{types.EncodeEventVoterRegistered(event)}, nil
}

func (h *WhitelistTxHandler) Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(h.logger, st, btx, h.apply)
}

func (h *WhitelistTxHandler) Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error) {
	return process(st, btx, h.apply)
}
