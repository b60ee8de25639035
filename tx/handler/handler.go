package handler

import (
	"context"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TxHandler applies one ballot transaction type to an authenticated tx.
// Check keeps the effects of a valid tx in st only when btx carries the
// sender's current nonce, so st can serve as the pending mempool state.
// Process always consumes the sender's nonce; when the operation fails it is
// the only change left in st.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, btx *tx.BallotTx) (res *abcitypes.ExecTxResult, err error)
}

type applyFunc func(st *state.State, btx *tx.BallotTx) (events []abcitypes.Event, err error)

func check(logger cmtlog.Logger, st *state.State, btx *tx.BallotTx, apply applyFunc) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st.Snapshot()
	_, err1 := apply(st, btx)
	if err1 != nil {
		st.RevertToSnapshot()
		logger.Info("CheckTx fail", "type", btx.Type, "sender", btx.Sender, "err", err1)
		res.Code = state.ErrorCode(err1)
		res.Log = err1.Error()
		return
	}
	// a tx ahead of the sender's nonce is validated only
	if btx.Nonce != st.Nonce(btx.Sender) {
		st.RevertToSnapshot()
		return
	}
	st.DiscardSnapshot()
	st.IncNonce(btx.Sender)
	return
}

func process(st *state.State, btx *tx.BallotTx, apply applyFunc) (res *abcitypes.ExecTxResult, err error) {
	st.Snapshot()
	events, err := apply(st, btx)
	if err != nil {
		st.RevertToSnapshot()
		st.IncNonce(btx.Sender)
		return nil, err
	}
	st.DiscardSnapshot()
	st.IncNonce(btx.Sender)
	res = &abcitypes.ExecTxResult{Events: events}
	return
}

// Handlers returns the handler of every ballot transaction type.
func Handlers(logger cmtlog.Logger) map[tx.BallotTxType]TxHandler {
	return map[tx.BallotTxType]TxHandler{
		tx.BallotTxTypeWhitelist: NewWhitelistTxHandler(logger),
		tx.BallotTxTypeAdvance:   NewAdvanceTxHandler(logger),
		tx.BallotTxTypeProposal:  NewProposalTxHandler(logger),
		tx.BallotTxTypeVote:      NewVoteTxHandler(logger),
	}
}
