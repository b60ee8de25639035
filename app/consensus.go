package app

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var ErrNoPendingState = errors.New("commit without finalized block")

// parseTx decodes txDat and authenticates it against st.
func (app *BallotApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.BallotTx, err error) {
	btx, err = tx.UnmarshalBallotTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

// checkState returns the pending state CheckTx validates against. The caller
// holds checkMtx.
func (app *BallotApp) checkState() *state.State {
	if app.checkSt == nil {
		app.checkSt = app.db.NewState()
	}
	return app.checkSt
}

func (app *BallotApp) resetCheckState() {
	app.checkMtx.Lock()
	defer app.checkMtx.Unlock()
	app.checkSt = nil
}

// CheckTx validates against the pending state, so a tx may depend on
// earlier txs still waiting in the mempool.
func (app *BallotApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	app.checkMtx.Lock()
	defer app.checkMtx.Unlock()
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st := app.checkState()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Info("check tx parse fail", "err", err)
		res.Code = state.ErrorCode(err)
		res.Log = err.Error()
		err = nil
		return
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = state.CodeGeneric
		res.Log = tx.ErrUnsupportedTxType.Error()
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: state.ErrorCode(err), Log: err.Error()}
		err = nil
	}
	return
}

// apply runs one tx on st. err reports txs that do not decode or
// authenticate; those leave st untouched. An authenticated tx always
// consumes its nonce, and when its operation fails that is its only effect,
// so the same signed bytes cannot be executed later.
func (app *BallotApp) apply(ctx context.Context, st *state.State, txDat []byte) (btx *tx.BallotTx, result *abcitypes.ExecTxResult, err error) {
	btx, err = app.parseTx(st, txDat, false)
	if err != nil {
		return btx, &abcitypes.ExecTxResult{Code: state.ErrorCode(err), Log: err.Error()}, err
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		err = tx.ErrUnsupportedTxType
		return btx, &abcitypes.ExecTxResult{Code: state.CodeGeneric, Log: err.Error()}, err
	}
	result, err1 := h.Process(ctx, st, btx)
	if err1 != nil {
		return btx, &abcitypes.ExecTxResult{Code: state.ErrorCode(err1), Log: err1.Error()}, nil
	}
	return btx, result, nil
}

// PrepareProposal drops txs that do not decode or authenticate. Txs failing
// a guard stay in the block so their nonce is consumed on chain.
func (app *BallotApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.db.NewState()
	st.SetHeight(uint64(proposal.Height))
	var size int64
	txs := make([][]byte, 0, len(proposal.Txs))
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		btx, result, err1 := app.apply(ctx, st, stx)
		if err1 != nil {
			app.logger.Info("prepare drop tx", "code", result.Code, "log", result.Log)
			continue
		}
		app.logger.Debug("prepare tx", "type", btx.Type, "sender", btx.Sender, "code", result.Code)
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

// ProcessProposal rejects blocks carrying txs that do not decode or are not
// signed by a known signer with the next nonce. Guard failures are accepted
// and reported by FinalizeBlock.
func (app *BallotApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	if len(proposal.Txs) == 0 {
		res.Status = abcitypes.ResponseProcessProposal_ACCEPT
		return res, nil
	}
	st := app.db.NewState()
	st.SetHeight(uint64(proposal.Height))
	for _, stx := range proposal.Txs {
		_, _, err1 := app.apply(ctx, st, stx)
		if err1 != nil {
			app.logger.Error("process proposal reject", "height", proposal.Height, "err", err1)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	app.logger.Info("proposal accepted", "height", proposal.Height, "txs", len(proposal.Txs))
	return res, nil
}

func (app *BallotApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	start := time.Now()
	defer func() {
		app.metrics.finalize.Observe(time.Since(start).Seconds())
	}()
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.db.NewState()
	st.SetHeight(uint64(req.Height))

	res := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		btx, result, err1 := app.apply(ctx, st, stx)
		res[i] = result
		if err1 != nil {
			app.logger.Info("tx invalid", "err", err1)
			tp := tx.BallotTxTypeUnknown
			if btx != nil {
				tp = btx.Type
			}
			app.metrics.observeTx(tp, resultInvalid)
			continue
		}
		if result.Code != 0 {
			app.logger.Info("tx failed", "type", btx.Type, "sender", btx.Sender, "code", result.Code, "log", result.Log)
			app.metrics.observeTx(btx.Type, resultFailed)
			continue
		}
		app.metrics.observeTx(btx.Type, resultOK)
	}

	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *BallotApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNoPendingState
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.resetCheckState()
	app.metrics.setPhase(app.st.Status())
	app.logger.Info("Commit", "height", app.st.Header().Height, "status", app.st.Status())
	app.st = nil
	return &abcitypes.ResponseCommit{}, nil
}
