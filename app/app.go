package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/tx/handler"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Version of the ballot application reported in Info.
var Version = "v0.1.0"

const AppVersion uint64 = 1

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &BallotApp{}

type BallotApp struct {
	cfg    *config.BallotAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.BallotTxType]handler.TxHandler
	queriers map[string]Querier
	metrics  *metrics

	// st is the state finalized by the last FinalizeBlock, waiting for Commit
	st *state.State

	// checkSt is the committed state plus the txs accepted by CheckTx since
	// the last Commit. nil until the first CheckTx after a Commit.
	checkMtx sync.Mutex
	checkSt  *state.State
}

// NewBallotApp opens the ledger under the data directory of cfg. Metrics are
// registered on the default Prometheus registerer.
func NewBallotApp(cfg *config.BallotAppConfig, logger cmtlog.Logger) (app *BallotApp, err error) {
	db, err := state.NewStateDB(cfg.DataDir(), logger)
	if err != nil {
		return nil, err
	}
	return newBallotApp(cfg, db, logger, prometheus.DefaultRegisterer), nil
}

func newBallotApp(cfg *config.BallotAppConfig, db *state.StateDB, logger cmtlog.Logger, reg prometheus.Registerer) (app *BallotApp) {
	logger = logger.With("module", "app")
	app = &BallotApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.BallotTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
		metrics:  newMetrics(reg),
	}
	app.registerTxHandler()
	app.registerQuerier()
	app.metrics.setPhase(db.State().Status())
	return
}

func (app *BallotApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *BallotApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("ballot app stopped")
}

func (app *BallotApp) registerTxHandler() {
	app.txHdlrs = handler.Handlers(app.logger)
}

func (app *BallotApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	gen, err := types.ParseBallotGenesis(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, err
	}
	admin, err := gen.AdminKey()
	if err != nil {
		app.logger.Error("InitChain admin key fail", "err", err)
		return nil, err
	}
	if admin == nil {
		if len(chain.Validators) == 0 {
			return nil, fmt.Errorf("no admin_pub_key and no genesis validators")
		}
		admin = chain.Validators[0].PubKey.GetEd25519()
	}

	st := app.db.NewState()
	err = st.InitGenesis(chain.ChainId, admin, gen.MaxSubmissions)
	if err != nil {
		app.logger.Error("InitChain init genesis fail", "err", err)
		return nil, err
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.resetCheckState()
	app.logger.Info("InitChain", "chainId", chain.ChainId, "admin", st.Admin(), "maxSubmissions", gen.MaxSubmissions)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *BallotApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Data:             types.BallotModuleName,
		Version:          Version,
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *BallotApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *BallotApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *BallotApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *BallotApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *BallotApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *BallotApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
