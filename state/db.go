package state

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

// StateDB owns the versioned tree and publishes the last committed State.
// Readers get the published State, which is never mutated afterwards.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("ballot", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	db, err = openStateDB(ldb, logger)
	if err != nil {
		return nil, err
	}
	db.dir = dir
	return
}

// NewMemStateDB opens a StateDB that lives in memory only.
func NewMemStateDB(logger cmtlog.Logger) (*StateDB, error) {
	return openStateDB(dbm.NewMemDB(), logger)
}

func openStateDB(ldb dbm.DB, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "ballotdb")
	tdb := iavl.NewMutableTree(ldb, 128, true, newTreeLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	st.dbVer = version
	err = st.load()
	if err != nil {
		logger.Error("from ballotdb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().clone()
	return
}

// State returns the last committed state. Callers must not mutate it.
func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

// NewState returns a private copy of the committed state for the next block.
func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.Clone()
	return
}

// SetState saves the working tree as a new version and publishes st.
func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

func (db *StateDB) Version() int64 {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.dbVer
}
