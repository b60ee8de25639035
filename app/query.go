package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calehh/ballot-app/state"
	"github.com/calehh/ballot-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const (
	QueryStatus     = "/status/"
	QueryProposal   = "/proposal/"
	QueryProposals  = "/proposals/"
	QueryVoteCount  = "/votecount/"
	QueryTotalVotes = "/totalvotes/"
	QueryWinner     = "/winner/"
	QueryVotedFor   = "/votedfor/"
	QueryVoter      = "/voter/"
)

func (app *BallotApp) registerQuerier() {
	app.queriers[QueryStatus] = NewStateQuerier(app.db, app.logger, queryStatus)
	app.queriers[QueryProposal] = NewStateQuerier(app.db, app.logger, func(st *state.State, req *types.QueryRequest) (any, error) {
		return st.Proposal(req.Caller, req.Index)
	})
	app.queriers[QueryProposals] = NewStateQuerier(app.db, app.logger, func(st *state.State, req *types.QueryRequest) (any, error) {
		return st.Proposals(req.Caller)
	})
	app.queriers[QueryVoteCount] = NewStateQuerier(app.db, app.logger, func(st *state.State, req *types.QueryRequest) (any, error) {
		count, err := st.VoteCount(req.Caller, req.Index)
		if err != nil {
			return nil, err
		}
		return &types.CountResponse{Count: count}, nil
	})
	app.queriers[QueryTotalVotes] = NewStateQuerier(app.db, app.logger, func(st *state.State, req *types.QueryRequest) (any, error) {
		count, err := st.TotalVotes(req.Caller)
		if err != nil {
			return nil, err
		}
		return &types.CountResponse{Count: count}, nil
	})
	app.queriers[QueryWinner] = NewStateQuerier(app.db, app.logger, func(st *state.State, _ *types.QueryRequest) (any, error) {
		return st.Winner()
	})
	app.queriers[QueryVotedFor] = NewStateQuerier(app.db, app.logger, func(st *state.State, req *types.QueryRequest) (any, error) {
		return st.VotedFor(req.Identity)
	})
	app.queriers[QueryVoter] = NewStateQuerier(app.db, app.logger, func(st *state.State, req *types.QueryRequest) (any, error) {
		return st.Voter(req.Identity)
	})
}

func queryStatus(st *state.State, _ *types.QueryRequest) (any, error) {
	status := st.Status()
	return &types.StatusResponse{
		Status:        status,
		Name:          status.String(),
		Label:         st.StatusLabel(),
		Admin:         st.Admin(),
		ProposalCount: st.ProposalCount(),
		Height:        st.Header().Height,
	}, nil
}

func (app *BallotApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		res.Log = "unknown query path " + req.Path
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type queryFunc func(st *state.State, req *types.QueryRequest) (any, error)

// StateQuerier answers a query from the last committed state.
type StateQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
	fn     queryFunc
}

func NewStateQuerier(db *state.StateDB, logger cmtlog.Logger, fn queryFunc) (q *StateQuerier) {
	q = &StateQuerier{
		db:     db,
		logger: logger,
		fn:     fn,
	}
	return
}

func (q *StateQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var qr types.QueryRequest
	if len(req.Data) > 0 {
		if err1 := json.Unmarshal(req.Data, &qr); err1 != nil {
			res.Code = state.CodeGeneric
			res.Log = err1.Error()
			return
		}
	}
	st := q.db.State()
	res.Height = int64(st.Header().Height)
	val, err1 := q.fn(st, &qr)
	if err1 != nil {
		q.logger.Debug("query fail", "path", req.Path, "err", err1)
		res.Code = state.ErrorCode(err1)
		res.Log = err1.Error()
		return
	}
	res.Value, err1 = json.Marshal(val)
	if err1 != nil {
		res.Code = state.CodeGeneric
		res.Log = err1.Error()
	}
	return
}
