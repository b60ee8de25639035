package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calehh/ballot-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	blocks map[int64][]*abci.ExecTxResult
	latest int64
	calls  map[int64]int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		blocks: make(map[int64][]*abci.ExecTxResult),
		calls:  make(map[int64]int),
	}
}

func (f *fakeChain) addBlock(results ...*abci.ExecTxResult) {
	f.latest++
	f.blocks[f.latest] = results
}

func (f *fakeChain) Status(ctx context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{SyncInfo: coretypes.SyncInfo{LatestBlockHeight: f.latest}}, nil
}

func (f *fakeChain) BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error) {
	f.calls[*height]++
	return &coretypes.ResultBlockResults{Height: *height, TxsResults: f.blocks[*height]}, nil
}

func ok(events ...abci.Event) *abci.ExecTxResult {
	return &abci.ExecTxResult{Events: events}
}

func newTestIndexer(t *testing.T, chain *fakeChain) *ChainIndexer {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	c, err := NewChainIndexer(cmtlog.NewNopLogger(), db, chain, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedBallot(chain *fakeChain) {
	chain.addBlock(
		ok(types.EncodeEventVoterRegistered(&types.EventVoterRegistered{Voter: "A"})),
		ok(types.EncodeEventVoterRegistered(&types.EventVoterRegistered{Voter: "B"})),
	)
	chain.addBlock(ok(types.EncodeEventPhaseChanged(&types.EventPhaseChanged{
		Previous: types.RegisteringVoters, Current: types.ProposalsRegistrationStarted,
	})))
	chain.addBlock(
		ok(types.EncodeEventProposalRegistered(&types.EventProposalRegistered{ProposalIndex: 0, Proposer: "A", Description: "X"})),
		ok(types.EncodeEventProposalRegistered(&types.EventProposalRegistered{ProposalIndex: 1, Proposer: "B", Description: "Y"})),
	)
	chain.addBlock(
		ok(types.EncodeEventVoteCast(&types.EventVoteCast{Voter: "A", ProposalIndex: 0})),
		ok(types.EncodeEventVoteCast(&types.EventVoteCast{Voter: "B", ProposalIndex: 0})),
		&abci.ExecTxResult{Code: 6, Events: []abci.Event{
			types.EncodeEventVoteCast(&types.EventVoteCast{Voter: "C", ProposalIndex: 1}),
		}},
	)
}

func TestSyncProjectsEvents(t *testing.T) {
	chain := newFakeChain()
	seedBallot(chain)
	c := newTestIndexer(t, chain)

	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(5), c.Height)

	proposals, total, err := c.getProposals(0, 0)
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, "X", proposals[0].Description)
	assert.Equal(t, uint64(2), proposals[0].VoteCount)
	assert.Equal(t, uint64(0), proposals[1].VoteCount)

	votes, err := c.getVoteByVoter("C")
	require.NoError(t, err)
	assert.Empty(t, votes)

	phases, err := c.getPhases()
	require.NoError(t, err)
	require.Len(t, phases, 1)
	assert.Equal(t, "Proposals registration started 1/5", phases[0].Label)
	assert.Equal(t, uint64(2), phases[0].Height)

	voters, total, err := c.getVoters(0, 10)
	require.NoError(t, err)
	assert.Len(t, voters, 2)
	assert.Equal(t, uint64(2), total)
}

func TestSyncResumesFromStoredHeight(t *testing.T) {
	chain := newFakeChain()
	seedBallot(chain)
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	c, err := NewChainIndexer(cmtlog.NewNopLogger(), db, chain, 0)
	require.NoError(t, err)
	require.NoError(t, c.Sync(context.Background()))

	chain.addBlock(ok(types.EncodeEventVoterRegistered(&types.EventVoterRegistered{Voter: "D"})))
	resumed, err := NewChainIndexer(cmtlog.NewNopLogger(), db, chain, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), resumed.Height)
	require.NoError(t, resumed.Sync(context.Background()))

	for h := int64(1); h <= 4; h++ {
		assert.Equal(t, 1, chain.calls[h], "height %d", h)
	}
	_, total, err := resumed.getVoters(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
}

func TestReplayedVoteIsCountedOnce(t *testing.T) {
	chain := newFakeChain()
	seedBallot(chain)
	chain.addBlock(ok(types.EncodeEventVoteCast(&types.EventVoteCast{Voter: "A", ProposalIndex: 1})))
	c := newTestIndexer(t, chain)
	require.NoError(t, c.Sync(context.Background()))

	proposals, _, err := c.getProposals(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), proposals[0].VoteCount)
	assert.Equal(t, uint64(0), proposals[1].VoteCount)
}

func TestServiceEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	chain := newFakeChain()
	seedBallot(chain)
	c := newTestIndexer(t, chain)
	require.NoError(t, c.Sync(context.Background()))
	handler := NewService("", c, cmtlog.NewNopLogger()).Handler()

	post := func(path string, body any) *httptest.ResponseRecorder {
		dat, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := post("/getProposals", GetProposalsReq{Proposer: "B"})
	require.Equal(t, http.StatusOK, w.Code)
	var proposals GetProposalsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposals))
	require.Len(t, proposals.Proposals, 1)
	assert.Equal(t, "Y", proposals.Proposals[0].Proposal.Description)

	idx := uint64(0)
	w = post("/getVotes", GetVotesReq{Proposal: &idx})
	require.Equal(t, http.StatusOK, w.Code)
	var votes GetVotesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
	assert.Len(t, votes.Votes, 2)

	w = post("/getPhases", struct{}{})
	require.Equal(t, http.StatusOK, w.Code)
	var phases GetPhasesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &phases))
	assert.Len(t, phases.Phases, 1)

	w = post("/getVoters", GetVotersReq{PageSize: 1})
	require.Equal(t, http.StatusOK, w.Code)
	var voters GetVotersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &voters))
	assert.Len(t, voters.Voters, 1)
	assert.Equal(t, uint64(2), voters.Total)

	req := httptest.NewRequest(http.MethodPost, "/getVoters", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
