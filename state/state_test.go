package state

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ballotFixture struct {
	db    *StateDB
	st    *State
	admin string
	keys  map[string]ed25519.PrivKey
}

func newFixture(t *testing.T, voters ...string) *ballotFixture {
	t.Helper()
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adminKey := ed25519.GenPrivKey()
	st := db.NewState()
	require.NoError(t, st.InitGenesis("ballot-test", adminKey.PubKey().Bytes(), 0))

	f := &ballotFixture{
		db:    db,
		st:    st,
		admin: AddressOf(adminKey.PubKey().Bytes()),
		keys:  map[string]ed25519.PrivKey{"admin": adminKey},
	}
	for _, name := range voters {
		key := ed25519.GenPrivKey()
		f.keys[name] = key
		_, err := st.Whitelist(f.admin, key.PubKey().Bytes())
		require.NoError(t, err)
	}
	return f
}

func (f *ballotFixture) addr(name string) string {
	return AddressOf(f.keys[name].PubKey().Bytes())
}

func (f *ballotFixture) advanceTo(t *testing.T, target types.WorkflowStatus) {
	t.Helper()
	for f.st.Status() < target {
		_, err := f.st.AdvancePhase(f.admin)
		require.NoError(t, err)
	}
}

func TestFullBallotScenario(t *testing.T) {
	f := newFixture(t, "a", "b")
	a, b := f.addr("a"), f.addr("b")

	f.advanceTo(t, types.ProposalsRegistrationStarted)
	ev, err := f.st.SubmitProposal(a, "X")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ev.ProposalIndex)
	ev, err = f.st.SubmitProposal(b, "Y")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ev.ProposalIndex)

	f.advanceTo(t, types.VotingSessionStarted)
	_, err = f.st.CastVote(a, 0)
	require.NoError(t, err)
	_, err = f.st.CastVote(b, 0)
	require.NoError(t, err)

	total, err := f.st.TotalVotes(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)

	f.advanceTo(t, types.VotesTallied)
	w, err := f.st.Winner()
	require.NoError(t, err)
	assert.Equal(t, &types.Winner{Index: 0, Description: "X", VoteCount: 2}, w)

	vf, err := f.st.VotedFor(b)
	require.NoError(t, err)
	assert.Equal(t, &types.VotedFor{Index: 0, Description: "X"}, vf)
	assert.Equal(t, "Votes tallied 5/5", f.st.StatusLabel())
}

func TestAdvanceRequiresTwoProposals(t *testing.T) {
	f := newFixture(t, "a")
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	_, err := f.st.SubmitProposal(f.addr("a"), "only")
	require.NoError(t, err)

	_, err = f.st.AdvancePhase(f.admin)
	assert.ErrorIs(t, err, ErrInsufficientProposals)
	assert.Equal(t, types.ProposalsRegistrationStarted, f.st.Status())
}

func TestAdvanceRequiresVotes(t *testing.T) {
	f := newFixture(t, "a")
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	for _, d := range []string{"X", "Y"} {
		_, err := f.st.SubmitProposal(f.addr("a"), d)
		require.NoError(t, err)
	}
	f.advanceTo(t, types.VotingSessionStarted)

	_, err := f.st.AdvancePhase(f.admin)
	assert.ErrorIs(t, err, ErrNoVotesCast)
	assert.Equal(t, types.VotingSessionStarted, f.st.Status())
}

func TestSubmissionCap(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	for i := 0; i < types.DefaultMaxSubmissions; i++ {
		_, err := f.st.SubmitProposal(f.addr("a"), "p")
		require.NoError(t, err)
	}
	_, err := f.st.SubmitProposal(f.addr("a"), "p")
	assert.ErrorIs(t, err, ErrSubmissionCapExceeded)

	ev, err := f.st.SubmitProposal(f.addr("b"), "q")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ev.ProposalIndex)
	assert.Equal(t, uint64(4), f.st.ProposalCount())
}

func TestDuplicateVote(t *testing.T) {
	f := newFixture(t, "a")
	a := f.addr("a")
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	for _, d := range []string{"X", "Y"} {
		_, err := f.st.SubmitProposal(a, d)
		require.NoError(t, err)
	}
	f.advanceTo(t, types.VotingSessionStarted)

	_, err := f.st.CastVote(a, 1)
	require.NoError(t, err)
	_, err = f.st.CastVote(a, 0)
	assert.ErrorIs(t, err, ErrDuplicateVote)

	c1, err := f.st.VoteCount(a, 1)
	require.NoError(t, err)
	c0, err := f.st.VoteCount(a, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c1)
	assert.Equal(t, uint64(0), c0)
}

func TestWinnerTieGoesToLowestIndex(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d")
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	for _, d := range []string{"X", "Y", "Z"} {
		_, err := f.st.SubmitProposal(f.addr("a"), d)
		require.NoError(t, err)
	}
	f.advanceTo(t, types.VotingSessionStarted)
	votes := map[string]uint64{"a": 2, "b": 1, "c": 2, "d": 1}
	for name, idx := range votes {
		_, err := f.st.CastVote(f.addr(name), idx)
		require.NoError(t, err)
	}

	_, err := f.st.Winner()
	assert.ErrorIs(t, err, ErrTallyNotReady)

	f.advanceTo(t, types.VotingSessionEnded)
	w, err := f.st.Winner()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.Index)
	assert.Equal(t, "Y", w.Description)
	assert.Equal(t, uint64(2), w.VoteCount)
}

func TestWorkflowTerminal(t *testing.T) {
	f := newFixture(t, "a")
	prev := f.st.Status()
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	assert.Equal(t, prev+1, f.st.Status())

	for _, d := range []string{"X", "Y"} {
		_, err := f.st.SubmitProposal(f.addr("a"), d)
		require.NoError(t, err)
	}
	f.advanceTo(t, types.VotingSessionStarted)
	_, err := f.st.CastVote(f.addr("a"), 0)
	require.NoError(t, err)
	f.advanceTo(t, types.VotesTallied)

	for i := 0; i < 3; i++ {
		_, err = f.st.AdvancePhase(f.admin)
		assert.ErrorIs(t, err, ErrWorkflowAlreadyComplete)
	}
	assert.Equal(t, types.VotesTallied, f.st.Status())
}

func TestGuards(t *testing.T) {
	f := newFixture(t, "a")
	a := f.addr("a")
	outsider := AddressOf(ed25519.GenPrivKey().PubKey().Bytes())

	_, err := f.st.AdvancePhase(a)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.st.Whitelist(a, ed25519.GenPrivKey().PubKey().Bytes())
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.st.Whitelist(f.admin, f.keys["a"].PubKey().Bytes())
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	_, err = f.st.Whitelist(f.admin, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidPubKey)

	_, err = f.st.SubmitProposal(a, "early")
	assert.ErrorIs(t, err, ErrPhaseViolation)
	_, err = f.st.Proposals(a)
	assert.ErrorIs(t, err, ErrNoProposals)
	_, err = f.st.TotalVotes(a)
	assert.ErrorIs(t, err, ErrPhaseViolation)

	f.advanceTo(t, types.ProposalsRegistrationStarted)
	_, err = f.st.Whitelist(f.admin, ed25519.GenPrivKey().PubKey().Bytes())
	assert.ErrorIs(t, err, ErrPhaseViolation)
	_, err = f.st.SubmitProposal(outsider, "x")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.st.SubmitProposal(f.admin, "x")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.st.SubmitProposal(a, "")
	assert.ErrorIs(t, err, ErrEmptyDescription)

	_, err = f.st.SubmitProposal(a, "X")
	require.NoError(t, err)
	_, err = f.st.Proposal(a, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = f.st.Proposal(outsider, 0)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.st.CastVote(a, 0)
	assert.ErrorIs(t, err, ErrVotingNotOpen)
	assert.ErrorIs(t, err, ErrPhaseViolation)
	_, err = f.st.CastVote(a, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = f.st.VotedFor(outsider)
	assert.ErrorIs(t, err, ErrNotRegistered)
	_, err = f.st.VotedFor(a)
	assert.ErrorIs(t, err, ErrHasNotVoted)
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, uint32(0), ErrorCode(nil))
	assert.Equal(t, uint32(4), ErrorCode(ErrVotingNotOpen))
	assert.Equal(t, uint32(3), ErrorCode(ErrPhaseViolation))
	assert.Equal(t, uint32(6), ErrorCode(ErrDuplicateVote))
	assert.Equal(t, CodeGeneric, ErrorCode(assert.AnError))
}

func TestCloneIsolation(t *testing.T) {
	f := newFixture(t, "a")
	f.advanceTo(t, types.ProposalsRegistrationStarted)

	c := f.st.Clone()
	_, err := c.SubmitProposal(f.addr("a"), "X")
	require.NoError(t, err)

	assert.Equal(t, uint64(0), f.st.ProposalCount())
	v, err := f.st.Voter(f.addr("a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.SubmittedCount)
}

func TestCommitAndReload(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	_, err := f.st.SubmitProposal(f.addr("a"), "X")
	require.NoError(t, err)
	f.st.SetHeight(1)

	working, err := f.st.Update()
	require.NoError(t, err)
	committed, err := f.db.SetState(f.st)
	require.NoError(t, err)
	assert.Equal(t, working, committed)
	assert.Equal(t, committed, f.db.State().Hash())
	assert.Equal(t, int64(1), f.db.Version())

	reloaded := newState(f.db.db, cmtlog.NewNopLogger())
	require.NoError(t, reloaded.load())
	assert.Equal(t, types.ProposalsRegistrationStarted, reloaded.Status())
	assert.Equal(t, f.admin, reloaded.Admin())
	assert.Equal(t, uint64(1), reloaded.ProposalCount())
	assert.True(t, reloaded.IsWhitelisted(f.addr("b")))
	assert.False(t, reloaded.IsWhitelisted(f.admin))
	assert.Equal(t, committed, reloaded.Hash())
}

func TestVerify(t *testing.T) {
	f := newFixture(t, "a")
	key := f.keys["a"]
	btx := &tx.BallotTx{
		Version: tx.BallotTxVersion1,
		Type:    tx.BallotTxTypeVote,
		Nonce:   0,
		Sender:  f.addr("a"),
		Tx:      &tx.VoteTx{Proposal: 0},
	}
	dat, err := btx.SigData([]byte("ballot-test"))
	require.NoError(t, err)
	sig, err := key.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}

	ok, err := f.st.Verify(btx, false)
	require.NoError(t, err)
	assert.True(t, ok)

	f.st.IncNonce(btx.Sender)
	_, err = f.st.Verify(btx, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)

	btx.Nonce = 5
	_, err = f.st.Verify(btx, true)
	assert.ErrorIs(t, err, ErrTxSigInvalid)

	btx.Sender = "unknown"
	_, err = f.st.Verify(btx, true)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestSnapshotRevert(t *testing.T) {
	f := newFixture(t, "a", "b")
	a, b := f.addr("a"), f.addr("b")
	f.advanceTo(t, types.ProposalsRegistrationStarted)
	_, err := f.st.SubmitProposal(a, "X")
	require.NoError(t, err)
	_, err = f.st.Update()
	require.NoError(t, err)
	before := f.st.Clone()

	f.st.Snapshot()
	_, err = f.st.SubmitProposal(b, "Y")
	require.NoError(t, err)
	_, err = f.st.AdvancePhase(f.admin)
	require.NoError(t, err)
	_, err = f.st.AdvancePhase(f.admin)
	require.NoError(t, err)
	_, err = f.st.CastVote(a, 1)
	require.NoError(t, err)
	f.st.RevertToSnapshot()

	assert.Equal(t, types.ProposalsRegistrationStarted, f.st.Status())
	assert.Equal(t, uint64(1), f.st.ProposalCount())
	assert.Equal(t, uint64(0), f.st.totalVotes())
	assert.Equal(t, before.voters, f.st.voters)
	assert.Empty(t, f.st.modifiedVoters)
	assert.Empty(t, f.st.modifiedProposals)

	f.st.Snapshot()
	_, err = f.st.SubmitProposal(b, "Y")
	require.NoError(t, err)
	f.st.DiscardSnapshot()
	f.st.IncNonce(b)
	assert.Equal(t, uint64(2), f.st.ProposalCount())
	assert.Equal(t, uint64(1), f.st.Nonce(b))

	// records shared with the earlier copy are replaced, not modified
	assert.Equal(t, uint64(1), before.ProposalCount())
	assert.Equal(t, uint64(0), before.Nonce(b))
	assert.Equal(t, uint64(0), before.voters[b].SubmittedCount)
}

func TestRandomOperationSequence(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	for _, seed := range []int64{1, 7, 42, 2024, 99991} {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))
			f := newFixture(t, names[:2]...)
			for _, name := range names[2:] {
				f.keys[name] = ed25519.GenPrivKey()
			}
			counts := make(map[uint64]uint64)
			status := f.st.Status()

			for step := 0; step < 300; step++ {
				caller := f.addr(names[rnd.Intn(len(names))])
				var err error
				switch op := rnd.Intn(10); {
				case op == 0:
					_, err = f.st.AdvancePhase(f.admin)
					if err == nil {
						status++
					}
				case op < 3:
					_, err = f.st.Whitelist(f.admin, f.keys[names[rnd.Intn(len(names))]].PubKey().Bytes())
				case op < 6:
					_, err = f.st.SubmitProposal(caller, fmt.Sprintf("p%d", step))
				default:
					idx := uint64(rnd.Intn(4))
					_, err = f.st.CastVote(caller, idx)
					if err == nil {
						counts[idx]++
					}
				}

				require.Equal(t, status, f.st.Status(), "step %d", step)
				var total uint64
				for i, p := range f.st.proposals {
					assert.Equal(t, counts[uint64(i)], p.VoteCount, "step %d proposal %d", step, i)
					total += p.VoteCount
				}
				assert.Equal(t, total, f.st.totalVotes(), "step %d", step)
			}
		})
	}
}
