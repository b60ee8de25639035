package state

import (
	"fmt"

	"github.com/calehh/ballot-app/types"
)

// CastVote records caller's single vote for the proposal at idx.
func (s *State) CastVote(caller string, idx uint64) (ev *types.EventVoteCast, err error) {
	v, err := s.requireWhitelisted(caller)
	if err != nil {
		return
	}
	if idx >= uint64(len(s.proposals)) {
		err = fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, idx, len(s.proposals))
		return
	}
	if s.header.Status != types.VotingSessionStarted {
		err = ErrVotingNotOpen
		return
	}
	if v.HasVoted {
		err = fmt.Errorf("%w: %s already voted for %d", ErrDuplicateVote, caller, v.VotedProposalId)
		return
	}
	v = v.Clone()
	v.HasVoted = true
	v.VotedProposalId = idx
	s.setVoter(v)
	p := s.proposals[idx].Clone()
	p.VoteCount += 1
	s.setProposal(p)
	return &types.EventVoteCast{Voter: caller, ProposalIndex: idx}, nil
}
