package state

import (
	"fmt"

	"github.com/calehh/ballot-app/types"
)

func (s *State) totalVotes() (total uint64) {
	for _, p := range s.proposals {
		total += p.VoteCount
	}
	return
}

// TotalVotes sums the vote counts once voting has opened.
func (s *State) TotalVotes(caller string) (uint64, error) {
	if _, err := s.requireWhitelisted(caller); err != nil {
		return 0, err
	}
	if s.header.Status < types.VotingSessionStarted {
		return 0, fmt.Errorf("%w: voting has not started", ErrPhaseViolation)
	}
	return s.totalVotes(), nil
}

// Winner returns the proposal with the most votes. Ties go to the lowest index.
func (s *State) Winner() (*types.Winner, error) {
	if s.header.Status < types.VotingSessionEnded {
		return nil, ErrTallyNotReady
	}
	if len(s.proposals) == 0 {
		return nil, ErrNoProposals
	}
	best := s.proposals[0]
	for _, p := range s.proposals[1:] {
		if p.VoteCount > best.VoteCount {
			best = p
		}
	}
	return &types.Winner{
		Index:       best.Index,
		Description: best.Description,
		VoteCount:   best.VoteCount,
	}, nil
}
