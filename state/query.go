package state

import (
	"fmt"
	"sort"

	"github.com/calehh/ballot-app/types"
)

// VotedFor reports the proposal a registered voter picked.
func (s *State) VotedFor(identity string) (*types.VotedFor, error) {
	v, ok := s.voters[identity]
	if !ok || !v.IsRegistered {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, identity)
	}
	if !v.HasVoted {
		return nil, fmt.Errorf("%w: %s", ErrHasNotVoted, identity)
	}
	p, err := s.proposal(v.VotedProposalId)
	if err != nil {
		return nil, err
	}
	return &types.VotedFor{Index: p.Index, Description: p.Description}, nil
}

func (s *State) StatusLabel() string {
	return s.header.Status.Label()
}

// Voter returns a copy of the signer record of identity.
func (s *State) Voter(identity string) (*types.Voter, error) {
	v, ok := s.voters[identity]
	if !ok {
		return nil, fmt.Errorf("%w: voter %s", ErrNotFound, identity)
	}
	return v.Clone(), nil
}

// Voters returns copies of every registered voter.
func (s *State) Voters() []*types.Voter {
	vs := make([]*types.Voter, 0, len(s.voters))
	for _, v := range s.voters {
		if v.IsRegistered {
			vs = append(vs, v.Clone())
		}
	}
	sort.Slice(vs, func(i, j int) bool {
		return vs[i].Address < vs[j].Address
	})
	return vs
}
