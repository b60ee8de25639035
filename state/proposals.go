package state

import (
	"fmt"

	"github.com/calehh/ballot-app/types"
)

// SubmitProposal appends a proposal on behalf of a registered voter.
func (s *State) SubmitProposal(caller string, description string) (ev *types.EventProposalRegistered, err error) {
	v, err := s.requireWhitelisted(caller)
	if err != nil {
		return
	}
	if s.header.Status != types.ProposalsRegistrationStarted {
		err = fmt.Errorf("%w: proposals are not being accepted during %s", ErrPhaseViolation, s.header.Status)
		return
	}
	if v.SubmittedCount >= s.header.MaxSubmissions {
		err = fmt.Errorf("%w: %d of %d", ErrSubmissionCapExceeded, v.SubmittedCount, s.header.MaxSubmissions)
		return
	}
	if description == "" {
		err = ErrEmptyDescription
		return
	}
	p := &types.Proposal{
		Index:       uint64(len(s.proposals)),
		Description: description,
		Proposer:    caller,
		Height:      s.header.Height,
	}
	s.setProposal(p)
	v = v.Clone()
	v.SubmittedCount += 1
	s.setVoter(v)
	return &types.EventProposalRegistered{
		ProposalIndex: p.Index,
		Proposer:      caller,
		Description:   description,
	}, nil
}

func (s *State) ProposalCount() uint64 {
	return uint64(len(s.proposals))
}

func (s *State) proposal(idx uint64) (*types.Proposal, error) {
	if len(s.proposals) == 0 {
		return nil, ErrNoProposals
	}
	if idx >= uint64(len(s.proposals)) {
		return nil, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, idx, len(s.proposals))
	}
	return s.proposals[idx], nil
}

// Proposal returns a copy of the proposal at idx.
func (s *State) Proposal(caller string, idx uint64) (*types.Proposal, error) {
	if _, err := s.requireWhitelisted(caller); err != nil {
		return nil, err
	}
	p, err := s.proposal(idx)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// Proposals returns copies of every proposal in submission order.
func (s *State) Proposals(caller string) ([]*types.Proposal, error) {
	if _, err := s.requireWhitelisted(caller); err != nil {
		return nil, err
	}
	if len(s.proposals) == 0 {
		return nil, ErrNoProposals
	}
	ps := make([]*types.Proposal, len(s.proposals))
	for i, p := range s.proposals {
		ps[i] = p.Clone()
	}
	return ps, nil
}

func (s *State) VoteCount(caller string, idx uint64) (uint64, error) {
	p, err := s.Proposal(caller, idx)
	if err != nil {
		return 0, err
	}
	return p.VoteCount, nil
}
