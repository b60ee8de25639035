package state

import (
	"fmt"

	"github.com/calehh/ballot-app/types"
)

// phaseGuards are checked before leaving the keyed phase.
var phaseGuards = map[types.WorkflowStatus]func(s *State) error{
	types.ProposalsRegistrationStarted: func(s *State) error {
		if len(s.proposals) < 2 {
			return fmt.Errorf("%w: %d registered, 2 required", ErrInsufficientProposals, len(s.proposals))
		}
		return nil
	},
	types.VotingSessionStarted: func(s *State) error {
		if s.totalVotes() < 1 {
			return ErrNoVotesCast
		}
		return nil
	},
}

func (s *State) Status() types.WorkflowStatus {
	return s.header.Status
}

// AdvancePhase moves the workflow one step forward.
func (s *State) AdvancePhase(caller string) (ev *types.EventPhaseChanged, err error) {
	if err = s.requireAdmin(caller); err != nil {
		return
	}
	prev := s.header.Status
	next, ok := prev.Next()
	if !ok {
		err = ErrWorkflowAlreadyComplete
		return
	}
	if guard, ok := phaseGuards[prev]; ok {
		if err = guard(s); err != nil {
			return
		}
	}
	s.header.Status = next
	s.logger.Info("workflow advanced", "from", prev, "to", next)
	return &types.EventPhaseChanged{Previous: prev, Current: next}, nil
}
