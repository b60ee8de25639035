package types

import "fmt"

type WorkflowStatus uint8

const (
	RegisteringVoters WorkflowStatus = iota
	ProposalsRegistrationStarted
	ProposalsRegistrationEnded
	VotingSessionStarted
	VotingSessionEnded
	VotesTallied
)

// FinalStatus is the ordinal of the terminal phase, used in progress markers.
const FinalStatus = VotesTallied

var workflowNames = map[WorkflowStatus]string{
	RegisteringVoters:            "RegisteringVoters",
	ProposalsRegistrationStarted: "ProposalsRegistrationStarted",
	ProposalsRegistrationEnded:   "ProposalsRegistrationEnded",
	VotingSessionStarted:         "VotingSessionStarted",
	VotingSessionEnded:           "VotingSessionEnded",
	VotesTallied:                 "VotesTallied",
}

var workflowLabels = map[WorkflowStatus]string{
	RegisteringVoters:            "Registering voters",
	ProposalsRegistrationStarted: "Proposals registration started",
	ProposalsRegistrationEnded:   "Proposals registration ended",
	VotingSessionStarted:         "Voting session started",
	VotingSessionEnded:           "Voting session ended",
	VotesTallied:                 "Votes tallied",
}

// nextStatus is the workflow transition table. The terminal phase has no entry.
var nextStatus = map[WorkflowStatus]WorkflowStatus{
	RegisteringVoters:            ProposalsRegistrationStarted,
	ProposalsRegistrationStarted: ProposalsRegistrationEnded,
	ProposalsRegistrationEnded:   VotingSessionStarted,
	VotingSessionStarted:         VotingSessionEnded,
	VotingSessionEnded:           VotesTallied,
}

func (w WorkflowStatus) String() string {
	if n, ok := workflowNames[w]; ok {
		return n
	}
	return fmt.Sprintf("WorkflowStatus(%d)", uint8(w))
}

func (w WorkflowStatus) Valid() bool {
	_, ok := workflowNames[w]
	return ok
}

// Next returns the phase that follows w and false when w is terminal.
func (w WorkflowStatus) Next() (WorkflowStatus, bool) {
	n, ok := nextStatus[w]
	return n, ok
}

// Label renders the human readable phase with its progress marker, e.g.
// "Voting session started 3/5". Unknown ordinals render as "".
func (w WorkflowStatus) Label() string {
	l, ok := workflowLabels[w]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %d/%d", l, uint8(w), uint8(FinalStatus))
}

func ParseWorkflowStatus(name string) (WorkflowStatus, error) {
	for w, n := range workflowNames {
		if n == name {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown workflow status %q", name)
}
