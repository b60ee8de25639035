package types

import (
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowLabel(t *testing.T) {
	tests := []struct {
		status WorkflowStatus
		label  string
	}{
		{RegisteringVoters, "Registering voters 0/5"},
		{ProposalsRegistrationStarted, "Proposals registration started 1/5"},
		{ProposalsRegistrationEnded, "Proposals registration ended 2/5"},
		{VotingSessionStarted, "Voting session started 3/5"},
		{VotingSessionEnded, "Voting session ended 4/5"},
		{VotesTallied, "Votes tallied 5/5"},
		{WorkflowStatus(6), ""},
		{WorkflowStatus(255), ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.label, tc.status.Label(), tc.status.String())
	}
}

func TestWorkflowNextStepsByOne(t *testing.T) {
	w := RegisteringVoters
	for {
		next, ok := w.Next()
		if !ok {
			break
		}
		assert.Equal(t, w+1, next)
		w = next
	}
	assert.Equal(t, FinalStatus, w)
	assert.False(t, WorkflowStatus(9).Valid())
}

func TestParseWorkflowStatus(t *testing.T) {
	w, err := ParseWorkflowStatus("VotingSessionStarted")
	require.NoError(t, err)
	assert.Equal(t, VotingSessionStarted, w)

	_, err = ParseWorkflowStatus("Nope")
	assert.Error(t, err)
}

func TestEventsDecode(t *testing.T) {
	pc := DecodeEventPhaseChanged(EncodeEventPhaseChanged(&EventPhaseChanged{Previous: VotingSessionStarted, Current: VotingSessionEnded}))
	require.NotNil(t, pc)
	assert.Equal(t, VotingSessionEnded, pc.Current)

	vc := DecodeEventVoteCast(EncodeEventVoteCast(&EventVoteCast{Voter: "A", ProposalIndex: 3}))
	require.NotNil(t, vc)
	assert.Equal(t, uint64(3), vc.ProposalIndex)

	assert.Nil(t, DecodeEventVoterRegistered(EncodeEventVoterRegistered(&EventVoterRegistered{})))
}

func TestDecodeEventPhaseChangedMissingAttribute(t *testing.T) {
	full := EncodeEventPhaseChanged(&EventPhaseChanged{Previous: RegisteringVoters, Current: ProposalsRegistrationStarted})
	ev := DecodeEventPhaseChanged(full)
	require.NotNil(t, ev)
	assert.Equal(t, RegisteringVoters, ev.Previous)

	for i := range full.Attributes {
		partial := full
		partial.Attributes = append(full.Attributes[:i:i], full.Attributes[i+1:]...)
		assert.Nil(t, DecodeEventPhaseChanged(partial), full.Attributes[i].Key)
	}
	assert.Nil(t, DecodeEventPhaseChanged(abci.Event{Type: EventPhaseChangedType}))
}
