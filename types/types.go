package types

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventVoterRegisteredType    = "voter_registered"
	EventPhaseChangedType       = "phase_changed"
	EventProposalRegisteredType = "proposal_registered"
	EventVoteCastType           = "vote_cast"
)

type EventVoterRegistered struct {
	Voter string `json:"voter"`
}

func EncodeEventVoterRegistered(event *EventVoterRegistered) abci.Event {
	return abci.Event{
		Type: EventVoterRegisteredType,
		Attributes: []abci.EventAttribute{
			{Key: "voter", Value: event.Voter, Index: true},
		},
	}
}

func DecodeEventVoterRegistered(originEvent abci.Event) *EventVoterRegistered {
	event := &EventVoterRegistered{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter":
			event.Voter = v.Value
		}
	}
	if event.Voter == "" {
		return nil
	}
	return event
}

type EventPhaseChanged struct {
	Previous WorkflowStatus `json:"previous"`
	Current  WorkflowStatus `json:"current"`
}

func EncodeEventPhaseChanged(event *EventPhaseChanged) abci.Event {
	return abci.Event{
		Type: EventPhaseChangedType,
		Attributes: []abci.EventAttribute{
			{Key: "previous", Value: fmt.Sprintf("%v", uint8(event.Previous)), Index: false},
			{Key: "current", Value: fmt.Sprintf("%v", uint8(event.Current)), Index: true},
		},
	}
}

func DecodeEventPhaseChanged(originEvent abci.Event) *EventPhaseChanged {
	event := &EventPhaseChanged{}
	var hasPrevious, hasCurrent bool
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "previous":
			previous, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Previous = WorkflowStatus(previous)
			hasPrevious = true
		case "current":
			current, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Current = WorkflowStatus(current)
			hasCurrent = true
		}
	}
	if !hasPrevious || !hasCurrent {
		return nil
	}
	return event
}

type EventProposalRegistered struct {
	ProposalIndex uint64 `json:"proposalIndex"`
	Proposer      string `json:"proposer"`
	Description   string `json:"description"`
}

func EncodeEventProposalRegistered(event *EventProposalRegistered) abci.Event {
	return abci.Event{
		Type: EventProposalRegisteredType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalIndex), Index: true},
			{Key: "proposer", Value: event.Proposer, Index: true},
			{Key: "description", Value: event.Description, Index: false},
		},
	}
}

func DecodeEventProposalRegistered(originEvent abci.Event) *EventProposalRegistered {
	event := &EventProposalRegistered{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalIndex = proposal
		case "proposer":
			event.Proposer = v.Value
		case "description":
			event.Description = v.Value
		}
	}
	return event
}

type EventVoteCast struct {
	Voter         string `json:"voter"`
	ProposalIndex uint64 `json:"proposalIndex"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			{Key: "voter", Value: event.Voter, Index: true},
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalIndex), Index: true},
		},
	}
}

func DecodeEventVoteCast(originEvent abci.Event) *EventVoteCast {
	event := &EventVoteCast{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter":
			event.Voter = v.Value
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalIndex = proposal
		}
	}
	if event.Voter == "" {
		return nil
	}
	return event
}

// QueryRequest is the JSON payload carried in ABCI query data.
type QueryRequest struct {
	Caller   string `json:"caller,omitempty"`
	Index    uint64 `json:"index,omitempty"`
	Identity string `json:"identity,omitempty"`
}

type StatusResponse struct {
	Status        WorkflowStatus `json:"status"`
	Name          string         `json:"name"`
	Label         string         `json:"label"`
	Admin         string         `json:"admin"`
	ProposalCount uint64         `json:"proposal_count"`
	Height        uint64         `json:"height"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}
