package state

import (
	"github.com/calehh/ballot-app/types"
)

// journal keeps the records a transaction replaced so the transaction can be
// undone without copying the whole state. Stored records are never mutated in
// place, so keeping the old pointer is enough.
type journal struct {
	header       *StateHeader
	proposalsLen int

	voters    map[string]journalVoter
	proposals map[uint64]journalProposal
}

type journalVoter struct {
	prev     *types.Voter
	modified bool
}

type journalProposal struct {
	prev     *types.Proposal
	modified bool
}

// Snapshot starts recording changes. Only one snapshot is open at a time;
// a second call drops the first.
func (s *State) Snapshot() {
	s.journal = &journal{
		header:       s.header.clone(),
		proposalsLen: len(s.proposals),
		voters:       make(map[string]journalVoter),
		proposals:    make(map[uint64]journalProposal),
	}
}

// RevertToSnapshot undoes every change made since Snapshot.
func (s *State) RevertToSnapshot() {
	j := s.journal
	if j == nil {
		return
	}
	s.journal = nil
	s.header = j.header
	for addr, e := range j.voters {
		if e.prev == nil {
			delete(s.voters, addr)
		} else {
			s.voters[addr] = e.prev
		}
		if !e.modified {
			delete(s.modifiedVoters, addr)
		}
	}
	for idx, e := range j.proposals {
		if idx < uint64(j.proposalsLen) {
			s.proposals[idx] = e.prev
		}
		if !e.modified {
			delete(s.modifiedProposals, idx)
		}
	}
	s.proposals = s.proposals[:j.proposalsLen]
}

// DiscardSnapshot keeps the changes made since Snapshot.
func (s *State) DiscardSnapshot() {
	s.journal = nil
}

func (s *State) journalVoter(addr string) {
	if s.journal == nil {
		return
	}
	if _, ok := s.journal.voters[addr]; ok {
		return
	}
	_, modified := s.modifiedVoters[addr]
	s.journal.voters[addr] = journalVoter{prev: s.voters[addr], modified: modified}
}

func (s *State) journalProposal(idx uint64) {
	if s.journal == nil {
		return
	}
	if _, ok := s.journal.proposals[idx]; ok {
		return
	}
	var prev *types.Proposal
	if idx < uint64(len(s.proposals)) {
		prev = s.proposals[idx]
	}
	_, modified := s.modifiedProposals[idx]
	s.journal.proposals[idx] = journalProposal{prev: prev, modified: modified}
}
