package types

// DefaultMaxSubmissions is the per-voter proposal cap.
const DefaultMaxSubmissions = 3

type Proposal struct {
	Index       uint64 `json:"index"`
	Description string `json:"description"`
	VoteCount   uint64 `json:"vote_count"`
	Proposer    string `json:"proposer"`
	Height      uint64 `json:"height"`
}

// Voter is the per-identity record. Signers that were never whitelisted (the
// admin at genesis) keep IsRegistered false but still own a nonce.
type Voter struct {
	Address         string `json:"address"`
	PubKey          []byte `json:"pub_key"`
	Nonce           uint64 `json:"nonce"`
	IsRegistered    bool   `json:"is_registered"`
	HasVoted        bool   `json:"has_voted"`
	VotedProposalId uint64 `json:"voted_proposal_id"`
	SubmittedCount  uint64 `json:"submitted_count"`
}

func (v *Voter) Clone() *Voter {
	n := *v
	if v.PubKey != nil {
		n.PubKey = make([]byte, len(v.PubKey))
		copy(n.PubKey, v.PubKey)
	}
	return &n
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	return &n
}

type Winner struct {
	Index       uint64 `json:"index"`
	Description string `json:"description"`
	VoteCount   uint64 `json:"vote_count"`
}

type VotedFor struct {
	Index       uint64 `json:"index"`
	Description string `json:"description"`
}
