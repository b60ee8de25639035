package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Voter struct {
	Address string `gorm:"primary_key" json:"address"`
	Height  uint64 `json:"height"`
}

type Proposal struct {
	Id            uint64 `gorm:"primary_key" json:"-"`
	ProposalIndex uint64 `gorm:"unique_index" json:"index"`
	Proposer      string `gorm:"index" json:"proposer"`
	Description   string `json:"description"`
	VoteCount     uint64 `json:"vote_count"`
	Height        uint64 `json:"height"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Voter    string `gorm:"unique_index" json:"voter"`
	Proposal uint64 `gorm:"index" json:"proposal"`
	Height   uint64 `json:"height"`
}

type PhaseChange struct {
	Id            uint64 `gorm:"primary_key" json:"id"`
	PreviousPhase uint8  `json:"previous"`
	CurrentPhase  uint8  `json:"current"`
	Label         string `json:"label"`
	Height        uint64 `gorm:"index" json:"height"`
}
