package tx

import (
	"errors"
)

type BallotTxType uint8

const (
	BallotTxTypeUnknown   BallotTxType = 0
	BallotTxTypeWhitelist BallotTxType = 1
	BallotTxTypeAdvance   BallotTxType = 2
	BallotTxTypeProposal  BallotTxType = 3
	BallotTxTypeVote      BallotTxType = 4
)

const (
	BallotTxVersion0 uint8 = 0
	BallotTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)

func (t BallotTxType) String() string {
	switch t {
	case BallotTxTypeWhitelist:
		return "whitelist"
	case BallotTxTypeAdvance:
		return "advance"
	case BallotTxTypeProposal:
		return "proposal"
	case BallotTxTypeVote:
		return "vote"
	default:
		return "unknown"
	}
}
