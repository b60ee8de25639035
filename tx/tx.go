package tx

import (
	"encoding/json"
)

// BallotTx is the signed envelope of every mutating operation. Sender is the
// address of the signing key and Nonce its replay counter.
type BallotTx struct {
	Version uint8        `json:"version"`
	Type    BallotTxType `json:"type"`
	Nonce   uint64       `json:"nonce"`
	Sender  string       `json:"sender"`
	Tx      any          `json:"tx"`
	Sig     [][]byte     `json:"sig"`
}

type WhitelistTx struct {
	PubKey []byte `json:"pubkey"`
}

type AdvanceTx struct{}

type ProposalTx struct {
	Description string `json:"description"`
}

type VoteTx struct {
	Proposal uint64 `json:"proposal"`
}

type ballotTxTmpl[Tx any] struct {
	Version uint8        `json:"version"`
	Type    BallotTxType `json:"type"`
	Nonce   uint64       `json:"nonce"`
	Sender  string       `json:"sender"`
	Tx      Tx           `json:"tx"`
	Sig     [][]byte     `json:"sig"`
}

// SigData is the payload signed by the sender: the tx with its signatures
// replaced by ext, normally the chain id.
func (tx *BallotTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseBallotTxType(dat []byte) BallotTxType {
	var tx struct {
		Type BallotTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return BallotTxTypeUnknown
	}
	return tx.Type
}

func unmarshalBallotTx[Tx any](dat []byte) (btx *BallotTx, err error) {
	var txt ballotTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version > BallotTxVersion1 {
		return nil, ErrUnsupportedTxVersion
	}
	if txt.Sender == "" || len(txt.Sig) == 0 {
		return nil, ErrInvalidTx
	}
	btx = new(BallotTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalBallotTx(dat []byte) (btx *BallotTx, err error) {
	tp := parseBallotTxType(dat)
	switch tp {
	case BallotTxTypeWhitelist:
		return unmarshalBallotTx[WhitelistTx](dat)
	case BallotTxTypeAdvance:
		return unmarshalBallotTx[AdvanceTx](dat)
	case BallotTxTypeProposal:
		return unmarshalBallotTx[ProposalTx](dat)
	case BallotTxTypeVote:
		return unmarshalBallotTx[VoteTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalBallotTx(btx *BallotTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
