package state

import (
	"github.com/cometbft/cometbft/crypto/ed25519"
)

// AddressOf returns the identity of an ed25519 public key.
func AddressOf(pubkey []byte) string {
	pk := ed25519.PubKey(pubkey)
	return pk.Address().String()
}

func validPubKey(pubkey []byte) bool {
	return len(pubkey) == ed25519.PubKeySize
}

func verifySignature(pubkey []byte, msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 || !validPubKey(pubkey) {
		return false
	}
	pk := ed25519.PubKey(pubkey)
	return pk.VerifySignature(msg, sigs[0])
}
