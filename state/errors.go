package state

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthorized           = errors.New("not authorized")
	ErrPhaseViolation          = errors.New("phase violation")
	ErrAlreadyRegistered       = errors.New("already registered")
	ErrDuplicateVote           = errors.New("duplicate vote")
	ErrSubmissionCapExceeded   = errors.New("submission cap exceeded")
	ErrInsufficientProposals   = errors.New("insufficient proposals")
	ErrNoVotesCast             = errors.New("no votes cast")
	ErrIndexOutOfRange         = errors.New("proposal index out of range")
	ErrNoProposals             = errors.New("no proposals")
	ErrTallyNotReady           = errors.New("tally not ready")
	ErrNotRegistered           = errors.New("not registered")
	ErrHasNotVoted             = errors.New("has not voted")
	ErrWorkflowAlreadyComplete = errors.New("workflow already complete")

	ErrVotingNotOpen = fmt.Errorf("%w: voting session is not open", ErrPhaseViolation)

	ErrEmptyDescription = errors.New("proposal description is empty")
	ErrInvalidPubKey    = errors.New("invalid public key")
	ErrTxNonceInvalid   = errors.New("nonce invalid")
	ErrTxSigInvalid     = errors.New("signature invalid")
	ErrNotFound         = errors.New("not found")
)

// CodeGeneric is returned for errors outside the ballot taxonomy.
const CodeGeneric uint32 = 1

// errorCodes is scanned in order, so wrapping errors precede the errors they wrap.
var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrNotAuthorized, 2},
	{ErrVotingNotOpen, 4},
	{ErrPhaseViolation, 3},
	{ErrAlreadyRegistered, 5},
	{ErrDuplicateVote, 6},
	{ErrSubmissionCapExceeded, 7},
	{ErrInsufficientProposals, 8},
	{ErrNoVotesCast, 9},
	{ErrIndexOutOfRange, 10},
	{ErrNoProposals, 11},
	{ErrTallyNotReady, 12},
	{ErrNotRegistered, 13},
	{ErrHasNotVoted, 14},
	{ErrWorkflowAlreadyComplete, 15},
	{ErrEmptyDescription, 16},
	{ErrInvalidPubKey, 17},
	{ErrTxNonceInvalid, 18},
	{ErrTxSigInvalid, 19},
}

// ErrorCode maps err to the ABCI response code reported to clients.
func ErrorCode(err error) uint32 {
	if err == nil {
		return 0
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeGeneric
}
