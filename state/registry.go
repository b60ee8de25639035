package state

import (
	"fmt"

	"github.com/calehh/ballot-app/types"
	"github.com/ethereum/go-ethereum/common"
)

// IsWhitelisted reports whether addr was registered by the admin.
func (s *State) IsWhitelisted(addr string) bool {
	v, ok := s.voters[addr]
	return ok && v.IsRegistered
}

func (s *State) requireWhitelisted(caller string) (*types.Voter, error) {
	v, ok := s.voters[caller]
	if !ok || !v.IsRegistered {
		return nil, fmt.Errorf("%w: %s is not a registered voter", ErrNotAuthorized, caller)
	}
	return v, nil
}

func (s *State) requireAdmin(caller string) error {
	if caller == "" || caller != s.header.Admin {
		return fmt.Errorf("%w: %s is not the administrator", ErrNotAuthorized, caller)
	}
	return nil
}

// Whitelist registers the owner of pubkey as a voter.
func (s *State) Whitelist(caller string, pubkey []byte) (ev *types.EventVoterRegistered, err error) {
	if err = s.requireAdmin(caller); err != nil {
		return
	}
	if s.header.Status != types.RegisteringVoters {
		err = fmt.Errorf("%w: voters can only be registered during %s", ErrPhaseViolation, types.RegisteringVoters)
		return
	}
	if !validPubKey(pubkey) {
		err = ErrInvalidPubKey
		return
	}
	addr := AddressOf(pubkey)
	v, ok := s.voters[addr]
	if ok && v.IsRegistered {
		err = fmt.Errorf("%w: %s", ErrAlreadyRegistered, addr)
		return
	}
	if ok {
		v = v.Clone()
	} else {
		v = &types.Voter{
			Address: addr,
			PubKey:  common.CopyBytes(pubkey),
		}
	}
	v.IsRegistered = true
	s.setVoter(v)
	s.logger.Debug("voter registered", "voter", addr)
	return &types.EventVoterRegistered{Voter: addr}, nil
}
