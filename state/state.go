package state

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	KeyState        = "s"
	KeyVoterBody    = "v%s"
	KeyProposalBody = "p%016x"

	PrefixVoter    = []byte("v")
	PrefixProposal = []byte("p")
)

// StateHeader is the rlp encoded singleton holding the workflow phase.
type StateHeader struct {
	ChainId        string
	Height         uint64
	Admin          string
	Status         types.WorkflowStatus
	MaxSubmissions uint64
	RootHash       []byte
	Hash           []byte
}

func (h *StateHeader) clone() *StateHeader {
	n := *h
	n.RootHash = common.CopyBytes(h.RootHash)
	n.Hash = common.CopyBytes(h.Hash)
	return &n
}

// State is the ledger: registry, proposal store and workflow phase. A State
// published through StateDB is read only; mutations happen on clones. Voter
// and proposal records are replaced, never modified in place, so clones share
// them.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header    *StateHeader
	voters    map[string]*types.Voter
	proposals []*types.Proposal

	modifiedVoters    map[string]struct{}
	modifiedProposals map[uint64]struct{}

	journal *journal
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger:            logger,
		db:                db,
		dbVer:             0,
		header:            new(StateHeader),
		voters:            make(map[string]*types.Voter),
		proposals:         make([]*types.Proposal, 0),
		modifiedVoters:    make(map[string]struct{}),
		modifiedProposals: make(map[uint64]struct{}),
	}
	s.header.Status = types.RegisteringVoters
	s.header.MaxSubmissions = types.DefaultMaxSubmissions
	return s
}

func (s *State) Clone() *State {
	n := &State{
		logger:            s.logger,
		db:                s.db,
		dbVer:             s.dbVer,
		header:            s.header.clone(),
		voters:            make(map[string]*types.Voter, len(s.voters)),
		proposals:         make([]*types.Proposal, len(s.proposals)),
		modifiedVoters:    make(map[string]struct{}, len(s.modifiedVoters)),
		modifiedProposals: make(map[uint64]struct{}, len(s.modifiedProposals)),
	}
	for k, v := range s.voters {
		n.voters[k] = v
	}
	copy(n.proposals, s.proposals)
	for k := range s.modifiedVoters {
		n.modifiedVoters[k] = struct{}{}
	}
	for k := range s.modifiedProposals {
		n.modifiedProposals[k] = struct{}{}
	}
	return n
}

func isNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil && !isNotFound(err) {
		return err
	}
	if val == nil {
		return nil
	}
	if err = rlp.DecodeBytes(val, s.header); err != nil {
		return fmt.Errorf("decode state header: %w", err)
	}
	if h := s.db.Hash(); h != nil {
		s.calcHash(h, true)
	}

	err = s.iterate(PrefixVoter, func(_, value []byte) error {
		v := new(types.Voter)
		if err := json.Unmarshal(value, v); err != nil {
			return err
		}
		s.voters[v.Address] = v
		return nil
	})
	if err != nil {
		return fmt.Errorf("load voters: %w", err)
	}

	err = s.iterate(PrefixProposal, func(_, value []byte) error {
		p := new(types.Proposal)
		if err := json.Unmarshal(value, p); err != nil {
			return err
		}
		if p.Index != uint64(len(s.proposals)) {
			return fmt.Errorf("proposal index gap at %d", p.Index)
		}
		s.proposals = append(s.proposals, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load proposals: %w", err)
	}
	s.logger.Info("state loaded", "height", s.header.Height, "status", s.header.Status,
		"voters", len(s.voters), "proposals", len(s.proposals))
	return nil
}

func (s *State) iterate(prefix []byte, fn func(key, value []byte) error) error {
	itr, err := s.db.Iterator(prefix, PrefixEndBytes(prefix), true)
	if err != nil {
		return err
	}
	defer itr.Close()
	for ; itr.Valid(); itr.Next() {
		if err = fn(itr.Key(), itr.Value()); err != nil {
			return err
		}
	}
	return itr.Error()
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

// Update writes the header and every modified record into the working tree
// and returns the resulting app hash. The tree is rolled back on failure.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	addrs := make([]string, 0, len(s.modifiedVoters))
	for addr := range s.modifiedVoters {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		val, err = json.Marshal(s.voters[addr])
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(fmt.Sprintf(KeyVoterBody, addr)), val)
		if err != nil {
			return
		}
	}

	idxs := make([]uint64, 0, len(s.modifiedProposals))
	for idx := range s.modifiedProposals {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool {
		return idxs[i] < idxs[j]
	})
	for _, idx := range idxs {
		val, err = json.Marshal(s.proposals[idx])
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(fmt.Sprintf(KeyProposalBody, idx)), val)
		if err != nil {
			return
		}
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedVoters = make(map[string]struct{})
	s.modifiedProposals = make(map[uint64]struct{})
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

// InitGenesis installs the administrator and the submission cap. The admin
// gets a signer record so that its transactions carry a nonce.
func (s *State) InitGenesis(chainId string, adminPubKey []byte, maxSubmissions uint64) error {
	if !validPubKey(adminPubKey) {
		return ErrInvalidPubKey
	}
	s.header.ChainId = chainId
	s.header.Admin = AddressOf(adminPubKey)
	if maxSubmissions == 0 {
		maxSubmissions = types.DefaultMaxSubmissions
	}
	s.header.MaxSubmissions = maxSubmissions
	if _, ok := s.voters[s.header.Admin]; !ok {
		s.setVoter(&types.Voter{
			Address: s.header.Admin,
			PubKey:  common.CopyBytes(adminPubKey),
		})
	}
	return nil
}

func (s *State) SetHeight(height uint64) {
	s.header.Height = height
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) Admin() string {
	return s.header.Admin
}

func (s *State) setVoter(v *types.Voter) {
	s.journalVoter(v.Address)
	s.voters[v.Address] = v
	s.modifiedVoters[v.Address] = struct{}{}
}

// Verify authenticates a transaction against the sender's signer record.
func (s *State) Verify(btx *tx.BallotTx, allowNonceGap bool) (succ bool, err error) {
	v, ok := s.voters[btx.Sender]
	if !ok {
		err = fmt.Errorf("%w: unknown sender %s", ErrNotAuthorized, btx.Sender)
		return
	}
	if !(v.Nonce == btx.Nonce || (allowNonceGap && v.Nonce < btx.Nonce)) {
		err = fmt.Errorf("%w: expected %d got %d", ErrTxNonceInvalid, v.Nonce, btx.Nonce)
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = verifySignature(v.PubKey, dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) setProposal(p *types.Proposal) {
	s.journalProposal(p.Index)
	if p.Index == uint64(len(s.proposals)) {
		s.proposals = append(s.proposals, p)
	} else {
		s.proposals[p.Index] = p
	}
	s.modifiedProposals[p.Index] = struct{}{}
}

// Nonce returns the next nonce expected from sender.
func (s *State) Nonce(sender string) uint64 {
	v, ok := s.voters[sender]
	if !ok {
		return 0
	}
	return v.Nonce
}

// IncNonce consumes the sender's nonce once its transaction has been
// executed, whether or not the operation succeeded.
func (s *State) IncNonce(sender string) {
	v, ok := s.voters[sender]
	if !ok {
		return
	}
	v = v.Clone()
	v.Nonce += 1
	s.setVoter(v)
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
