package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// BallotGenesis is the app_state section of the genesis file.
type BallotGenesis struct {
	// AdminPubKey is the hex encoded ed25519 key of the administrator. When
	// empty the first genesis validator becomes the administrator.
	AdminPubKey    string `json:"admin_pub_key"`
	MaxSubmissions uint64 `json:"max_submissions"`
}

func DefaultBallotGenesis() *BallotGenesis {
	return &BallotGenesis{
		MaxSubmissions: DefaultMaxSubmissions,
	}
}

func ParseBallotGenesis(dat []byte) (*BallotGenesis, error) {
	g := DefaultBallotGenesis()
	if len(dat) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(dat, g); err != nil {
		return nil, err
	}
	if g.MaxSubmissions == 0 {
		g.MaxSubmissions = DefaultMaxSubmissions
	}
	return g, nil
}

func (g *BallotGenesis) AdminKey() ([]byte, error) {
	if g.AdminPubKey == "" {
		return nil, nil
	}
	pk, err := hex.DecodeString(g.AdminPubKey)
	if err != nil {
		return nil, fmt.Errorf("invalid admin_pub_key: %w", err)
	}
	if len(pk) != ed25519.PubKeySize {
		return nil, fmt.Errorf("invalid admin_pub_key length %d", len(pk))
	}
	return pk, nil
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	if len(ag.AppState) != 0 {
		g, err := ParseBallotGenesis(ag.AppState)
		if err != nil {
			return fmt.Errorf("invalid app_state: %w", err)
		}
		if _, err = g.AdminKey(); err != nil {
			return err
		}
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const BallotModuleName = "ballot"
const DefaultPower = 1000
