package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const (
	DefaultIndexerListen = "127.0.0.1:8088"
	DefaultIndexerDB     = "data/indexer.db"
	DefaultPollInterval  = time.Second * 2
)

// BallotAppConfig is the [app] section of app.toml.
type BallotAppConfig struct {
	Home string `mapstructure:"-"`

	IndexerEnable       bool          `mapstructure:"indexer_enable"`
	IndexerListen       string        `mapstructure:"indexer_listen"`
	IndexerDB           string        `mapstructure:"indexer_db"`
	IndexerPollInterval time.Duration `mapstructure:"indexer_poll_interval"`
}

func NewBallotAppConfig(home string) *BallotAppConfig {
	return &BallotAppConfig{
		Home:                home,
		IndexerEnable:       false,
		IndexerListen:       DefaultIndexerListen,
		IndexerDB:           DefaultIndexerDB,
		IndexerPollInterval: DefaultPollInterval,
	}
}

// DataDir is where the ledger tree lives.
func (c *BallotAppConfig) DataDir() string {
	return filepath.Join(c.Home, "data")
}

// IndexerDBFile resolves IndexerDB against the home directory.
func (c *BallotAppConfig) IndexerDBFile() string {
	if filepath.IsAbs(c.IndexerDB) {
		return c.IndexerDB
	}
	return filepath.Join(c.Home, c.IndexerDB)
}

func (c *BallotAppConfig) ValidateBasic() error {
	if !c.IndexerEnable {
		return nil
	}
	if c.IndexerListen == "" {
		return errors.New("indexer_listen can't be empty")
	}
	if c.IndexerDB == "" {
		return errors.New("indexer_db can't be empty")
	}
	if c.IndexerPollInterval <= 0 {
		return errors.New("indexer_poll_interval must be positive")
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *BallotAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.ballot")
	}
	config := &Config{
		DefaultBallotCometConfig(),
		NewBallotAppConfig(home),
	}
	config.RootDir = home
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func (c *Config) SetRoot(home string) *Config {
	c.Config.SetRoot(home)
	c.App.Home = home
	return c
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	if err := c.App.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [app] section: %w", err)
	}
	return nil
}

// AppConfigFile is the path of app.toml next to config.toml.
func (c *Config) AppConfigFile() string {
	return filepath.Join(c.RootDir, "config", "app.toml")
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultBallotCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	cometConfig.Instrumentation.Prometheus = true
	return cometConfig
}
