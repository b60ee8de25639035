package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	app_config "github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long:  `Initialize validators's and node's configuration files.`,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().StringP(types.FlagHome, "d", "", "home directory")
	initCmd.Flags().String(types.FlagAdmin, "", "hex ed25519 public key of the administrator, defaults to the validator key")
	initCmd.Flags().Uint64(types.FlagMaxSubmit, types.DefaultMaxSubmissions, "proposals each voter may submit")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	admin, _ := cmd.Flags().GetString(types.FlagAdmin)
	maxSubmit, _ := cmd.Flags().GetUint64(types.FlagMaxSubmit)

	if chainID == "" {
		chainID = fmt.Sprintf("ballot-chain-%v", rand.Uint64())
	}
	appConfig := app_config.DefaultConfig(home)

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	if admin == "" {
		admin = hex.EncodeToString(pk.Bytes())
	}

	genFile := appConfig.GenesisFile()
	if _, err := os.Stat(genFile); err == nil && !overwrite {
		return fmt.Errorf("genesis file %v already exists, use --%s", genFile, types.FlagOverwrite)
	}
	appState, err := json.Marshal(&types.BallotGenesis{
		AdminPubKey:    admin,
		MaxSubmissions: maxSubmit,
	})
	if err != nil {
		return err
	}
	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators: []types.GenesisValidator{
			{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower},
		},
		AppState: appState,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file %v", err)
	}
	app_config.WriteConfigFile(appConfig)
	return displayInfo(printInfo{ChainID: chainID, NodeID: nodeID, AppMessage: appGenesis.AppState})
}
