package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/ballot-app/app"
	app_config "github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/indexer"
	"github.com/calehh/ballot-app/types"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "ballot",
	Short: "ballot is a permissioned voting ledger",
	Long: `A permissioned voting ledger replicated by CometBFT.
The administrator whitelists voters and drives the workflow,
voters submit proposals and cast one vote each.`,
	SilenceUsage: true,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the ballot node",
	Args:  cobra.NoArgs,
	RunE:  startRun,
}

func init() {
	startCmd.Flags().StringP(types.FlagHome, "d", "", "home directory")
}

func loadConfig(home string) (*app_config.Config, error) {
	appConfig := app_config.DefaultConfig(home)
	appConfig.SetRoot(appConfig.RootDir)

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("%s/%s", appConfig.RootDir, "config/config.toml"))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	v.SetConfigFile(appConfig.AppConfigFile())
	if err := v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("reading app config: %w", err)
	}
	if err := v.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	appConfig.SetRoot(appConfig.RootDir)
	if err := appConfig.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return appConfig, nil
}

func startRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	appConfig, err := loadConfig(home)
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		return fmt.Errorf("failed to load node's key: %w", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	ballotApp, err := app.NewBallotApp(appConfig.App, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(ballotApp),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}

	ballotApp.Start(node.BlockStore())
	if err = node.Start(); err != nil {
		return fmt.Errorf("start comet node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if appConfig.App.IndexerEnable {
		if err := startIndexer(ctx, appConfig, logger); err != nil {
			logger.Error("indexer not started", "err", err)
		}
	}

	defer func() {
		logger.Info("shutting down")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := node.Stop(); err != nil {
				logger.Error("stop comet node fail", "err", err)
			}
			node.Wait()
			ballotApp.Stop()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	return nil
}

func startIndexer(ctx context.Context, appConfig *app_config.Config, logger cmtlog.Logger) error {
	rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
	if err != nil {
		return err
	}
	rpcUrl.Scheme = "http"
	cli, err := comethttp.New(rpcUrl.String(), "/websocket")
	if err != nil {
		return err
	}
	db, err := indexer.OpenDB(appConfig.App.IndexerDBFile())
	if err != nil {
		return err
	}
	idx, err := indexer.NewChainIndexer(logger, db, cli, appConfig.App.IndexerPollInterval)
	if err != nil {
		db.Close()
		return err
	}
	go func() {
		idx.Start(ctx)
		if err := idx.Close(); err != nil {
			logger.Error("close indexer db fail", "err", err)
		}
	}()
	svc := indexer.NewService(appConfig.App.IndexerListen, idx, logger)
	go func() {
		if err := svc.Start(ctx); err != nil {
			logger.Error("indexer service stopped", "err", err)
		}
	}()
	return nil
}
