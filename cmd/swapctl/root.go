package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CrossflowLabs/swapflow-lib/backend"
	"github.com/CrossflowLabs/swapflow-lib/chainmanager"
	"github.com/CrossflowLabs/swapflow-lib/chains"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
	"github.com/CrossflowLabs/swapflow-lib/config"
	"github.com/CrossflowLabs/swapflow-lib/dbconfig"
	"github.com/CrossflowLabs/swapflow-lib/orchestrator"
)

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "A CLI for cross-chain swaps through the swapflow backend",
	Long: `swapctl is a manual harness over the swapflow library. It quotes,
executes and inspects cross-chain swap operations against a configured
backend and source chain.

Examples:
  swapctl quote 1000000 SOL to USDC
  swapctl swap 1000000 SOL to USDC --deposit <address> --slippage 0.5
  swapctl status <request-id>
  swapctl replay 1000000 SOL to USDC --deposit <address>`,
	Version: "0.1.0",
}

func execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\n%s %v\n\n", color.RedString("Error:"), err)
}

// harness bundles the library pieces every command needs.
type harness struct {
	cfg     *config.Config
	logger  *logrus.Logger
	gateway backend.Gateway
}

func newHarness(verbose bool) (*harness, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	gateway, err := backend.NewHTTPGateway(cfg.BackendURL, logger)
	if err != nil {
		return nil, err
	}

	return &harness{cfg: cfg, logger: logger, gateway: gateway}, nil
}

// registry builds a chain registry holding the single configured source
// chain.
func (h *harness) registry(cmd *cobra.Command) (types.ChainRegistry, error) {
	registry := chainmanager.NewChainRegistry(chains.NewChainFactory(), h.logger)
	if err := registry.Add(cmd.Context(), h.cfg.ChainConfig()); err != nil {
		return nil, err
	}
	return registry, nil
}

// refresher builds the balance-refresh collaborator when a database is
// configured. A nil refresher disables the side effect.
func (h *harness) refresher(registry types.ChainRegistry) (orchestrator.BalanceRefresher, error) {
	if h.cfg.DatabaseURL == "" {
		return nil, nil
	}

	store, err := dbconfig.NewDBConfig(h.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return dbconfig.NewBalanceRefresher(store, registry, h.logger), nil
}
