package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CrossflowLabs/swapflow-lib/orchestrator"
)

var (
	depositAddr   string
	recipientAddr string
	maxSlippage   float64
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <pay-token> to <receive-token>",
	Short: "Execute a swap end to end",
	Long: `Execute a complete swap: quote, sign the authorization with the
configured key, submit the source-ledger transfer, submit the operation to
the backend and poll it to a terminal outcome.

Amounts are given in the pay token's smallest unit. The source chain comes
from the harness configuration.

Examples:
  swapctl swap 1000000 SOL to USDC --deposit <backend-deposit-address>
  swapctl swap 1000000 SOL to USDC --deposit <addr> --recipient <addr> --slippage 0.5`,
	Args: cobra.ExactArgs(4),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&depositAddr, "deposit", "", "Backend deposit address on the source chain (required)")
	swapCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Receive address (defaults to the payer address)")
	swapCmd.Flags().Float64Var(&maxSlippage, "slippage", 0.5, "Maximum tolerated slippage in percent")
	_ = swapCmd.MarkFlagRequired("deposit")
}

func runSwap(cmd *cobra.Command, args []string) {
	amountStr, payToken, receiveToken, err := parseSwapArgs(args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		printError(fmt.Errorf("invalid amount %q: %v", amountStr, err))
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	h, err := newHarness(verbose)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registry, err := h.registry(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	refresher, err := h.refresher(registry)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	params := &orchestrator.Params{
		SourceChainID:  h.cfg.ChainID,
		PayToken:       payToken,
		PayAmount:      amount,
		ReceiveToken:   receiveToken,
		ReceiveAddress: recipientAddr,
		DepositAddress: depositAddr,
		MaxSlippage:    maxSlippage,
	}

	if !jsonOutput {
		params.OnRetryProgress = func(attempt, maxAttempts int) {
			fmt.Printf("  %s backend not ready, retrying (%d/%d)\n",
				color.YellowString("..."), attempt, maxAttempts)
		}
		params.OnStatus = func(status string) {
			fmt.Printf("  %s %s\n", color.HiBlackString("status:"), status)
		}
	}

	outcome, err := orchestrator.New(h.gateway, registry, refresher, h.logger).Execute(cmd.Context(), params)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(data))
		if outcome.State != orchestrator.OutcomeSuccess {
			os.Exit(1)
		}
		return
	}

	printOutcome(outcome)
	if outcome.State != orchestrator.OutcomeSuccess {
		os.Exit(1)
	}
}

func printOutcome(outcome *orchestrator.Outcome) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	switch outcome.State {
	case orchestrator.OutcomeSuccess:
		color.Green("                    SWAP SUCCEEDED")
	case orchestrator.OutcomeFailed:
		color.Red("                     SWAP FAILED")
	default:
		color.Yellow("                   SWAP TIMED OUT")
	}
	fmt.Println(strings.Repeat("=", 60))

	if outcome.Reply != nil {
		fmt.Printf("\n  Request:  %s\n", color.CyanString(outcome.Reply.RequestID))
		fmt.Printf("  Paid:     %s %s\n", outcome.Reply.PayAmount, outcome.Reply.PayToken)
		fmt.Printf("  Received: %s %s\n", outcome.Reply.ReceiveAmount, outcome.Reply.ReceiveToken)
		for _, txID := range outcome.Reply.TxIDs {
			fmt.Printf("  Tx:       %s\n", color.HiBlackString(txID))
		}
	}
	if outcome.FailedStatus != "" {
		fmt.Printf("\n  Failed with status: %s\n", color.RedString(outcome.FailedStatus))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
