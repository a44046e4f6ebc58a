package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CrossflowLabs/swapflow-lib/quoter"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <pay-token> to <receive-token>",
	Short: "Fetch a quote for a swap",
	Long: `Fetch the expected outcome of a swap without committing anything.
Amounts are given in the pay token's smallest unit.

Examples:
  swapctl quote 1000000 SOL to USDC
  swapctl quote 2500000 USDC to SOL --json`,
	Args: cobra.ExactArgs(4),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

// parseSwapArgs parses the "<amount> <pay-token> to <receive-token>" argument
// form shared by quote, swap and replay.
func parseSwapArgs(args []string) (amount, payToken, receiveToken string, err error) {
	if len(args) != 4 || !strings.EqualFold(args[2], "to") {
		return "", "", "", fmt.Errorf("expected: <amount> <pay-token> to <receive-token>")
	}
	return args[0], strings.ToUpper(args[1]), strings.ToUpper(args[3]), nil
}

func runQuote(cmd *cobra.Command, args []string) {
	amount, payToken, receiveToken, err := parseSwapArgs(args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	h, err := newHarness(verbose)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, err := quoter.New(h.gateway, h.logger).Quote(cmd.Context(), payToken, amount, receiveToken)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                        QUOTE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Pay:       %s %s\n", quote.PayAmount, color.CyanString(quote.PayToken))
	fmt.Printf("  Receive:   %s %s\n", quote.ReceiveAmount, color.CyanString(quote.ReceiveToken))
	fmt.Printf("  Mid Price: %s\n", quote.MidPrice)
	fmt.Printf("  Price:     %s\n", quote.Price)
	fmt.Printf("  Slippage:  %.2f%%\n", quote.Slippage)

	fees, err := quoter.FeeBreakdown(quote)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if len(fees) > 0 {
		fmt.Println("\n  Fees per hop:")
		for _, fee := range fees {
			fmt.Printf("    %-12s lp %s %s, gas %s %s\n",
				fee.PoolSymbol, fee.LpFee.String(), fee.Token, fee.GasFee.String(), fee.Token)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
