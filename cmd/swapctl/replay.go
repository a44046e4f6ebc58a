package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CrossflowLabs/swapflow-lib/canonical"
	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
	"github.com/CrossflowLabs/swapflow-lib/orchestrator"
	"github.com/CrossflowLabs/swapflow-lib/quoter"
	"github.com/CrossflowLabs/swapflow-lib/signer"
)

var (
	replayDeposit string
	replayCount   int
)

var replayCmd = &cobra.Command{
	Use:   "replay <amount> <pay-token> to <receive-token>",
	Short: "Submit one signed payload repeatedly and report the split",
	Long: `Build and sign a single operation payload, submit the source-ledger
transfer once, then submit the identical payload to the backend several
times. A correct backend accepts the authorization exactly once and rejects
every replay as a duplicate.

Examples:
  swapctl replay 1000000 SOL to USDC --deposit <backend-deposit-address>
  swapctl replay 1000000 SOL to USDC --deposit <addr> --count 5`,
	Args: cobra.ExactArgs(4),
	Run:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayDeposit, "deposit", "", "Backend deposit address on the source chain (required)")
	replayCmd.Flags().IntVar(&replayCount, "count", 3, "Number of identical submissions")
	_ = replayCmd.MarkFlagRequired("deposit")
}

func runReplay(cmd *cobra.Command, args []string) {
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

	chain := registry.Get(h.cfg.ChainID)
	if chain == nil {
		printError(fmt.Errorf("chain %d not registered", h.cfg.ChainID))
		os.Exit(1)
	}

	s := chain.Signer()
	if s.Capability() != types.CapSignArbitraryMessage {
		printError(fmt.Errorf("replay needs a chain with arbitrary-message signing, %s cannot", h.cfg.ChainName))
		os.Exit(1)
	}

	ctx := cmd.Context()

	quote, err := quoter.New(h.gateway, h.logger).Quote(ctx, payToken, amountStr, receiveToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	receiveAmount, err := strconv.ParseUint(quote.ReceiveAmount, 10, 64)
	if err != nil {
		printError(fmt.Errorf("invalid receive amount in quote: %v", err))
		os.Exit(1)
	}

	message := &types.CanonicalMessage{
		PayToken:       payToken,
		PayAmount:      amount,
		PayAddress:     chain.PayerAddress(),
		ReceiveToken:   receiveToken,
		ReceiveAmount:  receiveAmount,
		ReceiveAddress: chain.PayerAddress(),
		MaxSlippage:    0.5,
		Timestamp:      time.Now().UnixMilli(),
	}

	signature, err := signer.SignWithRetry(ctx, s, canonical.Build(message), h.logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	transfer, err := chain.SubmitTransfer(ctx, &types.TransferIntent{
		Token:     payToken,
		Amount:    new(big.Int).SetUint64(amount),
		Recipient: replayDeposit,
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	fmt.Printf("\nTransfer submitted: %s\n", color.CyanString(transfer.Ref.String()))
	fmt.Printf("Submitting the identical payload %d times...\n\n", replayCount)

	timestamp := message.Timestamp
	slippage := message.MaxSlippage
	request := &types.OperationRequest{
		Operation:     types.OpSwap,
		PayToken:      payToken,
		PayAmount:     strconv.FormatUint(amount, 10),
		ReceiveToken:  receiveToken,
		ReceiveAmount: strconv.FormatUint(receiveAmount, 10),
		PayTxRef:      transfer.Ref,
		Signature:     &signature,
		Timestamp:     &timestamp,
		MaxSlippage:   &slippage,
	}

	var accepted, duplicates, other int
	for i := 1; i <= replayCount; i++ {
		retrier := orchestrator.NewRetryClient(0, 0, nil, h.logger)
		requestID, err := retrier.Submit(ctx, func(ctx context.Context) (string, error) {
			return h.gateway.SubmitAsync(ctx, request)
		})

		switch {
		case err == nil:
			accepted++
			fmt.Printf("  %d. %s request %s\n", i, color.GreenString("accepted"), requestID)
		case commonerrors.Classify(err) == commonerrors.KindDuplicateAuthorization:
			duplicates++
			fmt.Printf("  %d. %s\n", i, color.YellowString("rejected as duplicate"))
		default:
			other++
			fmt.Printf("  %d. %s %v\n", i, color.RedString("error:"), err)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("  Accepted: %d   Duplicates: %d   Other: %d\n", accepted, duplicates, other)
	if accepted == 1 && duplicates == replayCount-1 {
		color.Green("  Backend enforces single-use authorizations.")
	} else {
		color.Red("  Unexpected split, single-use enforcement is suspect.")
	}
	fmt.Println(strings.Repeat("=", 60) + "\n")
}
