package solana

import (
	"context"
	"encoding/base64"

	sol "github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/chains/solana/utils"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

const (
	// defaultComputeUnits is used when simulation is unavailable.
	defaultComputeUnits = 200_000
	// computeUnitBuffer is the percentage applied on top of simulated units.
	computeUnitBuffer = 120
	// defaultPriorityFee is the fallback compute unit price in micro-lamports.
	defaultPriorityFee = 1_000
)

// SubmitTransfer sends an asset to a recipient address on the chain. The
// returned transfer carries the transaction signature as its reference; the
// signature exists as soon as the transaction is accepted for processing,
// before deep confirmation.
func (s *solana) SubmitTransfer(ctx context.Context, intent *types.TransferIntent) (*types.Transfer, error) {
	key, err := s.signerKey()
	if err != nil {
		return nil, err
	}

	recipientPubKey, err := sol.PublicKeyFromBase58(intent.Recipient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse recipient address")
	}

	// Get recent blockhash
	latestBlockhashResult, err := s.rpcClient().GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest blockhash")
	}
	latestBlockhash := latestBlockhashResult.Value.Blockhash

	// Create instructions
	instructions, err := s.createTransferInstructions(ctx, intent, latestBlockhash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create instructions")
	}

	// Estimate transaction cost
	cost, err := s.estimateTransactionCost(ctx, instructions, key, latestBlockhash)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to estimate transaction cost")
	} else {
		s.logger.WithFields(logrus.Fields{
			"cost":      cost,
			"costInSol": utils.LamportsToSol(cost),
		}).Info("Transaction cost estimated")
	}

	// Send transaction
	sig, err := s.sendTransaction(ctx, instructions, latestBlockhash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send transaction")
	}

	return &types.Transfer{
		Ref:     types.NewTransactionIDRef(sig.String()),
		From:    key.PublicKey().String(),
		To:      recipientPubKey.String(),
		Token:   intent.Token,
		Amount:  intent.Amount.String(),
		ChainID: s.config.ChainID,
	}, nil
}

func (s *solana) createTransferInstructions(ctx context.Context, intent *types.TransferIntent, latestBlockHash sol.Hash) ([]sol.Instruction, error) {
	// Native SOL transfers use the system program; everything else is an
	// SPL token transfer.
	if intent.Token == "" || intent.Token == sol.SystemProgramID.String() {
		return s.createNativeTransferInstructions(ctx, intent)
	}
	return s.createTokenTransferInstructions(ctx, intent, latestBlockHash)
}

func (s *solana) createNativeTransferInstructions(ctx context.Context, intent *types.TransferIntent) ([]sol.Instruction, error) {
	key, err := s.signerKey()
	if err != nil {
		return nil, err
	}

	recipientPubKey, err := sol.PublicKeyFromBase58(intent.Recipient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse recipient address")
	}

	amount := intent.Amount.Uint64()

	if err := s.checkSufficientBalance(ctx, key.PublicKey(), amount, true); err != nil {
		return nil, errors.Wrap(err, "failed to check balance")
	}

	instructions := []sol.Instruction{
		system.NewTransferInstruction(amount, key.PublicKey(), recipientPubKey).Build(),
	}

	if intent.Memo != "" {
		instructions = append(instructions, utils.CreateMemoInstruction(intent.Memo))
	}

	return instructions, nil
}

func (s *solana) createTokenTransferInstructions(ctx context.Context, intent *types.TransferIntent, latestBlockHash sol.Hash) ([]sol.Instruction, error) {
	key, err := s.signerKey()
	if err != nil {
		return nil, err
	}

	amount := intent.Amount.Uint64()
	tokenPubKey, err := sol.PublicKeyFromBase58(intent.Token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token address")
	}
	recipientPubKey, err := sol.PublicKeyFromBase58(intent.Recipient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse recipient address")
	}
	payerPubKey := key.PublicKey()

	// Initialize base instructions
	basicInstructions := make([]sol.Instruction, 0)

	// Check ATA and create if needed
	recipientCreateATAInstruction, err := s.checkAndCreateATAInstructionIfNotExist(
		ctx,
		payerPubKey,
		tokenPubKey,
		recipientPubKey,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check and create ATA instruction")
	}

	// Append instruction if it exists
	if recipientCreateATAInstruction != nil {
		basicInstructions = append(basicInstructions, recipientCreateATAInstruction)
	}

	// Get ATAs
	sourceATA, err := utils.GetAssociatedTokenAddress(tokenPubKey, payerPubKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get associated token address for payer")
	}
	destATA, err := utils.GetAssociatedTokenAddress(tokenPubKey, recipientPubKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get associated token address for recipient")
	}

	// Check source balance
	if err := s.checkSufficientBalance(ctx, sourceATA, amount, false); err != nil {
		return nil, errors.Wrap(err, "failed to check balance")
	}

	// Create transfer instruction
	transferInstruction := utils.CreateTransferInstruction(
		sourceATA,
		destATA,
		payerPubKey,
		amount,
	)
	basicInstructions = append(basicInstructions, transferInstruction)

	// Add memo instruction
	if intent.Memo != "" {
		basicInstructions = append(basicInstructions, utils.CreateMemoInstruction(intent.Memo))
	}

	// Simulate transaction to get compute units
	computeUnits, err := utils.SimulateTransaction(ctx, s.rpcClient(), key, basicInstructions, latestBlockHash)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to simulate transaction, using default compute units")
		computeUnits = defaultComputeUnits
	}

	// Add buffer to compute units
	computeUnits = (computeUnits * computeUnitBuffer) / 100
	s.logger.WithField("computeUnits", computeUnits).Debug("Computed units with buffer")

	// Get priority fee
	priorityFee := s.getPriorityFee(ctx)
	s.logger.WithFields(logrus.Fields{
		"priorityFee": priorityFee,
		"totalFee":    priorityFee * computeUnits,
	}).Debug("Priority fee details")

	// Create final instructions with compute budget
	finalInstructions := make([]sol.Instruction, 0)

	// Add compute unit limit instruction
	setComputeUnitLimitIx, err := computebudget.NewSetComputeUnitLimitInstruction(uint32(computeUnits)).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create compute unit limit instruction")
	}
	finalInstructions = append(finalInstructions, setComputeUnitLimitIx)

	// Add priority fee instruction
	setPriorityFeeIx, err := computebudget.NewSetComputeUnitPriceInstruction(priorityFee).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create priority fee instruction")
	}
	finalInstructions = append(finalInstructions, setPriorityFeeIx)

	// Add all basic instructions
	finalInstructions = append(finalInstructions, basicInstructions...)

	return finalInstructions, nil
}

// checkAndCreateATAInstructionIfNotExist returns the instruction to create an associated token account if it doesn't exist
func (s *solana) checkAndCreateATAInstructionIfNotExist(
	ctx context.Context,
	payer sol.PublicKey,
	mint sol.PublicKey,
	owner sol.PublicKey,
) (sol.Instruction, error) {
	addr, err := utils.GetAssociatedTokenAddress(mint, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get associated token address")
	}

	// Check if account exists
	acc, err := s.rpcClient().GetAccountInfo(ctx, addr)
	if err != nil && err.Error() != "not found" { // skip not found error
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if acc == nil {
		// Return associated token account if it doesn't exist
		instruction := utils.CreateAssociatedTokenAccountInstruction(
			payer,
			addr,
			owner,
			mint,
			sol.SPLAssociatedTokenAccountProgramID,
			sol.TokenProgramID,
		)

		return instruction, nil
	}

	return nil, nil
}

// getPriorityFee returns the compute unit price to attach, taken from recent
// prioritization fees when the node reports them.
func (s *solana) getPriorityFee(ctx context.Context) uint64 {
	fees, err := s.rpcClient().GetRecentPrioritizationFees(ctx, nil)
	if err != nil || len(fees) == 0 {
		return defaultPriorityFee
	}

	var max uint64
	for _, fee := range fees {
		if fee.PrioritizationFee > max {
			max = fee.PrioritizationFee
		}
	}
	if max == 0 {
		return defaultPriorityFee
	}
	return max
}

// estimateTransactionCost returns the base fee in lamports for the assembled message.
func (s *solana) estimateTransactionCost(
	ctx context.Context,
	instructions []sol.Instruction,
	key sol.PrivateKey,
	recentBlockHash sol.Hash,
) (uint64, error) {
	tx, err := sol.NewTransaction(
		instructions,
		recentBlockHash,
		sol.TransactionPayer(key.PublicKey()),
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create transaction")
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, errors.Wrap(err, "failed to serialize message")
	}

	result, err := s.rpcClient().GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(messageBytes), rpc.CommitmentFinalized)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get fee for message")
	}
	if result.Value == nil {
		return 0, errors.New("no fee returned for message")
	}

	return *result.Value, nil
}

// sendTransaction sends a transaction with multiple instructions
func (s *solana) sendTransaction(
	ctx context.Context,
	instructions []sol.Instruction,
	recentBlockHash sol.Hash,
) (sol.Signature, error) {
	key, err := s.signerKey()
	if err != nil {
		return sol.Signature{}, err
	}

	tx, err := sol.NewTransaction(
		instructions,
		recentBlockHash,
		sol.TransactionPayer(key.PublicKey()),
	)
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "failed to create transaction")
	}

	// Sign the transaction
	_, err = tx.Sign(func(pub sol.PublicKey) *sol.PrivateKey {
		if key.PublicKey().Equals(pub) {
			return &key
		}

		return nil
	})
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}

	// Send transaction
	sig, err := s.rpcClient().SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "failed to send transaction")
	}

	return sig, nil
}
