package solana

import (
	"context"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/chains/solana/utils"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// confirmationPollInterval is the delay between signature status checks.
const confirmationPollInterval = 2 * time.Second

// WaitTransferConfirmation polls the signature status until the transfer is
// finalized or has accumulated the configured number of confirmations.
//
// Parameters:
// - ctx: the context bounding the wait.
// - transfer: the transfer to confirm; its reference must carry a transaction id.
//
// Returns:
// - bool: true if the transfer settled successfully, false if it failed on chain.
// - error: an error if the status cannot be determined before ctx expires.
func (s *solana) WaitTransferConfirmation(ctx context.Context, transfer *types.Transfer) (bool, error) {
	if transfer.Ref == nil || transfer.Ref.TransactionID == nil {
		return false, errors.New("transfer has no transaction id reference")
	}

	sig, err := sol.SignatureFromBase58(*transfer.Ref.TransactionID)
	if err != nil {
		return false, errors.Wrap(err, "failed to parse transaction signature")
	}

	ticker := time.NewTicker(confirmationPollInterval)
	defer ticker.Stop()

	for {
		confirmed, failed, err := s.checkSignatureStatus(ctx, sig)
		if err != nil {
			s.logger.WithError(err).WithField("signature", sig.String()).
				Warn("Failed to check signature status")
		}

		if failed {
			return false, nil
		}

		if confirmed {
			return s.verifyTransferOutcome(ctx, sig)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// checkSignatureStatus reports whether the signature has enough
// confirmations and whether it failed on chain.
func (s *solana) checkSignatureStatus(ctx context.Context, sig sol.Signature) (confirmed bool, failed bool, err error) {
	statuses, err := s.rpcClient().GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return false, false, errors.Wrap(err, "failed to get signature statuses")
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return false, false, nil
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return false, true, nil
	}

	if status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
		return true, false, nil
	}
	if status.Confirmations != nil && *status.Confirmations >= s.config.WaitNBlocks {
		return true, false, nil
	}

	return false, false, nil
}

// verifyTransferOutcome fetches the parsed transaction once it is confirmed
// and inspects its meta for an execution error.
func (s *solana) verifyTransferOutcome(ctx context.Context, sig sol.Signature) (bool, error) {
	result, err := utils.GetParsedTransaction(ctx, s.rpcClient(), sig, &utils.GetParsedTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: 0,
	})
	if err != nil {
		// Confirmation already observed via signature status; the parsed
		// fetch only adds the execution result.
		s.logger.WithError(err).WithField("signature", sig.String()).
			Warn("Failed to fetch parsed transaction")
		return true, nil
	}

	if result.Meta != nil && result.Meta.Err != nil {
		s.logger.WithFields(logrus.Fields{
			"signature": sig.String(),
			"err":       result.Meta.Err,
		}).Warn("Transfer failed on chain")
		return false, nil
	}

	if memo := utils.ExtractMemoFromLogs(result.Meta); memo != "" {
		s.logger.WithFields(logrus.Fields{
			"signature": sig.String(),
			"memo":      memo,
		}).Debug("Transfer memo recovered")
	}

	return true, nil
}
