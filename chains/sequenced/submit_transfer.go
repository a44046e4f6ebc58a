package sequenced

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// SubmitTransfer applies the transfer on the ledger. The call is synchronous:
// when it returns without error the transfer is already settled, and the
// returned reference carries the block index it was recorded at.
func (s *sequenced) SubmitTransfer(ctx context.Context, intent *types.TransferIntent) (*types.Transfer, error) {
	blockIndex, err := s.ledgerClient().Transfer(ctx, &TransferRequest{
		To:     intent.Recipient,
		Token:  intent.Token,
		Amount: intent.Amount.String(),
		Memo:   intent.Memo,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ledger transfer failed")
	}

	s.logger.WithFields(logrus.Fields{
		"blockIndex": blockIndex,
		"token":      intent.Token,
		"amount":     intent.Amount.String(),
	}).Info("Ledger transfer recorded")

	return &types.Transfer{
		Ref:     types.NewBlockIndexRef(blockIndex),
		From:    s.config.PayerAddress,
		To:      intent.Recipient,
		Token:   intent.Token,
		Amount:  intent.Amount.String(),
		ChainID: s.config.ChainID,
	}, nil
}

// WaitTransferConfirmation reports settlement for a recorded transfer. The
// ledger is deterministic, so a transfer that produced a block index is
// already final.
func (s *sequenced) WaitTransferConfirmation(ctx context.Context, transfer *types.Transfer) (bool, error) {
	if transfer.Ref == nil || transfer.Ref.BlockIndex == nil {
		return false, errors.New("transfer has no block index reference")
	}
	return true, nil
}
