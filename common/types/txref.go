package types

import "strconv"

// TxReference points at a settled transfer on a specific source ledger.
// Exactly one of the two fields is set: BlockIndex for the deterministic
// sequenced ledger, TransactionID for probabilistic chains. Together with the
// off-chain signature it forms a single-use authorization token on the
// backend side.
type TxReference struct {
	BlockIndex    *uint64 `json:"block_index,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
}

// NewBlockIndexRef creates a reference to a sequenced-ledger transfer.
func NewBlockIndexRef(index uint64) *TxReference {
	return &TxReference{BlockIndex: &index}
}

// NewTransactionIDRef creates a reference to a probabilistic-chain transaction.
func NewTransactionIDRef(txID string) *TxReference {
	return &TxReference{TransactionID: &txID}
}

// String returns a human-readable form of the reference for logging.
func (r *TxReference) String() string {
	if r == nil {
		return ""
	}
	if r.BlockIndex != nil {
		return "block:" + strconv.FormatUint(*r.BlockIndex, 10)
	}
	if r.TransactionID != nil {
		return "tx:" + *r.TransactionID
	}
	return ""
}
