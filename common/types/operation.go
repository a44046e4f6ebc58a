package types

// OperationType identifies the logical value exchange carried by an
// OperationRequest.
type OperationType string

const (
	// OpSwap exchanges a pay token for a receive token.
	OpSwap OperationType = "swap"
	// OpAddLiquidity contributes a token pair to a pool.
	OpAddLiquidity OperationType = "add_liquidity"
	// OpRemoveLiquidity withdraws a share from a pool.
	OpRemoveLiquidity OperationType = "remove_liquidity"
)

// OperationRequest is the backend-bound call payload. Token identifiers are
// chain-qualified; optional fields are nil when the source leg does not
// require them (the sequenced ledger authorizes by caller identity, so
// Signature and Timestamp are only set for probabilistic-chain legs).
//
// The same request, including the same signature and transaction reference,
// is resubmitted unmodified on every readiness retry.
type OperationRequest struct {
	Operation      OperationType `json:"operation"`
	PayToken       string        `json:"pay_token"`
	PayAmount      string        `json:"pay_amount"`
	ReceiveToken   string        `json:"receive_token"`
	ReceiveAmount  string        `json:"receive_amount"`
	PayTxRef       *TxReference  `json:"pay_tx_ref,omitempty"`
	Signature      *string       `json:"signature,omitempty"`
	Timestamp      *int64        `json:"timestamp,omitempty"`
	MaxSlippage    *float64      `json:"max_slippage,omitempty"`
	ReceiveAddress *string       `json:"receive_address,omitempty"`
	ReferredBy     *string       `json:"referred_by,omitempty"`
}

// Reply is the structured terminal reply attached to a request once the
// backend finishes processing it. Executed amounts can differ from the quoted
// amounts under slippage, so downstream side effects must use these values
// rather than the originally requested ones.
type Reply struct {
	RequestID     string   `json:"request_id"`
	Status        string   `json:"status"`
	PayToken      string   `json:"pay_token"`
	PayAmount     string   `json:"pay_amount"`
	ReceiveToken  string   `json:"receive_token"`
	ReceiveAmount string   `json:"receive_amount"`
	TxIDs         []string `json:"tx_ids,omitempty"`
}

// RequestStatus is the poll-side view of an accepted request: an append-only
// ordered sequence of human-readable status strings plus the terminal reply
// once one exists. Safe to fetch repeatedly without side effects.
type RequestStatus struct {
	RequestID string   `json:"request_id"`
	Statuses  []string `json:"statuses"`
	Reply     *Reply   `json:"reply,omitempty"`
}

// ReplyStatusSuccess is the status value of a successful terminal reply.
const ReplyStatusSuccess = "Success"
