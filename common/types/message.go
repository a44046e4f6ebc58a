package types

// CanonicalMessage holds the logical inputs of the signed swap/liquidity
// intent. The byte encoding lives in the canonical package; this struct is
// constructed fresh per attempt and must not be mutated once signed.
//
// Fields:
// - PayToken: symbol or address of the token being paid.
// - PayAmount: amount paid in the token's smallest unit.
// - PayAddress: source-ledger address of the payer.
// - ReceiveToken: symbol or address of the token being received.
// - ReceiveAmount: expected amount received in the token's smallest unit.
// - ReceiveAddress: destination address for the received token.
// - MaxSlippage: maximum tolerated slippage in percent.
// - Timestamp: milliseconds since epoch at message construction time.
type CanonicalMessage struct {
	PayToken       string
	PayAmount      uint64
	PayAddress     string
	ReceiveToken   string
	ReceiveAmount  uint64
	ReceiveAddress string
	MaxSlippage    float64
	Timestamp      int64
}
