package types

// QuoteHop describes one hop of a routed quote. Every hop carries its own
// token identifiers, decimals and fee; per-hop decimal precision must be
// resolved independently of the overall receive token.
type QuoteHop struct {
	PoolSymbol      string `json:"pool_symbol"`
	PayToken        string `json:"pay_token"`
	PayAmount       string `json:"pay_amount"`
	PayDecimals     uint8  `json:"pay_decimals"`
	ReceiveToken    string `json:"receive_token"`
	ReceiveAmount   string `json:"receive_amount"`
	ReceiveDecimals uint8  `json:"receive_decimals"`
	// LpFee is the pool fee of this hop, in the hop's receive-token
	// smallest unit.
	LpFee string `json:"lp_fee"`
	// GasFee is the network fee charged on this hop, in the hop's
	// receive-token smallest unit.
	GasFee string `json:"gas_fee"`
}

// Quote is the expected outcome of an operation before commit. It is
// ephemeral: pool-state changes or the passage of time invalidate it, and it
// must be revalidated before its amounts are embedded in a message that is
// actually signed.
type Quote struct {
	PayToken      string     `json:"pay_token"`
	PayAmount     string     `json:"pay_amount"`
	ReceiveToken  string     `json:"receive_token"`
	ReceiveAmount string     `json:"receive_amount"`
	MidPrice      string     `json:"mid_price"`
	Price         string     `json:"price"`
	Slippage      float64    `json:"slippage"`
	Hops          []QuoteHop `json:"hops"`
}
