// Package canonical builds the exact byte string signed by the payer's key to
// authorize a swap or liquidity operation. The encoding is the verification
// boundary: the backend reconstructs the same string from the same logical
// inputs and checks the signature against it, so field order, numeric
// formatting and the absence of whitespace are all load-bearing.
package canonical

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// Build serializes the message into its canonical wire form: a newline-free
// JSON object with exactly nine keys in fixed order and no whitespace.
//
// Encoding rules:
// - integer amounts are base-10 strings, no separators;
// - max_slippage is a decimal number with exactly one fractional digit;
// - timestamp is a plain integer (milliseconds since epoch);
// - referred_by is the literal null.
//
// Build is deterministic: identical inputs always produce identical bytes.
func Build(m *types.CanonicalMessage) []byte {
	var b strings.Builder

	b.WriteString(`{"pay_token":`)
	writeString(&b, m.PayToken)
	b.WriteString(`,"pay_amount":`)
	writeString(&b, strconv.FormatUint(m.PayAmount, 10))
	b.WriteString(`,"pay_address":`)
	writeString(&b, m.PayAddress)
	b.WriteString(`,"receive_token":`)
	writeString(&b, m.ReceiveToken)
	b.WriteString(`,"receive_amount":`)
	writeString(&b, strconv.FormatUint(m.ReceiveAmount, 10))
	b.WriteString(`,"receive_address":`)
	writeString(&b, m.ReceiveAddress)
	b.WriteString(`,"max_slippage":`)
	b.WriteString(strconv.FormatFloat(m.MaxSlippage, 'f', 1, 64))
	b.WriteString(`,"timestamp":`)
	b.WriteString(strconv.FormatInt(m.Timestamp, 10))
	b.WriteString(`,"referred_by":null}`)

	return []byte(b.String())
}

// writeString writes v as a JSON string. json.Marshal on a plain string never
// fails and takes care of escaping, should a token symbol or address ever
// contain a quote or control character.
func writeString(b *strings.Builder, v string) {
	raw, _ := json.Marshal(v)
	b.Write(raw)
}
