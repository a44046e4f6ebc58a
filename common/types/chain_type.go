package types

// ChainType represents supported source-ledger types
type ChainType string

const (
	// SEQUENCED represents the deterministic sequenced settlement ledger.
	// Transfers are synchronous update calls and yield a block index.
	SEQUENCED ChainType = "SEQUENCED"
	// SOLANA represents the Solana chain. Transfers yield a transaction id
	// immediately on broadcast, before deep confirmation.
	SOLANA ChainType = "SOLANA"
	// EVM represents Ethereum Virtual Machine based chains (e.g. Ethereum, Base, etc.)
	EVM ChainType = "EVM"
	// UNKNOWN represents unknown or unsupported chain type in the system.
	UNKNOWN ChainType = "UNKNOWN"
)

// String converts ChainType to string representation
func (t ChainType) String() string {
	return string(t)
}

// ParseChainType converts string to ChainType representation.
func ParseChainType(s string) ChainType {
	switch s {
	case SEQUENCED.String():
		return SEQUENCED
	case SOLANA.String():
		return SOLANA
	case EVM.String():
		return EVM
	default:
		return UNKNOWN
	}
}

// IsProbabilistic reports whether the chain's finality model is
// probabilistic, meaning the backend must observe sufficient confirmations
// before an operation referencing a transfer becomes ready.
func (t ChainType) IsProbabilistic() bool {
	return t == SOLANA || t == EVM
}
