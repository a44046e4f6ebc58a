package utils

import (
	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type GetParsedTransactionOpts struct {
	Commitment                     rpc.CommitmentType `json:"commitment,omitempty"`
	MaxSupportedTransactionVersion uint64             `json:"maxSupportedTransactionVersion,omitempty"`
}

type InnerInstruction struct {
	Index        uint8                   `json:"index"`
	Instructions []ParsedInstructionInfo `json:"instructions"`
}

type ParsedInstructionInfo struct {
	ProgramIDIndex   uint16            `json:"programIdIndex"`
	PublicKey        sol.PublicKey     `json:"PublicKey"`
	Accounts         []uint16          `json:"accounts"`
	Data             string            `json:"data"`
	InnerInstruction *InnerInstruction `json:"innerInstructions"`
}
