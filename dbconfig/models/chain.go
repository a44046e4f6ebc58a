package models

import (
	"time"

	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

type Chain struct {
	ID             int64
	ChainID        uint64
	Name           string
	Type           types.ChainType
	DepositAddress string
	WaitNBlocks    uint64
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
