package models

import "time"

type Token struct {
	ID        int64
	ChainID   uint64
	Address   string
	Symbol    string
	Decimals  int
	Native    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
