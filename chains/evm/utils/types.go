package utils

const (
	// ZeroAddress represents the zero address, used to denote the native asset.
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)
