package evm

// PayerAddress returns the funded address used for transfers and balance checks.
//
// Returns:
// - string: the payer address.
func (e *evm) PayerAddress() string {
	e.payerAddressMutex.RLock()
	defer e.payerAddressMutex.RUnlock()
	return e.payerAddress.Hex()
}
