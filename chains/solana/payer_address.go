package solana

// PayerAddress returns the funded address used for transfers and balance checks.
//
// Returns:
// - string: the payer address, empty when no key is configured.
func (s *solana) PayerAddress() string {
	s.payerAddressMutex.RLock()
	defer s.payerAddressMutex.RUnlock()
	return s.payerAddress
}
