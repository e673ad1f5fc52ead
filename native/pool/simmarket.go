package pool

import "math/big"

// SimulatedMarket is a MoneyMarket held entirely in memory. It backs local
// deployments and tests; production wiring substitutes a bridge to the real
// venue.
type SimulatedMarket struct {
	underlying string
	deposited  *big.Int
	rate       *big.Int

	// Error codes returned by the next Mint/RedeemUnderlying call. Zero means
	// success.
	MintCode   uint64
	RedeemCode uint64
}

// NewSimulatedMarket constructs a venue for the underlying asset at a 1:1
// stored exchange rate.
func NewSimulatedMarket(underlying string) *SimulatedMarket {
	return &SimulatedMarket{
		underlying: underlying,
		deposited:  big.NewInt(0),
		rate:       new(big.Int).Set(ray),
	}
}

// Mint implements MoneyMarket.
func (m *SimulatedMarket) Mint(amount *big.Int) uint64 {
	if m.MintCode != adapterSuccess {
		return m.MintCode
	}
	if amount != nil && amount.Sign() > 0 {
		m.deposited = new(big.Int).Add(m.deposited, amount)
	}
	return adapterSuccess
}

// RedeemUnderlying implements MoneyMarket.
func (m *SimulatedMarket) RedeemUnderlying(amount *big.Int) uint64 {
	if m.RedeemCode != adapterSuccess {
		return m.RedeemCode
	}
	if amount == nil || amount.Sign() <= 0 {
		return adapterSuccess
	}
	if m.deposited.Cmp(amount) < 0 {
		return 1
	}
	m.deposited = new(big.Int).Sub(m.deposited, amount)
	return adapterSuccess
}

// ExchangeRateStored implements MoneyMarket.
func (m *SimulatedMarket) ExchangeRateStored() *big.Int {
	return new(big.Int).Set(m.rate)
}

// Underlying implements MoneyMarket.
func (m *SimulatedMarket) Underlying() string { return m.underlying }

// Deposited reports the venue-held principal.
func (m *SimulatedMarket) Deposited() *big.Int { return new(big.Int).Set(m.deposited) }
