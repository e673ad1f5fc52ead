package pool

import "math/big"

// Pool captures the fund-custody accounting for one lending asset. Amounts
// are denominated in wei.
type Pool struct {
	// TotalShares is the outstanding supply of lender claim tokens.
	TotalShares *big.Int
	// IdleUnderlying is the lending-asset balance held directly by the pool.
	IdleUnderlying *big.Int
	// AdapterUnderlying is the lending-asset value redeployed into the
	// money-market venue, tracked at deposit/redeem time.
	AdapterUnderlying *big.Int
	// TotalDebt is the outstanding principal drawn by the loans module.
	TotalDebt *big.Int
}

// Clone returns a deep copy of the pool record.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := &Pool{}
	if p.TotalShares != nil {
		clone.TotalShares = new(big.Int).Set(p.TotalShares)
	}
	if p.IdleUnderlying != nil {
		clone.IdleUnderlying = new(big.Int).Set(p.IdleUnderlying)
	}
	if p.AdapterUnderlying != nil {
		clone.AdapterUnderlying = new(big.Int).Set(p.AdapterUnderlying)
	}
	if p.TotalDebt != nil {
		clone.TotalDebt = new(big.Int).Set(p.TotalDebt)
	}
	return clone
}

// TotalUnderlying is the full lender claim backing: idle funds, redeployed
// funds and principal currently out on loan.
func (p *Pool) TotalUnderlying() *big.Int {
	total := new(big.Int)
	if p == nil {
		return total
	}
	if p.IdleUnderlying != nil {
		total.Add(total, p.IdleUnderlying)
	}
	if p.AdapterUnderlying != nil {
		total.Add(total, p.AdapterUnderlying)
	}
	if p.TotalDebt != nil {
		total.Add(total, p.TotalDebt)
	}
	return total
}
