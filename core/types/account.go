package types

import "math/big"

// Account holds the ledger balances for a single participant. Balances are
// denominated in wei and expressed as big integers to match on-chain
// precision.
type Account struct {
	// Nonce counts the state-mutating transactions submitted by the account.
	Nonce uint64 `json:"nonce"`
	// BalanceLend is the spendable balance in the lending asset.
	BalanceLend *big.Int `json:"balanceLend"`
	// BalanceColl is the spendable balance in the collateral asset.
	BalanceColl *big.Int `json:"balanceColl"`
	// Allowances records the lending-asset amounts the account has approved
	// other parties (keyed by bech32 address) to pull on its behalf.
	Allowances map[string]*big.Int `json:"allowances,omitempty"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce}
	if a.BalanceLend != nil {
		clone.BalanceLend = new(big.Int).Set(a.BalanceLend)
	}
	if a.BalanceColl != nil {
		clone.BalanceColl = new(big.Int).Set(a.BalanceColl)
	}
	if a.Allowances != nil {
		clone.Allowances = make(map[string]*big.Int, len(a.Allowances))
		for spender, amount := range a.Allowances {
			if amount != nil {
				clone.Allowances[spender] = new(big.Int).Set(amount)
			} else {
				clone.Allowances[spender] = nil
			}
		}
	}
	return clone
}
