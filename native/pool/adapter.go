package pool

import (
	"errors"
	"math/big"
)

// Adapter error semantics follow the external venue convention: operations
// return a numeric code and zero means success.
const adapterSuccess = 0

var (
	// ErrAdapterDeposit is surfaced as COMPOUND_DEPOSIT_ERROR.
	ErrAdapterDeposit = errors.New("lending pool: COMPOUND_DEPOSIT_ERROR")
	// ErrAdapterRedeem is surfaced as COMPOUND_REDEEM_UNDERLYING_ERROR.
	ErrAdapterRedeem = errors.New("lending pool: COMPOUND_REDEEM_UNDERLYING_ERROR")
)

// MoneyMarket wraps an external yield-bearing venue. Failures are reported
// through error codes and mapped to hard failures of the enclosing call;
// the pool never silently absorbs them.
type MoneyMarket interface {
	// Mint deposits underlying principal for yield-bearing receipt tokens.
	Mint(amount *big.Int) uint64
	// RedeemUnderlying redeems receipt tokens for the exact underlying amount.
	RedeemUnderlying(amount *big.Int) uint64
	// ExchangeRateStored reports the receipt/underlying exchange rate scaled
	// by 1e18.
	ExchangeRateStored() *big.Int
	// Underlying names the lending asset the venue accepts.
	Underlying() string
}
