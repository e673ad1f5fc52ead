package pool

import (
	"math/big"

	"loanchain/core/types"
	"loanchain/crypto"
)

const (
	EventTypePoolDeposited = "pool.deposited"
	EventTypePoolWithdrawn = "pool.withdrawn"
)

type poolEvent struct {
	evt *types.Event
}

func (e poolEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e poolEvent) Event() *types.Event { return e.evt }

// NewDepositedEvent reports principal supplied to the pool and the claim
// shares minted for it.
func NewDepositedEvent(asset string, supplier crypto.Address, amount, minted *big.Int) *types.Event {
	attrs := map[string]string{
		"asset":    asset,
		"supplier": supplier.String(),
	}
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	if minted != nil {
		attrs["shares"] = minted.String()
	}
	return &types.Event{Type: EventTypePoolDeposited, Attributes: attrs}
}

// NewWithdrawnEvent reports principal withdrawn from the pool and the claim
// shares burned for it.
func NewWithdrawnEvent(asset string, supplier crypto.Address, amount, burned *big.Int) *types.Event {
	attrs := map[string]string{
		"asset":    asset,
		"supplier": supplier.String(),
	}
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	if burned != nil {
		attrs["shares"] = burned.String()
	}
	return &types.Event{Type: EventTypePoolWithdrawn, Attributes: attrs}
}
