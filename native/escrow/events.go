package escrow

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"loanchain/core/types"
)

const (
	EventTypeEscrowProvisioned = "escrow.provisioned"
	EventTypeEscrowClaimed     = "escrow.claimed"
)

// NewProvisionedEvent returns the canonical event payload for a newly
// provisioned escrow.
func NewProvisionedEvent(e *Escrow) *types.Event {
	attrs := make(map[string]string)
	if e != nil {
		attrs["id"] = hex.EncodeToString(e.ID[:])
		attrs["loanId"] = strconv.FormatUint(e.LoanID, 10)
		attrs["borrower"] = hex.EncodeToString(e.Borrower[:])
		attrs["recipient"] = hex.EncodeToString(e.Recipient[:])
		attrs["createdAt"] = strconv.FormatInt(e.CreatedAt, 10)
	}
	return &types.Event{Type: EventTypeEscrowProvisioned, Attributes: attrs}
}

// NewClaimedEvent returns the canonical event payload emitted when escrowed
// balances are released.
func NewClaimedEvent(e *Escrow, claimer [20]byte, lendAmt, collAmt *big.Int) *types.Event {
	attrs := make(map[string]string)
	if e != nil {
		attrs["id"] = hex.EncodeToString(e.ID[:])
		attrs["loanId"] = strconv.FormatUint(e.LoanID, 10)
	}
	attrs["claimer"] = hex.EncodeToString(claimer[:])
	if lendAmt != nil {
		attrs["amountLend"] = lendAmt.String()
	}
	if collAmt != nil {
		attrs["amountColl"] = collAmt.String()
	}
	return &types.Event{Type: EventTypeEscrowClaimed, Attributes: attrs}
}
