package escrow

import "math/big"

// Escrow is the per-loan custodial holder of proceeds and collateral for
// borrowers with managed positions. Funds stay locked until the owning loan
// reaches a terminal, liquidation-determined state.
type Escrow struct {
	// ID uniquely identifies the escrow instance.
	ID [32]byte
	// LoanID is the owning loan.
	LoanID uint64
	// Borrower is the loan's borrower.
	Borrower [20]byte
	// Recipient is the party entitled to claim; defaults to the borrower.
	Recipient [20]byte
	// BalanceLend is the escrowed lending-asset value.
	BalanceLend *big.Int
	// BalanceColl is the escrowed collateral-asset value.
	BalanceColl *big.Int
	// CreatedAt is the unix timestamp the escrow was provisioned.
	CreatedAt int64
}

// Clone returns a deep copy of the escrow record.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.BalanceLend != nil {
		clone.BalanceLend = new(big.Int).Set(e.BalanceLend)
	}
	if e.BalanceColl != nil {
		clone.BalanceColl = new(big.Int).Set(e.BalanceColl)
	}
	return &clone
}
