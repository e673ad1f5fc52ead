package loans

import (
	"math/big"

	"loanchain/crypto"
)

// Status tracks the loan lifecycle. The liquidated flag is orthogonal and
// settable only while closing an active loan.
type Status uint8

const (
	// StatusNonExistent is the zero value guarding unknown loan ids.
	StatusNonExistent Status = iota
	// StatusTermsSet means aggregated terms exist but no principal is drawn.
	StatusTermsSet
	// StatusActive means principal is out and repayment is owed.
	StatusActive
	// StatusClosed is terminal; records are retained for audit, never
	// deleted.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusTermsSet:
		return "terms_set"
	case StatusActive:
		return "active"
	case StatusClosed:
		return "closed"
	default:
		return "non_existent"
	}
}

// LoanTerms is the immutable term set a loan was created with.
type LoanTerms struct {
	// Borrower is the account that requested the loan.
	Borrower crypto.Address
	// Recipient receives the drawn principal; defaults to the borrower.
	Recipient crypto.Address
	// InterestRate is the agreed yearly rate in basis points.
	InterestRate uint64
	// CollateralRatio is the agreed collateral requirement in basis points of
	// the borrowed principal.
	CollateralRatio uint64
	// MaxLoanAmount is the agreed principal ceiling in wei.
	MaxLoanAmount *big.Int
	// Duration is the loan length in seconds.
	Duration uint64
}

// Loan is the full lifecycle record owned by the loans engine. Collateral and
// the owed amounts are the only mutable parts once terms are set.
type Loan struct {
	// ID is unique and monotonically assigned.
	ID uint64
	// Terms is the aggregated term set the quorum agreed on.
	Terms LoanTerms
	// TermsExpiry is the unix timestamp after which unused terms are void.
	TermsExpiry int64
	// LoanStartTime is the unix timestamp principal was drawn.
	LoanStartTime int64
	// Collateral is the currently locked collateral-asset amount.
	Collateral *big.Int
	// LastCollateralIn is the unix timestamp of the last collateral deposit,
	// used for the deposit cooldown.
	LastCollateralIn int64
	// PrincipalOwed is the outstanding principal in wei.
	PrincipalOwed *big.Int
	// InterestOwed is the outstanding interest in wei.
	InterestOwed *big.Int
	// BorrowedAmount is the principal originally drawn.
	BorrowedAmount *big.Int
	// EscrowID references the loan's escrow instance when provisioned.
	EscrowID [32]byte
	// HasEscrow reports whether EscrowID is set.
	HasEscrow bool
	// Status is the lifecycle state.
	Status Status
	// Liquidated flips exactly once, while closing via liquidation.
	Liquidated bool
}

// Clone returns a deep copy of the loan record.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Terms.MaxLoanAmount != nil {
		clone.Terms.MaxLoanAmount = new(big.Int).Set(l.Terms.MaxLoanAmount)
	}
	if l.Collateral != nil {
		clone.Collateral = new(big.Int).Set(l.Collateral)
	}
	if l.PrincipalOwed != nil {
		clone.PrincipalOwed = new(big.Int).Set(l.PrincipalOwed)
	}
	if l.InterestOwed != nil {
		clone.InterestOwed = new(big.Int).Set(l.InterestOwed)
	}
	if l.BorrowedAmount != nil {
		clone.BorrowedAmount = new(big.Int).Set(l.BorrowedAmount)
	}
	return &clone
}
