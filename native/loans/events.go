package loans

import (
	"math/big"
	"strconv"

	"loanchain/core/types"
	"loanchain/crypto"
)

const (
	EventTypeTermsSet            = "loans.terms_set"
	EventTypeCollateralDeposited = "loans.collateral_deposited"
	EventTypeCollateralWithdrawn = "loans.collateral_withdrawn"
	EventTypeTakenOut            = "loans.taken_out"
	EventTypeRepaid              = "loans.repaid"
	EventTypeLiquidated          = "loans.liquidated"
)

func baseAttributes(loan *Loan) map[string]string {
	attrs := make(map[string]string)
	if loan == nil {
		return attrs
	}
	attrs["loanId"] = strconv.FormatUint(loan.ID, 10)
	attrs["borrower"] = loan.Terms.Borrower.String()
	attrs["status"] = loan.Status.String()
	return attrs
}

// NewTermsSetEvent reports a loan entering the terms-set state.
func NewTermsSetEvent(loan *Loan) *types.Event {
	attrs := baseAttributes(loan)
	if loan != nil {
		attrs["interestRate"] = strconv.FormatUint(loan.Terms.InterestRate, 10)
		attrs["collateralRatio"] = strconv.FormatUint(loan.Terms.CollateralRatio, 10)
		if loan.Terms.MaxLoanAmount != nil {
			attrs["maxLoanAmount"] = loan.Terms.MaxLoanAmount.String()
		}
		attrs["termsExpiry"] = strconv.FormatInt(loan.TermsExpiry, 10)
	}
	return &types.Event{Type: EventTypeTermsSet, Attributes: attrs}
}

// NewCollateralDepositedEvent reports collateral locked against a loan.
func NewCollateralDepositedEvent(loan *Loan, depositor crypto.Address, amount *big.Int) *types.Event {
	attrs := baseAttributes(loan)
	attrs["depositor"] = depositor.String()
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	if loan != nil && loan.Collateral != nil {
		attrs["collateral"] = loan.Collateral.String()
	}
	return &types.Event{Type: EventTypeCollateralDeposited, Attributes: attrs}
}

// NewCollateralWithdrawnEvent reports collateral released from a loan.
func NewCollateralWithdrawnEvent(loan *Loan, recipient crypto.Address, amount *big.Int) *types.Event {
	attrs := baseAttributes(loan)
	attrs["recipient"] = recipient.String()
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	if loan != nil && loan.Collateral != nil {
		attrs["collateral"] = loan.Collateral.String()
	}
	return &types.Event{Type: EventTypeCollateralWithdrawn, Attributes: attrs}
}

// NewTakenOutEvent reports principal drawn against set terms.
func NewTakenOutEvent(loan *Loan, amount *big.Int) *types.Event {
	attrs := baseAttributes(loan)
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	if loan != nil {
		attrs["recipient"] = loan.Terms.Recipient.String()
		if loan.InterestOwed != nil {
			attrs["interestOwed"] = loan.InterestOwed.String()
		}
	}
	return &types.Event{Type: EventTypeTakenOut, Attributes: attrs}
}

// NewRepaidEvent reports a repayment, partial or closing.
func NewRepaidEvent(loan *Loan, payer crypto.Address, amount *big.Int) *types.Event {
	attrs := baseAttributes(loan)
	attrs["payer"] = payer.String()
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	if loan != nil {
		if loan.PrincipalOwed != nil {
			attrs["principalOwed"] = loan.PrincipalOwed.String()
		}
		if loan.InterestOwed != nil {
			attrs["interestOwed"] = loan.InterestOwed.String()
		}
	}
	return &types.Event{Type: EventTypeRepaid, Attributes: attrs}
}

// NewLiquidatedEvent reports a liquidation close and the collateral payout.
func NewLiquidatedEvent(loan *Loan, liquidator crypto.Address, payout *big.Int) *types.Event {
	attrs := baseAttributes(loan)
	attrs["liquidator"] = liquidator.String()
	if payout != nil {
		attrs["payout"] = payout.String()
	}
	return &types.Event{Type: EventTypeLiquidated, Attributes: attrs}
}
