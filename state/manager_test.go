package state

import (
	"bytes"
	"math/big"
	"testing"

	"loanchain/crypto"
	"loanchain/native/escrow"
	"loanchain/native/loans"
)

func testAddr(fill byte) crypto.Address {
	return crypto.MustNewAddress(crypto.LendPrefix, bytes.Repeat([]byte{fill}, 20))
}

func TestAccountsAreCopiedOnReadAndWrite(t *testing.T) {
	manager := NewManager()
	addr := testAddr(0x01)
	if err := manager.Fund(addr, big.NewInt(100), big.NewInt(200)); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	acc, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	acc.BalanceLend.SetInt64(0)

	fresh, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if fresh.BalanceLend.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("stored account aliased by a read: %s", fresh.BalanceLend)
	}
}

func TestLoanIDsAreMonotonic(t *testing.T) {
	manager := NewManager()
	first, err := manager.NextLoanID()
	if err != nil {
		t.Fatalf("NextLoanID: %v", err)
	}
	second, err := manager.NextLoanID()
	if err != nil {
		t.Fatalf("NextLoanID: %v", err)
	}
	if second != first+1 {
		t.Fatalf("ids = %d, %d; want consecutive", first, second)
	}
}

func TestLoanRoundTrip(t *testing.T) {
	manager := NewManager()
	loan := &loans.Loan{
		ID:            7,
		Collateral:    big.NewInt(500),
		PrincipalOwed: big.NewInt(1_000),
		Status:        loans.StatusActive,
	}
	if err := manager.PutLoan(loan); err != nil {
		t.Fatalf("PutLoan: %v", err)
	}
	loan.PrincipalOwed.SetInt64(0)

	stored, err := manager.GetLoan(7)
	if err != nil {
		t.Fatalf("GetLoan: %v", err)
	}
	if stored.PrincipalOwed.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("stored loan aliased by the caller: %s", stored.PrincipalOwed)
	}
	missing, err := manager.GetLoan(8)
	if err != nil {
		t.Fatalf("GetLoan: %v", err)
	}
	if missing != nil {
		t.Fatalf("unknown loan id returned %+v", missing)
	}
}

func TestPoolInitializesEmpty(t *testing.T) {
	manager := NewManager()
	pool, err := manager.GetPool("DAI")
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if pool.TotalShares.Sign() != 0 || pool.TotalUnderlying().Sign() != 0 {
		t.Fatalf("fresh pool not empty: %+v", pool)
	}
}

func TestEscrowViewSharesAccounts(t *testing.T) {
	manager := NewManager()
	addr := testAddr(0x02)
	if err := manager.Fund(addr, big.NewInt(0), big.NewInt(50)); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	view := manager.EscrowState()
	acc, err := view.GetAccount(addr.Bytes())
	if err != nil {
		t.Fatalf("view GetAccount: %v", err)
	}
	if acc.BalanceColl.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("view balance = %s, want 50", acc.BalanceColl)
	}

	acc.BalanceColl.SetInt64(75)
	if err := view.PutAccount(addr.Bytes(), acc); err != nil {
		t.Fatalf("view PutAccount: %v", err)
	}
	shared, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if shared.BalanceColl.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("address view balance = %s, want 75", shared.BalanceColl)
	}
}

func TestEscrowRoundTrip(t *testing.T) {
	manager := NewManager()
	var borrower [20]byte
	borrower[0] = 0xB0
	esc := &escrow.Escrow{
		ID:          escrow.EscrowID(3, borrower),
		LoanID:      3,
		Borrower:    borrower,
		Recipient:   borrower,
		BalanceLend: big.NewInt(0),
		BalanceColl: big.NewInt(10),
	}
	if err := manager.EscrowPut(esc); err != nil {
		t.Fatalf("EscrowPut: %v", err)
	}
	stored, ok := manager.EscrowGet(esc.ID)
	if !ok {
		t.Fatalf("escrow missing")
	}
	if stored.BalanceColl.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("stored balance = %s, want 10", stored.BalanceColl)
	}
	if _, ok := manager.EscrowGet([32]byte{0xFF}); ok {
		t.Fatalf("unknown escrow id found")
	}
}

func TestApproveGrantsAllowance(t *testing.T) {
	manager := NewManager()
	owner := testAddr(0x03)
	spender := testAddr(0x04)
	if err := manager.Approve(owner, spender, big.NewInt(500)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	acc, err := manager.GetAccount(owner)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acc.Allowances[spender.String()].Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("allowance = %s, want 500", acc.Allowances[spender.String()])
	}
}
