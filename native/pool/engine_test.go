package pool

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"loanchain/core/types"
	"loanchain/crypto"
)

const testAsset = "DAI"

type mockState struct {
	accounts map[string]*types.Account
	pools    map[string]*Pool
	shares   map[string]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		accounts: make(map[string]*types.Account),
		pools:    make(map[string]*Pool),
		shares:   make(map[string]*big.Int),
	}
}

func (m *mockState) GetPool(asset string) (*Pool, error) {
	p, ok := m.pools[asset]
	if !ok {
		p = &Pool{
			TotalShares:       big.NewInt(0),
			IdleUnderlying:    big.NewInt(0),
			AdapterUnderlying: big.NewInt(0),
			TotalDebt:         big.NewInt(0),
		}
		m.pools[asset] = p
	}
	return p.Clone(), nil
}

func (m *mockState) PutPool(asset string, p *Pool) error {
	m.pools[asset] = p.Clone()
	return nil
}

func (m *mockState) GetShares(_ string, addr crypto.Address) (*big.Int, error) {
	balance, ok := m.shares[string(addr.Bytes())]
	if !ok {
		return nil, nil
	}
	return new(big.Int).Set(balance), nil
}

func (m *mockState) PutShares(_ string, addr crypto.Address, shares *big.Int) error {
	m.shares[string(addr.Bytes())] = new(big.Int).Set(shares)
	return nil
}

func (m *mockState) GetAccount(addr crypto.Address) (*types.Account, error) {
	return m.accounts[string(addr.Bytes())].Clone(), nil
}

func (m *mockState) PutAccount(addr crypto.Address, account *types.Account) error {
	m.accounts[string(addr.Bytes())] = account.Clone()
	return nil
}

func (m *mockState) lendBalance(addr crypto.Address) *big.Int {
	acc := m.accounts[string(addr.Bytes())]
	if acc == nil || acc.BalanceLend == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.BalanceLend)
}

func testAddr(fill byte) crypto.Address {
	return crypto.MustNewAddress(crypto.LendPrefix, bytes.Repeat([]byte{fill}, 20))
}

type poolFixture struct {
	engine   *Engine
	state    *mockState
	adapter  *SimulatedMarket
	module   crypto.Address
	loans    crypto.Address
	supplier crypto.Address
	borrower crypto.Address
}

func newPoolFixture(t *testing.T, withAdapter bool) *poolFixture {
	t.Helper()
	f := &poolFixture{
		state:    newMockState(),
		module:   testAddr(0xAA),
		loans:    testAddr(0x77),
		supplier: testAddr(0x51),
		borrower: testAddr(0xB0),
	}
	f.engine = NewEngine(testAsset, f.module)
	f.engine.SetState(f.state)
	f.engine.SetLoansAddress(f.loans)
	if withAdapter {
		f.adapter = NewSimulatedMarket(testAsset)
		f.engine.SetAdapter(f.adapter)
	}
	return f
}

func (f *poolFixture) fund(addr crypto.Address, amount int64) {
	acc := f.state.accounts[string(addr.Bytes())]
	if acc == nil {
		acc = &types.Account{BalanceLend: big.NewInt(0), BalanceColl: big.NewInt(0)}
	}
	acc.BalanceLend = new(big.Int).Add(acc.BalanceLend, big.NewInt(amount))
	f.state.accounts[string(addr.Bytes())] = acc
}

func (f *poolFixture) approve(owner crypto.Address, amount int64) {
	acc := f.state.accounts[string(owner.Bytes())]
	if acc == nil {
		acc = &types.Account{BalanceLend: big.NewInt(0), BalanceColl: big.NewInt(0)}
	}
	if acc.Allowances == nil {
		acc.Allowances = make(map[string]*big.Int)
	}
	acc.Allowances[f.module.String()] = big.NewInt(amount)
	f.state.accounts[string(owner.Bytes())] = acc
}

func TestDepositMintsSharesOneToOne(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)

	minted, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if minted.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("minted = %s, want 1000000", minted)
	}
	if got := f.state.lendBalance(f.supplier); got.Sign() != 0 {
		t.Fatalf("supplier balance = %s, want 0", got)
	}
	pool := f.state.pools[testAsset]
	if pool.IdleUnderlying.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("idle = %s, want 1000000", pool.IdleUnderlying)
	}
}

func TestDepositRequiresAllowance(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 1_000_000)

	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); !errors.Is(err, ErrNotEnoughAllowance) {
		t.Fatalf("err = %v, want ErrNotEnoughAllowance", err)
	}
}

func TestDepositRequiresBalance(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 10)
	f.approve(f.supplier, 1_000_000)

	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); !errors.Is(err, ErrNotEnoughBalance) {
		t.Fatalf("err = %v, want ErrNotEnoughBalance", err)
	}
}

func TestDepositRedeploysIntoAdapter(t *testing.T) {
	f := newPoolFixture(t, true)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)

	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	pool := f.state.pools[testAsset]
	if pool.IdleUnderlying.Sign() != 0 {
		t.Fatalf("idle = %s, want 0 after redeploy", pool.IdleUnderlying)
	}
	if pool.AdapterUnderlying.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("adapter underlying = %s, want 1000000", pool.AdapterUnderlying)
	}
	if f.adapter.Deposited().Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("venue deposit = %s, want 1000000", f.adapter.Deposited())
	}
}

func TestDepositAdapterFailureAborts(t *testing.T) {
	f := newPoolFixture(t, true)
	f.adapter.MintCode = 13
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)

	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); !errors.Is(err, ErrAdapterDeposit) {
		t.Fatalf("err = %v, want ErrAdapterDeposit", err)
	}
	// The failed call must not persist any state.
	if got := f.state.lendBalance(f.supplier); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("supplier balance = %s, want untouched 1000000", got)
	}
	if pool, ok := f.state.pools[testAsset]; ok && pool.TotalShares.Sign() != 0 {
		t.Fatalf("shares minted despite venue failure")
	}
}

func TestWithdrawRedeemsFromAdapter(t *testing.T) {
	f := newPoolFixture(t, true)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)
	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	burned, err := f.engine.Withdraw(f.supplier, big.NewInt(400_000))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if burned.Cmp(big.NewInt(400_000)) != 0 {
		t.Fatalf("burned = %s, want 400000", burned)
	}
	if got := f.state.lendBalance(f.supplier); got.Cmp(big.NewInt(400_000)) != 0 {
		t.Fatalf("supplier balance = %s, want 400000", got)
	}
	pool := f.state.pools[testAsset]
	if pool.AdapterUnderlying.Cmp(big.NewInt(600_000)) != 0 {
		t.Fatalf("adapter underlying = %s, want 600000", pool.AdapterUnderlying)
	}
	if pool.TotalShares.Cmp(big.NewInt(600_000)) != 0 {
		t.Fatalf("total shares = %s, want 600000", pool.TotalShares)
	}
}

func TestWithdrawAdapterFailureKeepsState(t *testing.T) {
	f := newPoolFixture(t, true)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)
	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	f.adapter.RedeemCode = 13
	if _, err := f.engine.Withdraw(f.supplier, big.NewInt(400_000)); !errors.Is(err, ErrAdapterRedeem) {
		t.Fatalf("err = %v, want ErrAdapterRedeem", err)
	}
	// A refused redemption must not leave a phantom module credit or move any
	// pool balance.
	if got := f.state.lendBalance(f.module); got.Sign() != 0 {
		t.Fatalf("module balance = %s, want 0", got)
	}
	if got := f.state.lendBalance(f.supplier); got.Sign() != 0 {
		t.Fatalf("supplier balance = %s, want 0", got)
	}
	pool := f.state.pools[testAsset]
	if pool.AdapterUnderlying.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("adapter underlying = %s, want 1000000", pool.AdapterUnderlying)
	}
	if pool.TotalShares.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("total shares = %s, want 1000000", pool.TotalShares)
	}
}

func TestWithdrawBurnRoundsAgainstWithdrawer(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)
	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := f.engine.PrincipalOut(f.loans, f.borrower, big.NewInt(500_000)); err != nil {
		t.Fatalf("PrincipalOut: %v", err)
	}
	f.fund(f.borrower, 500_000)
	f.approve(f.borrower, 1_000_000)
	if err := f.engine.RepaymentSettle(f.loans, f.borrower, big.NewInt(500_000), big.NewInt(500_000)); err != nil {
		t.Fatalf("RepaymentSettle: %v", err)
	}

	// 1,500,000 underlying backs 1,000,000 shares. Withdrawing 100 is worth
	// 66.67 shares; the burn rounds up to 67 so the pool never pays out more
	// than the surrendered shares cover.
	burned, err := f.engine.Withdraw(f.supplier, big.NewInt(100))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if burned.Cmp(big.NewInt(67)) != 0 {
		t.Fatalf("burned = %s, want 67", burned)
	}
}

func TestWithdrawRejectsExcessShares(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 500_000)
	f.approve(f.supplier, 500_000)
	if _, err := f.engine.Deposit(f.supplier, big.NewInt(500_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	other := testAddr(0x52)
	f.fund(other, 500_000)
	f.approve(other, 500_000)
	if _, err := f.engine.Deposit(other, big.NewInt(500_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if _, err := f.engine.Withdraw(f.supplier, big.NewInt(600_000)); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("err = %v, want ErrInsufficientShares", err)
	}
}

func TestPrincipalOutRequiresLoansCaller(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)
	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	err := f.engine.PrincipalOut(f.supplier, f.borrower, big.NewInt(100_000))
	if !errors.Is(err, ErrCallerNotLoans) {
		t.Fatalf("err = %v, want ErrCallerNotLoans", err)
	}
	if err := f.engine.PrincipalOut(f.loans, f.borrower, big.NewInt(100_000)); err != nil {
		t.Fatalf("PrincipalOut: %v", err)
	}
	if got := f.state.lendBalance(f.borrower); got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("borrower balance = %s, want 100000", got)
	}
	pool := f.state.pools[testAsset]
	if pool.TotalDebt.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("total debt = %s, want 100000", pool.TotalDebt)
	}
}

func TestRepaymentSettleAccruesInterestToLenders(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)
	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := f.engine.PrincipalOut(f.loans, f.borrower, big.NewInt(500_000)); err != nil {
		t.Fatalf("PrincipalOut: %v", err)
	}

	before, err := f.engine.ExchangeRate()
	if err != nil {
		t.Fatalf("ExchangeRate: %v", err)
	}

	f.fund(f.borrower, 60_000)
	f.approve(f.borrower, 560_000)
	if err := f.engine.RepaymentSettle(f.loans, f.borrower, big.NewInt(500_000), big.NewInt(60_000)); err != nil {
		t.Fatalf("RepaymentSettle: %v", err)
	}

	pool := f.state.pools[testAsset]
	if pool.TotalDebt.Sign() != 0 {
		t.Fatalf("total debt = %s, want 0", pool.TotalDebt)
	}
	if pool.TotalUnderlying().Cmp(big.NewInt(1_060_000)) != 0 {
		t.Fatalf("total underlying = %s, want 1060000", pool.TotalUnderlying())
	}
	after, err := f.engine.ExchangeRate()
	if err != nil {
		t.Fatalf("ExchangeRate: %v", err)
	}
	if after.Cmp(before) <= 0 {
		t.Fatalf("exchange rate did not grow: before=%s after=%s", before, after)
	}
}

func TestDebtToSupplyProjection(t *testing.T) {
	f := newPoolFixture(t, false)
	f.fund(f.supplier, 1_000_000)
	f.approve(f.supplier, 1_000_000)
	if _, err := f.engine.Deposit(f.supplier, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := f.engine.PrincipalOut(f.loans, f.borrower, big.NewInt(200_000)); err != nil {
		t.Fatalf("PrincipalOut: %v", err)
	}

	// 200,000 drawn plus 300,000 projected over 1,000,000 backing.
	if got := f.engine.DebtToSupplyFor(testAsset, "LINK", big.NewInt(300_000)); got != 5000 {
		t.Fatalf("debt-to-supply = %d bps, want 5000", got)
	}
}
