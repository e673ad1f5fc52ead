package pool

import (
	"errors"
	"math/big"

	"loanchain/core/events"
	"loanchain/core/types"
	"loanchain/crypto"
	nativecommon "loanchain/native/common"
)

var (
	errNilState      = errors.New("lending pool: state not configured")
	errNilPool       = errors.New("lending pool: pool not initialised")
	errInvalidAmount = errors.New("lending pool: amount must be positive")

	// ErrNotEnoughAllowance is surfaced as LEND_TOKEN_NOT_ENOUGH_ALLOWANCE.
	ErrNotEnoughAllowance = errors.New("lending pool: LEND_TOKEN_NOT_ENOUGH_ALLOWANCE")
	// ErrNotEnoughBalance is surfaced as LENDING_TOKEN_NOT_ENOUGH_BALANCE.
	ErrNotEnoughBalance = errors.New("lending pool: LENDING_TOKEN_NOT_ENOUGH_BALANCE")
	// ErrCallerNotLoans is surfaced as ADDRESS_ISNT_LOANS_CONTRACT.
	ErrCallerNotLoans = errors.New("lending pool: ADDRESS_ISNT_LOANS_CONTRACT")
	// ErrInsufficientShares indicates the supplier holds fewer claim tokens
	// than the withdrawal requires.
	ErrInsufficientShares = errors.New("lending pool: insufficient claim token balance")
)

var ray = big.NewInt(1_000_000_000_000_000_000)

const moduleName = "pool"

type engineState interface {
	GetPool(asset string) (*Pool, error)
	PutPool(asset string, pool *Pool) error
	GetShares(asset string, addr crypto.Address) (*big.Int, error)
	PutShares(asset string, addr crypto.Address, shares *big.Int) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Engine custodies lender principal for one lending asset: it mints and burns
// proportional claim shares, redeploys idle funds into the money-market
// venue, and settles repayments and liquidation proceeds routed from the
// loans module.
type Engine struct {
	state         engineState
	asset         string
	moduleAddress crypto.Address
	loansAddress  crypto.Address
	adapter       MoneyMarket
	pauses        nativecommon.PauseView
	emitter       events.Emitter
}

// NewEngine constructs a pool engine for a lending asset, custodied at the
// module address.
func NewEngine(asset string, moduleAddr crypto.Address) *Engine {
	return &Engine{asset: asset, moduleAddress: moduleAddr, emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLoansAddress registers the loans module account allowed to call the
// settlement entry points.
func (e *Engine) SetLoansAddress(addr crypto.Address) {
	if e == nil {
		return
	}
	e.loansAddress = addr
}

// SetAdapter wires the money-market venue. A nil adapter means idle funds are
// held on-hand.
func (e *Engine) SetAdapter(adapter MoneyMarket) {
	if e == nil {
		return
	}
	e.adapter = adapter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(poolEvent{evt: event})
}

// Deposit pulls lending-asset principal from the depositor, mints claim
// shares at the current exchange rate and opportunistically forwards the
// funds into the money-market venue.
func (e *Engine) Deposit(depositor crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}

	depositorAcc, err := e.loadAccount(depositor)
	if err != nil {
		return nil, err
	}
	if err := e.checkAllowance(depositorAcc, amount); err != nil {
		return nil, err
	}
	if depositorAcc.BalanceLend.Cmp(amount) < 0 {
		return nil, ErrNotEnoughBalance
	}

	moduleAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return nil, err
	}

	// Shares follow the pool exchange rate, defaulting to 1:1 on an empty
	// pool.
	minted := new(big.Int)
	total := pool.TotalUnderlying()
	if pool.TotalShares.Sign() == 0 || total.Sign() == 0 {
		minted.Set(amount)
	} else {
		minted.Mul(amount, pool.TotalShares)
		minted.Quo(minted, total)
		if minted.Sign() == 0 {
			minted = new(big.Int).Set(amount)
		}
	}

	e.spendAllowance(depositorAcc, amount)
	depositorAcc.BalanceLend = new(big.Int).Sub(depositorAcc.BalanceLend, amount)
	moduleAcc.BalanceLend = new(big.Int).Add(moduleAcc.BalanceLend, amount)

	pool.IdleUnderlying = new(big.Int).Add(pool.IdleUnderlying, amount)
	pool.TotalShares = new(big.Int).Add(pool.TotalShares, minted)
	if err := e.redeployIdle(pool, moduleAcc); err != nil {
		return nil, err
	}

	if err := e.state.PutAccount(depositor, depositorAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.moduleAddress, moduleAcc); err != nil {
		return nil, err
	}

	shares, err := e.loadShares(depositor)
	if err != nil {
		return nil, err
	}
	shares = new(big.Int).Add(shares, minted)
	if err := e.state.PutShares(e.asset, depositor, shares); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(e.asset, pool); err != nil {
		return nil, err
	}
	e.emit(NewDepositedEvent(e.asset, depositor, amount, minted))
	return minted, nil
}

// Withdraw burns claim shares covering the requested underlying amount,
// redeeming from the money-market venue when the on-hand balance falls
// short. The burned share amount is returned.
func (e *Engine) Withdraw(supplier crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	if pool.TotalShares.Sign() == 0 {
		return nil, ErrNotEnoughBalance
	}

	// The burn rounds up so an exact-amount withdrawal can never extract more
	// underlying than the surrendered shares are worth.
	total := pool.TotalUnderlying()
	burned := new(big.Int).Mul(amount, pool.TotalShares)
	burned.Add(burned, new(big.Int).Sub(total, big.NewInt(1)))
	burned.Quo(burned, total)

	shares, err := e.loadShares(supplier)
	if err != nil {
		return nil, err
	}
	if shares.Cmp(burned) < 0 {
		return nil, ErrInsufficientShares
	}

	liquid := new(big.Int).Add(pool.IdleUnderlying, pool.AdapterUnderlying)
	if liquid.Cmp(amount) < 0 {
		return nil, ErrNotEnoughBalance
	}
	if pool.IdleUnderlying.Cmp(amount) < 0 {
		shortfall := new(big.Int).Sub(amount, pool.IdleUnderlying)
		if err := e.redeemFromAdapter(pool, shortfall); err != nil {
			return nil, err
		}
	}

	moduleAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	if moduleAcc.BalanceLend.Cmp(amount) < 0 {
		return nil, ErrNotEnoughBalance
	}
	supplierAcc, err := e.loadAccount(supplier)
	if err != nil {
		return nil, err
	}

	moduleAcc.BalanceLend = new(big.Int).Sub(moduleAcc.BalanceLend, amount)
	supplierAcc.BalanceLend = new(big.Int).Add(supplierAcc.BalanceLend, amount)

	pool.IdleUnderlying = new(big.Int).Sub(pool.IdleUnderlying, amount)
	pool.TotalShares = new(big.Int).Sub(pool.TotalShares, burned)

	if err := e.state.PutAccount(e.moduleAddress, moduleAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(supplier, supplierAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutShares(e.asset, supplier, new(big.Int).Sub(shares, burned)); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(e.asset, pool); err != nil {
		return nil, err
	}
	e.emit(NewWithdrawnEvent(e.asset, supplier, amount, burned))
	return burned, nil
}

// PrincipalOut releases loan principal to the recipient. Only the registered
// loans module may call it.
func (e *Engine) PrincipalOut(caller, recipient crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireLoans(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	liquid := new(big.Int).Add(pool.IdleUnderlying, pool.AdapterUnderlying)
	if liquid.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	if pool.IdleUnderlying.Cmp(amount) < 0 {
		shortfall := new(big.Int).Sub(amount, pool.IdleUnderlying)
		if err := e.redeemFromAdapter(pool, shortfall); err != nil {
			return err
		}
	}

	moduleAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}
	if moduleAcc.BalanceLend.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	recipientAcc, err := e.loadAccount(recipient)
	if err != nil {
		return err
	}

	moduleAcc.BalanceLend = new(big.Int).Sub(moduleAcc.BalanceLend, amount)
	recipientAcc.BalanceLend = new(big.Int).Add(recipientAcc.BalanceLend, amount)

	pool.IdleUnderlying = new(big.Int).Sub(pool.IdleUnderlying, amount)
	pool.TotalDebt = new(big.Int).Add(pool.TotalDebt, amount)

	if err := e.state.PutAccount(e.moduleAddress, moduleAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(recipient, recipientAcc); err != nil {
		return err
	}
	return e.state.PutPool(e.asset, pool)
}

// RepaymentSettle routes a borrower repayment back into the pool. Principal
// reduces outstanding debt; interest accrues to the lenders' claim. Only the
// registered loans module may call it.
func (e *Engine) RepaymentSettle(caller, borrower crypto.Address, principal, interest *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireLoans(caller); err != nil {
		return err
	}
	amount := new(big.Int)
	if principal != nil {
		amount.Add(amount, principal)
	}
	if interest != nil {
		amount.Add(amount, interest)
	}
	if amount.Sign() <= 0 {
		return errInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	borrowerAcc, err := e.loadAccount(borrower)
	if err != nil {
		return err
	}
	if err := e.checkAllowance(borrowerAcc, amount); err != nil {
		return err
	}
	if borrowerAcc.BalanceLend.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	moduleAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}

	e.spendAllowance(borrowerAcc, amount)
	borrowerAcc.BalanceLend = new(big.Int).Sub(borrowerAcc.BalanceLend, amount)
	moduleAcc.BalanceLend = new(big.Int).Add(moduleAcc.BalanceLend, amount)

	if principal != nil && principal.Sign() > 0 {
		pool.TotalDebt = new(big.Int).Sub(pool.TotalDebt, principal)
		if pool.TotalDebt.Sign() < 0 {
			pool.TotalDebt = big.NewInt(0)
		}
	}
	pool.IdleUnderlying = new(big.Int).Add(pool.IdleUnderlying, amount)
	if err := e.redeployIdle(pool, moduleAcc); err != nil {
		return err
	}

	if err := e.state.PutAccount(borrower, borrowerAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.moduleAddress, moduleAcc); err != nil {
		return err
	}
	return e.state.PutPool(e.asset, pool)
}

// LiquidationSettle routes a liquidator's debt payment into the pool,
// extinguishing the liquidated principal. Only the registered loans module
// may call it.
func (e *Engine) LiquidationSettle(caller, liquidator crypto.Address, principal, interest *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireLoans(caller); err != nil {
		return err
	}
	amount := new(big.Int)
	if principal != nil {
		amount.Add(amount, principal)
	}
	if interest != nil {
		amount.Add(amount, interest)
	}
	if amount.Sign() <= 0 {
		return errInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	liquidatorAcc, err := e.loadAccount(liquidator)
	if err != nil {
		return err
	}
	if err := e.checkAllowance(liquidatorAcc, amount); err != nil {
		return err
	}
	if liquidatorAcc.BalanceLend.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	moduleAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}

	e.spendAllowance(liquidatorAcc, amount)
	liquidatorAcc.BalanceLend = new(big.Int).Sub(liquidatorAcc.BalanceLend, amount)
	moduleAcc.BalanceLend = new(big.Int).Add(moduleAcc.BalanceLend, amount)

	if principal != nil && principal.Sign() > 0 {
		pool.TotalDebt = new(big.Int).Sub(pool.TotalDebt, principal)
		if pool.TotalDebt.Sign() < 0 {
			pool.TotalDebt = big.NewInt(0)
		}
	}
	pool.IdleUnderlying = new(big.Int).Add(pool.IdleUnderlying, amount)
	if err := e.redeployIdle(pool, moduleAcc); err != nil {
		return err
	}

	if err := e.state.PutAccount(liquidator, liquidatorAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.moduleAddress, moduleAcc); err != nil {
		return err
	}
	return e.state.PutPool(e.asset, pool)
}

// DebtToSupplyFor implements the markets view consumed by the collateral
// engine: the projected ratio, in basis points, after drawing loanAmount.
func (e *Engine) DebtToSupplyFor(_, _ string, loanAmount *big.Int) uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	pool, err := e.ensurePool()
	if err != nil {
		return 0
	}
	supply := pool.TotalUnderlying()
	if supply.Sign() == 0 {
		return 0
	}
	debt := new(big.Int).Set(pool.TotalDebt)
	if loanAmount != nil {
		debt.Add(debt, loanAmount)
	}
	debt.Mul(debt, big.NewInt(10_000))
	debt.Quo(debt, supply)
	return debt.Uint64()
}

// ExchangeRate reports the underlying value of one ray of claim shares.
func (e *Engine) ExchangeRate() (*big.Int, error) {
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	if pool.TotalShares.Sign() == 0 {
		return new(big.Int).Set(ray), nil
	}
	rate := new(big.Int).Mul(pool.TotalUnderlying(), ray)
	rate.Quo(rate, pool.TotalShares)
	return rate, nil
}

// redeployIdle pushes the pool's idle balance into the money-market venue.
// State is already updated when the venue is invoked; a venue failure aborts
// the enclosing call.
func (e *Engine) redeployIdle(pool *Pool, moduleAcc *types.Account) error {
	if e.adapter == nil {
		return nil
	}
	idle := new(big.Int).Set(pool.IdleUnderlying)
	if idle.Sign() == 0 {
		return nil
	}
	pool.IdleUnderlying = big.NewInt(0)
	pool.AdapterUnderlying = new(big.Int).Add(pool.AdapterUnderlying, idle)
	moduleAcc.BalanceLend = new(big.Int).Sub(moduleAcc.BalanceLend, idle)
	if code := e.adapter.Mint(idle); code != adapterSuccess {
		return ErrAdapterDeposit
	}
	return nil
}

// redeemFromAdapter pulls principal back from the money-market venue. The
// venue is consulted first so a refused redemption persists nothing.
func (e *Engine) redeemFromAdapter(pool *Pool, amount *big.Int) error {
	if e.adapter == nil {
		return ErrNotEnoughBalance
	}
	if pool.AdapterUnderlying.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	if code := e.adapter.RedeemUnderlying(amount); code != adapterSuccess {
		return ErrAdapterRedeem
	}
	pool.AdapterUnderlying = new(big.Int).Sub(pool.AdapterUnderlying, amount)
	pool.IdleUnderlying = new(big.Int).Add(pool.IdleUnderlying, amount)
	moduleAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}
	moduleAcc.BalanceLend = new(big.Int).Add(moduleAcc.BalanceLend, amount)
	return e.state.PutAccount(e.moduleAddress, moduleAcc)
}

func (e *Engine) requireLoans(caller crypto.Address) error {
	if len(e.loansAddress.Bytes()) == 0 {
		return ErrCallerNotLoans
	}
	if string(caller.Bytes()) != string(e.loansAddress.Bytes()) {
		return ErrCallerNotLoans
	}
	return nil
}

func (e *Engine) checkAllowance(acc *types.Account, amount *big.Int) error {
	allowance, ok := acc.Allowances[e.moduleAddress.String()]
	if !ok || allowance == nil || allowance.Cmp(amount) < 0 {
		return ErrNotEnoughAllowance
	}
	return nil
}

func (e *Engine) spendAllowance(acc *types.Account, amount *big.Int) {
	allowance := acc.Allowances[e.moduleAddress.String()]
	if allowance == nil {
		return
	}
	acc.Allowances[e.moduleAddress.String()] = new(big.Int).Sub(allowance, amount)
}

func (e *Engine) ensurePool() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.GetPool(e.asset)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, errNilPool
	}
	if pool.TotalShares == nil {
		pool.TotalShares = big.NewInt(0)
	}
	if pool.IdleUnderlying == nil {
		pool.IdleUnderlying = big.NewInt(0)
	}
	if pool.AdapterUnderlying == nil {
		pool.AdapterUnderlying = big.NewInt(0)
	}
	if pool.TotalDebt == nil {
		pool.TotalDebt = big.NewInt(0)
	}
	return pool, nil
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	if acc.BalanceLend == nil {
		acc.BalanceLend = big.NewInt(0)
	}
	if acc.BalanceColl == nil {
		acc.BalanceColl = big.NewInt(0)
	}
	if acc.Allowances == nil {
		acc.Allowances = make(map[string]*big.Int)
	}
	return acc, nil
}

func (e *Engine) loadShares(addr crypto.Address) (*big.Int, error) {
	shares, err := e.state.GetShares(e.asset, addr)
	if err != nil {
		return nil, err
	}
	if shares == nil {
		return big.NewInt(0), nil
	}
	return shares, nil
}
