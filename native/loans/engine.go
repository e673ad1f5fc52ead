package loans

import (
	"errors"
	"math/big"
	"time"

	"loanchain/core/events"
	"loanchain/core/types"
	"loanchain/crypto"
	"loanchain/native/collateral"
	nativecommon "loanchain/native/common"
	"loanchain/native/consensus"
	"loanchain/native/escrow"
	"loanchain/native/params"
)

var (
	errNilState      = errors.New("loans engine: state not configured")
	errNilConsensus  = errors.New("loans engine: terms consensus not configured")
	errNilCollateral = errors.New("loans engine: collateral engine not configured")
	errNilPool       = errors.New("loans engine: lending pool not configured")
	errNilSettings   = errors.New("loans engine: settings not configured")
	errPlatformHalt  = errors.New("loans engine: platform paused")
	errInvalidAmount = errors.New("loans engine: amount must be positive")
	errLoanNotFound  = errors.New("loans engine: loan not found")
	errNotBorrower   = errors.New("loans engine: caller is not the borrower")
	errDurationCap   = errors.New("loans engine: duration exceeds maximum")

	// ErrAmountExceedsMax is surfaced as AMOUNT_EXCEEDS_MAX_AMOUNT.
	ErrAmountExceedsMax = errors.New("loans engine: AMOUNT_EXCEEDS_MAX_AMOUNT")
	// ErrTermsNotSet indicates the loan is past the terms-set state.
	ErrTermsNotSet = errors.New("loans engine: loan terms not set")
	// ErrTermsExpired is surfaced as LOAN_TERMS_EXPIRED.
	ErrTermsExpired = errors.New("loans engine: LOAN_TERMS_EXPIRED")
	// ErrCollateralTooRecent is surfaced as COLLATERAL_DEPOSITED_RECENTLY.
	ErrCollateralTooRecent = errors.New("loans engine: COLLATERAL_DEPOSITED_RECENTLY")
	// ErrMaxLoanExceeded is surfaced as MAX_LOAN_EXCEEDED.
	ErrMaxLoanExceeded = errors.New("loans engine: MAX_LOAN_EXCEEDED")
	// ErrMoreCollateralRequired is surfaced as MORE_COLLATERAL_REQUIRED.
	ErrMoreCollateralRequired = errors.New("loans engine: MORE_COLLATERAL_REQUIRED")
	// ErrLoanNotActive is surfaced as LOAN_NOT_ACTIVE.
	ErrLoanNotActive = errors.New("loans engine: LOAN_NOT_ACTIVE")
	// ErrNotLiquidatable indicates the loan fails every liquidation trigger.
	ErrNotLiquidatable = errors.New("loans engine: loan not eligible for liquidation")
	// ErrInsufficientCollateral indicates a withdrawal would leave the
	// position below its required collateral.
	ErrInsufficientCollateral = errors.New("loans engine: insufficient collateral balance")
)

const (
	moduleName     = "loans"
	secondsPerYear = 31_536_000
)

var basisPoints = big.NewInt(10_000)

type engineState interface {
	GetLoan(id uint64) (*Loan, error)
	PutLoan(loan *Loan) error
	NextLoanID() (uint64, error)
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

type loanEvent struct {
	evt *types.Event
}

func (e loanEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e loanEvent) Event() *types.Event { return e.evt }

// Engine owns the per-loan lifecycle: terms aggregation through the consensus
// validator, collateralization, activation against the lending pool, and
// repayment or liquidation back through it.
type Engine struct {
	state             engineState
	validator         *consensus.Validator
	collateral        *collateral.Engine
	pool              poolEngine
	escrows           *escrow.Engine
	settings          params.SettingsView
	pauses            nativecommon.PauseView
	emitter           events.Emitter
	moduleAddress     crypto.Address
	collateralAddress crypto.Address
	lendAsset         string
	nowFn             func() int64
}

// poolEngine narrows the lending-pool surface the loans engine needs. The
// concrete pool engine satisfies it.
type poolEngine interface {
	PrincipalOut(caller, recipient crypto.Address, amount *big.Int) error
	RepaymentSettle(caller, payer crypto.Address, principal, interest *big.Int) error
	LiquidationSettle(caller, liquidator crypto.Address, principal, interest *big.Int) error
}

// NewEngine constructs a loans engine identified to the pool by moduleAddr,
// custodying locked collateral at collateralAddr.
func NewEngine(lendAsset string, moduleAddr, collateralAddr crypto.Address, settings params.SettingsView) *Engine {
	return &Engine{
		lendAsset:         lendAsset,
		moduleAddress:     moduleAddr,
		collateralAddress: collateralAddr,
		settings:          settings,
		emitter:           events.NoopEmitter{},
		nowFn:             func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetValidator wires the terms consensus validator.
func (e *Engine) SetValidator(v *consensus.Validator) {
	if e == nil {
		return
	}
	e.validator = v
}

// SetCollateralEngine wires the collateral and liquidation engine.
func (e *Engine) SetCollateralEngine(c *collateral.Engine) {
	if e == nil {
		return
	}
	e.collateral = c
}

// SetPool wires the lending pool the engine draws principal from and settles
// into.
func (e *Engine) SetPool(p poolEngine) {
	if e == nil {
		return
	}
	e.pool = p
}

// SetEscrowEngine wires the per-loan escrow engine.
func (e *Engine) SetEscrowEngine(esc *escrow.Engine) {
	if e == nil {
		return
	}
	e.escrows = esc
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

// SetNowFunc overrides the time source, primarily for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(loanEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) guard() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.settings == nil {
		return errNilSettings
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if e.settings.IsPaused() {
		return errPlatformHalt
	}
	return nil
}

// CreateLoanWithTerms runs the quorum validation over the signed responses
// and records a loan in the terms-set state, optionally locking an initial
// collateral deposit.
func (e *Engine) CreateLoanWithTerms(request consensus.LoanTermsRequest, responses []consensus.LoanTermsResponse, collateralAmount *big.Int) (*Loan, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if e.validator == nil {
		return nil, errNilConsensus
	}
	maxDuration, err := e.settings.PlatformSettingValue(params.MaximumLoanDuration)
	if err != nil {
		return nil, err
	}
	if maxDuration > 0 && request.Duration > maxDuration {
		return nil, errDurationCap
	}

	terms, err := e.validator.ProcessRequest(request, responses)
	if err != nil {
		return nil, err
	}
	if assetMax := e.assetMaxLoanAmount(); assetMax != nil {
		if request.Amount.Cmp(assetMax) > 0 || terms.MaxLoanAmount.Cmp(assetMax) > 0 {
			return nil, ErrAmountExceedsMax
		}
	}
	if collateralAmount != nil && collateralAmount.Sign() > 0 && collateralAmount.Cmp(terms.MaxLoanAmount) > 0 {
		return nil, ErrAmountExceedsMax
	}

	// The aggregated terms are committed: consume every signer nonce so the
	// responses can never be replayed.
	registry := e.validator.Registry()
	for _, resp := range responses {
		if err := registry.ConsumeNonce(resp.Signer, resp.SignerNonce); err != nil {
			return nil, err
		}
	}

	id, err := e.state.NextLoanID()
	if err != nil {
		return nil, err
	}
	expiryWindow, err := e.settings.PlatformSettingValue(params.TermsExpiryTime)
	if err != nil {
		return nil, err
	}
	now := e.now()

	recipient := request.Recipient
	if len(recipient.Bytes()) != 20 {
		recipient = request.Borrower
	}
	loan := &Loan{
		ID: id,
		Terms: LoanTerms{
			Borrower:        request.Borrower,
			Recipient:       recipient,
			InterestRate:    terms.InterestRate,
			CollateralRatio: terms.CollateralRatio,
			MaxLoanAmount:   new(big.Int).Set(terms.MaxLoanAmount),
			Duration:        request.Duration,
		},
		TermsExpiry:    now + int64(expiryWindow),
		Collateral:     big.NewInt(0),
		PrincipalOwed:  big.NewInt(0),
		InterestOwed:   big.NewInt(0),
		BorrowedAmount: big.NewInt(0),
		Status:         StatusTermsSet,
	}

	if collateralAmount != nil && collateralAmount.Sign() > 0 {
		if err := e.transferColl(request.Borrower, e.collateralAddress, collateralAmount); err != nil {
			return nil, err
		}
		loan.Collateral = new(big.Int).Set(collateralAmount)
		loan.LastCollateralIn = now
	}

	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	e.emit(NewTermsSetEvent(loan))
	return loan.Clone(), nil
}

// DepositCollateral locks additional collateral against a loan in the
// terms-set or active state.
func (e *Engine) DepositCollateral(depositor crypto.Address, loanID uint64, amount *big.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	loan, err := e.loadLoan(loanID)
	if err != nil {
		return err
	}
	if loan.Status != StatusTermsSet && loan.Status != StatusActive {
		return ErrLoanNotActive
	}
	projected := new(big.Int).Add(loan.Collateral, amount)
	if assetMax := e.assetMaxLoanAmount(); assetMax != nil && projected.Cmp(assetMax) > 0 {
		return ErrAmountExceedsMax
	}
	if err := e.transferColl(depositor, e.collateralAddress, amount); err != nil {
		return err
	}
	loan.Collateral = projected
	loan.LastCollateralIn = e.now()
	if err := e.state.PutLoan(loan); err != nil {
		return err
	}
	e.emit(NewCollateralDepositedEvent(loan, depositor, amount))
	return nil
}

// WithdrawCollateral releases locked collateral back to the borrower. Before
// activation the full amount is free; while active the remainder must keep
// the position healthy within the collateral buffer.
func (e *Engine) WithdrawCollateral(caller crypto.Address, loanID uint64, amount *big.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	loan, err := e.loadLoan(loanID)
	if err != nil {
		return err
	}
	if !sameAddress(caller, loan.Terms.Borrower) {
		return errNotBorrower
	}
	if loan.Status != StatusTermsSet && loan.Status != StatusActive {
		return ErrLoanNotActive
	}
	if loan.Collateral.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	remaining := new(big.Int).Sub(loan.Collateral, amount)
	if loan.Status == StatusActive {
		if e.collateral == nil {
			return errNilCollateral
		}
		required, err := e.collateral.RequiredCollateral(e.position(loan))
		if err != nil {
			return err
		}
		bufferBps, err := e.settings.PlatformSettingValue(params.CollateralBuffer)
		if err != nil {
			return err
		}
		floor := new(big.Int).Mul(required, new(big.Int).SetUint64(bufferBps))
		floor.Quo(floor, basisPoints)
		if remaining.Cmp(floor) < 0 {
			return ErrMoreCollateralRequired
		}
	}
	loan.Collateral = remaining
	if err := e.state.PutLoan(loan); err != nil {
		return err
	}
	if err := e.transferColl(e.collateralAddress, caller, amount); err != nil {
		return err
	}
	e.emit(NewCollateralWithdrawnEvent(loan, caller, amount))
	return nil
}

// TakeOutLoan draws principal against set terms, activating the loan. The
// guard order follows the protocol: amount ceiling, terms expiry, collateral
// cooldown, market debt ceiling, then collateral sufficiency.
func (e *Engine) TakeOutLoan(caller crypto.Address, loanID uint64, amount *big.Int) (*Loan, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if e.collateral == nil {
		return nil, errNilCollateral
	}
	if e.pool == nil {
		return nil, errNilPool
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	loan, err := e.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !sameAddress(caller, loan.Terms.Borrower) {
		return nil, errNotBorrower
	}
	if loan.Status != StatusTermsSet {
		return nil, ErrTermsNotSet
	}
	if amount.Cmp(loan.Terms.MaxLoanAmount) > 0 {
		return nil, ErrMaxLoanExceeded
	}
	now := e.now()
	if now > loan.TermsExpiry {
		return nil, ErrTermsExpired
	}
	safetyInterval, err := e.settings.PlatformSettingValue(params.SafetyInterval)
	if err != nil {
		return nil, err
	}
	if loan.LastCollateralIn > 0 && now-loan.LastCollateralIn < int64(safetyInterval) {
		return nil, ErrCollateralTooRecent
	}
	if assetMax := e.assetMaxLoanAmount(); assetMax != nil && amount.Cmp(assetMax) > 0 {
		return nil, ErrAmountExceedsMax
	}
	if err := e.collateral.CheckDebtToSupply(amount); err != nil {
		return nil, err
	}

	interestOwed := computeInterestOwed(amount, loan.Terms.InterestRate, loan.Terms.Duration)
	projected := collateral.Position{
		PrincipalOwed:      amount,
		InterestOwed:       interestOwed,
		Collateral:         loan.Collateral,
		CollateralRatioBps: loan.Terms.CollateralRatio,
		LastCollateralIn:   loan.LastCollateralIn,
	}
	under, err := e.collateral.IsUndercollateralized(projected)
	if err != nil {
		return nil, err
	}
	if under {
		return nil, ErrMoreCollateralRequired
	}

	loan.LoanStartTime = now
	loan.PrincipalOwed = new(big.Int).Set(amount)
	loan.InterestOwed = interestOwed
	loan.BorrowedAmount = new(big.Int).Set(amount)
	loan.Status = StatusActive

	if e.escrows != nil {
		var borrower, recipient [20]byte
		copy(borrower[:], loan.Terms.Borrower.Bytes())
		copy(recipient[:], loan.Terms.Recipient.Bytes())
		esc, err := e.escrows.Provision(loan.ID, borrower, recipient)
		if err != nil {
			return nil, err
		}
		loan.EscrowID = esc.ID
		loan.HasEscrow = true
	}

	// The record flips active only once the pool has released the principal;
	// a refused draw leaves the stored terms-set loan untouched.
	if err := e.pool.PrincipalOut(e.moduleAddress, loan.Terms.Recipient, amount); err != nil {
		return nil, err
	}
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	e.emit(NewTakenOutEvent(loan, amount))
	return loan.Clone(), nil
}

// Repay reduces the outstanding balance, interest before principal, routing
// the payment into the lending pool. When nothing remains owed the loan
// closes and the locked collateral returns to the borrower.
func (e *Engine) Repay(payer crypto.Address, loanID uint64, amount *big.Int) (*Loan, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if e.pool == nil {
		return nil, errNilPool
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	loan, err := e.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != StatusActive {
		return nil, ErrLoanNotActive
	}

	owed := new(big.Int).Add(loan.PrincipalOwed, loan.InterestOwed)
	payment := new(big.Int).Set(amount)
	if payment.Cmp(owed) > 0 {
		payment.Set(owed)
	}

	interestPart := new(big.Int).Set(loan.InterestOwed)
	if interestPart.Cmp(payment) > 0 {
		interestPart.Set(payment)
	}
	principalPart := new(big.Int).Sub(payment, interestPart)

	loan.InterestOwed = new(big.Int).Sub(loan.InterestOwed, interestPart)
	loan.PrincipalOwed = new(big.Int).Sub(loan.PrincipalOwed, principalPart)

	closed := loan.PrincipalOwed.Sign() == 0 && loan.InterestOwed.Sign() == 0
	releasedCollateral := big.NewInt(0)
	if closed {
		loan.Status = StatusClosed
		releasedCollateral = new(big.Int).Set(loan.Collateral)
		loan.Collateral = big.NewInt(0)
	}

	// The payment must land in the pool before the reduced balance persists;
	// a refused settlement leaves the stored loan untouched.
	if err := e.pool.RepaymentSettle(e.moduleAddress, payer, principalPart, interestPart); err != nil {
		return nil, err
	}
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	if releasedCollateral.Sign() > 0 {
		if err := e.transferColl(e.collateralAddress, loan.Terms.Borrower, releasedCollateral); err != nil {
			return nil, err
		}
	}
	e.emit(NewRepaidEvent(loan, payer, payment))
	return loan.Clone(), nil
}

// Liquidate closes an eligible loan: the liquidator covers the outstanding
// balance through the pool and receives the liquidation payout in collateral.
// Any collateral beyond the payout stays with the loan's escrow for the
// borrower to claim.
func (e *Engine) Liquidate(liquidator crypto.Address, loanID uint64) (*Loan, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if e.collateral == nil {
		return nil, errNilCollateral
	}
	if e.pool == nil {
		return nil, errNilPool
	}
	loan, err := e.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != StatusActive {
		return nil, ErrLoanNotActive
	}
	now := e.now()
	position := e.position(loan)
	eligible, err := e.collateral.CanLiquidate(position, now)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrNotLiquidatable
	}

	payout, err := e.collateral.LiquidationPayout(position)
	if err != nil {
		return nil, err
	}
	remainder := new(big.Int).Sub(loan.Collateral, payout)
	principal := new(big.Int).Set(loan.PrincipalOwed)
	interest := new(big.Int).Set(loan.InterestOwed)

	loan.PrincipalOwed = big.NewInt(0)
	loan.InterestOwed = big.NewInt(0)
	loan.Collateral = big.NewInt(0)
	loan.Liquidated = true
	loan.Status = StatusClosed

	// The liquidator's payment must land in the pool before the closed loan
	// persists; a refused settlement leaves the stored loan untouched.
	if err := e.pool.LiquidationSettle(e.moduleAddress, liquidator, principal, interest); err != nil {
		return nil, err
	}
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	if payout.Sign() > 0 {
		if err := e.transferColl(e.collateralAddress, liquidator, payout); err != nil {
			return nil, err
		}
	}
	if remainder.Sign() > 0 {
		custody := [20]byte{}
		if loan.HasEscrow && e.escrows != nil {
			custody = e.escrows.ModuleAddress()
		}
		if custody != ([20]byte{}) {
			// The ledger credit is backed by moving the collateral out of the
			// vault into escrow custody.
			custodyAddr := crypto.MustNewAddress(e.collateralAddress.Prefix(), custody[:])
			if err := e.transferColl(e.collateralAddress, custodyAddr, remainder); err != nil {
				return nil, err
			}
			if err := e.escrows.CreditColl(loan.EscrowID, remainder); err != nil {
				return nil, err
			}
		}
		// Without an escrow the remainder stays in module custody; it is not
		// refunded by the liquidation itself.
	}
	e.emit(NewLiquidatedEvent(loan, liquidator, payout))
	return loan.Clone(), nil
}

// ClaimEscrow releases the loan's escrowed balances, gated by the loan's
// terminal liquidation state.
func (e *Engine) ClaimEscrow(caller crypto.Address, loanID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.escrows == nil {
		return errNilState
	}
	loan, err := e.loadLoan(loanID)
	if err != nil {
		return err
	}
	if !loan.HasEscrow {
		return errLoanNotFound
	}
	var callerRaw [20]byte
	copy(callerRaw[:], caller.Bytes())
	_, err = e.escrows.Claim(loan.EscrowID, callerRaw, escrow.LoanView{
		Closed:     loan.Status == StatusClosed,
		Liquidated: loan.Liquidated,
	})
	return err
}

// Loan returns a copy of the stored loan record.
func (e *Engine) Loan(loanID uint64) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, err := e.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	return loan.Clone(), nil
}

func (e *Engine) position(loan *Loan) collateral.Position {
	return collateral.Position{
		PrincipalOwed:      loan.PrincipalOwed,
		InterestOwed:       loan.InterestOwed,
		Collateral:         loan.Collateral,
		CollateralRatioBps: loan.Terms.CollateralRatio,
		LoanStartTime:      loan.LoanStartTime,
		Duration:           loan.Terms.Duration,
		LastCollateralIn:   loan.LastCollateralIn,
	}
}

func (e *Engine) assetMaxLoanAmount() *big.Int {
	settings, ok := e.settings.AssetSettings(e.lendAsset)
	if !ok {
		return nil
	}
	return settings.MaxLoanAmount
}

func (e *Engine) loadLoan(id uint64) (*Loan, error) {
	loan, err := e.state.GetLoan(id)
	if err != nil {
		return nil, err
	}
	if loan == nil || loan.Status == StatusNonExistent {
		return nil, errLoanNotFound
	}
	if loan.Collateral == nil {
		loan.Collateral = big.NewInt(0)
	}
	if loan.PrincipalOwed == nil {
		loan.PrincipalOwed = big.NewInt(0)
	}
	if loan.InterestOwed == nil {
		loan.InterestOwed = big.NewInt(0)
	}
	if loan.BorrowedAmount == nil {
		loan.BorrowedAmount = big.NewInt(0)
	}
	if loan.Terms.MaxLoanAmount == nil {
		loan.Terms.MaxLoanAmount = big.NewInt(0)
	}
	return loan, nil
}

func (e *Engine) transferColl(from, to crypto.Address, amount *big.Int) error {
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.BalanceColl.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	fromAcc.BalanceColl = new(big.Int).Sub(fromAcc.BalanceColl, amount)
	toAcc.BalanceColl = new(big.Int).Add(toAcc.BalanceColl, amount)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
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
	return acc, nil
}

// computeInterestOwed applies the agreed rate over the loan duration:
// floor(amount * rateBps * duration / (10000 * secondsPerYear)).
func computeInterestOwed(amount *big.Int, rateBps, duration uint64) *big.Int {
	interest := new(big.Int).Mul(amount, new(big.Int).SetUint64(rateBps))
	interest.Mul(interest, new(big.Int).SetUint64(duration))
	interest.Quo(interest, basisPoints)
	interest.Quo(interest, big.NewInt(secondsPerYear))
	return interest
}

func sameAddress(a, b crypto.Address) bool {
	return string(a.Bytes()) == string(b.Bytes())
}
