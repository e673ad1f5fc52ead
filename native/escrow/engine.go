package escrow

import (
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"loanchain/core/events"
	"loanchain/core/types"
)

var (
	errNilState           = errors.New("escrow engine: state not configured")
	errEscrowNotFound     = errors.New("escrow engine: escrow not found")
	errInvalidAmount      = errors.New("escrow engine: amount must be positive")
	errCustodyUnderfunded = errors.New("escrow engine: custody account underfunded")

	// ErrLoanNotClosed is surfaced as LOAN_NOT_CLOSED.
	ErrLoanNotClosed = errors.New("escrow engine: LOAN_NOT_CLOSED")
	// ErrLoanNotLiquidated is surfaced as LOAN_NOT_LIQUIDATED.
	ErrLoanNotLiquidated = errors.New("escrow engine: LOAN_NOT_LIQUIDATED")
	// ErrCallerMustBeLoans is surfaced as CALLER_MUST_BE_LOANS.
	ErrCallerMustBeLoans = errors.New("escrow engine: CALLER_MUST_BE_LOANS")
)

type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(id [32]byte) (*Escrow, bool)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// LoanView is the slice of loan state that gates a claim. The loans module
// supplies it; the escrow engine never reads loan records directly.
type LoanView struct {
	Closed     bool
	Liquidated bool
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine wires per-loan escrow custody with external state and event
// emitters. Escrowed value is backed one-to-one by the custody account at
// moduleAddress; callers crediting an escrow move the funds there first.
type Engine struct {
	state         engineState
	emitter       events.Emitter
	moduleAddress [20]byte
	nowFn         func() int64
}

// NewEngine creates an escrow engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetModuleAddress registers the custody account backing escrowed balances.
func (e *Engine) SetModuleAddress(addr [20]byte) {
	if e == nil {
		return
	}
	e.moduleAddress = addr
}

// ModuleAddress reports the custody account escrowed funds are held at.
func (e *Engine) ModuleAddress() [20]byte {
	if e == nil {
		return [20]byte{}
	}
	return e.moduleAddress
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
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
	e.emitter.Emit(escrowEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// EscrowID derives the deterministic identifier for a loan's escrow.
func EscrowID(loanID uint64, borrower [20]byte) [32]byte {
	var loanBytes [8]byte
	binary.BigEndian.PutUint64(loanBytes[:], loanID)
	return ethcrypto.Keccak256Hash(loanBytes[:], borrower[:])
}

// Provision creates the escrow instance owned by a loan. Provisioning twice
// for the same loan returns the existing instance.
func (e *Engine) Provision(loanID uint64, borrower, recipient [20]byte) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if recipient == ([20]byte{}) {
		recipient = borrower
	}
	id := EscrowID(loanID, borrower)
	if existing, ok := e.state.EscrowGet(id); ok {
		return existing.Clone(), nil
	}
	esc := &Escrow{
		ID:          id,
		LoanID:      loanID,
		Borrower:    borrower,
		Recipient:   recipient,
		BalanceLend: big.NewInt(0),
		BalanceColl: big.NewInt(0),
		CreatedAt:   e.now(),
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}
	e.emit(NewProvisionedEvent(esc))
	return esc.Clone(), nil
}

// CreditColl parks collateral-asset value inside the escrow.
func (e *Engine) CreditColl(id [32]byte, amount *big.Int) error {
	return e.credit(id, amount, false)
}

// CreditLend parks lending-asset value inside the escrow.
func (e *Engine) CreditLend(id [32]byte, amount *big.Int) error {
	return e.credit(id, amount, true)
}

func (e *Engine) credit(id [32]byte, amount *big.Int, lend bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	esc, ok := e.state.EscrowGet(id)
	if !ok {
		return errEscrowNotFound
	}
	if lend {
		esc.BalanceLend = new(big.Int).Add(balanceOrZero(esc.BalanceLend), amount)
	} else {
		esc.BalanceColl = new(big.Int).Add(balanceOrZero(esc.BalanceColl), amount)
	}
	return e.state.EscrowPut(esc)
}

// Claim releases the escrowed balances to the caller. The loan must be
// closed; on a non-liquidated close nothing is claimable by the parties
// directly, and on a liquidated close only the recipient may claim the
// remainder.
func (e *Engine) Claim(id [32]byte, caller [20]byte, loan LoanView) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	esc, ok := e.state.EscrowGet(id)
	if !ok {
		return nil, errEscrowNotFound
	}
	if !loan.Closed {
		return nil, ErrLoanNotClosed
	}
	if !loan.Liquidated {
		if caller == esc.Borrower || caller == esc.Recipient {
			return nil, ErrLoanNotLiquidated
		}
		return nil, ErrCallerMustBeLoans
	}
	if caller != esc.Recipient {
		return nil, ErrCallerMustBeLoans
	}

	lendAmt := balanceOrZero(esc.BalanceLend)
	collAmt := balanceOrZero(esc.BalanceColl)

	if lendAmt.Sign() > 0 || collAmt.Sign() > 0 {
		// Released value leaves the custody account; the ledger balance alone
		// is never paid out.
		custodyAcc, err := e.state.GetAccount(e.moduleAddress[:])
		if err != nil {
			return nil, err
		}
		custodyAcc = ensureAccount(custodyAcc)
		if custodyAcc.BalanceLend.Cmp(lendAmt) < 0 || custodyAcc.BalanceColl.Cmp(collAmt) < 0 {
			return nil, errCustodyUnderfunded
		}
		custodyAcc.BalanceLend = new(big.Int).Sub(custodyAcc.BalanceLend, lendAmt)
		custodyAcc.BalanceColl = new(big.Int).Sub(custodyAcc.BalanceColl, collAmt)
		if err := e.state.PutAccount(e.moduleAddress[:], custodyAcc); err != nil {
			return nil, err
		}
	}

	esc.BalanceLend = big.NewInt(0)
	esc.BalanceColl = big.NewInt(0)
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}

	if lendAmt.Sign() > 0 || collAmt.Sign() > 0 {
		callerAcc, err := e.state.GetAccount(caller[:])
		if err != nil {
			return nil, err
		}
		callerAcc = ensureAccount(callerAcc)
		callerAcc.BalanceLend = new(big.Int).Add(callerAcc.BalanceLend, lendAmt)
		callerAcc.BalanceColl = new(big.Int).Add(callerAcc.BalanceColl, collAmt)
		if err := e.state.PutAccount(caller[:], callerAcc); err != nil {
			return nil, err
		}
	}

	e.emit(NewClaimedEvent(esc, caller, lendAmt, collAmt))
	return esc.Clone(), nil
}

func balanceOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		acc = &types.Account{}
	}
	if acc.BalanceLend == nil {
		acc.BalanceLend = big.NewInt(0)
	}
	if acc.BalanceColl == nil {
		acc.BalanceColl = big.NewInt(0)
	}
	return acc
}
