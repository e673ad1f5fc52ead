package state

import (
	"errors"
	"math/big"
	"sync"

	"loanchain/core/types"
	"loanchain/crypto"
	"loanchain/native/escrow"
	"loanchain/native/loans"
	"loanchain/native/pool"
)

var errNilRecord = errors.New("state: nil record")

// Manager is the in-memory ledger state backing every native engine. All
// reads and writes go through deep copies so engines never alias stored
// records.
type Manager struct {
	mu         sync.RWMutex
	accounts   map[string]*types.Account
	loans      map[uint64]*loans.Loan
	nextLoanID uint64
	pools      map[string]*pool.Pool
	shares     map[string]map[string]*big.Int
	escrows    map[[32]byte]*escrow.Escrow
}

// NewManager returns an empty ledger state.
func NewManager() *Manager {
	return &Manager{
		accounts:   make(map[string]*types.Account),
		loans:      make(map[uint64]*loans.Loan),
		nextLoanID: 1,
		pools:      make(map[string]*pool.Pool),
		shares:     make(map[string]map[string]*big.Int),
		escrows:    make(map[[32]byte]*escrow.Escrow),
	}
}

// GetAccount returns a copy of the stored account, or nil when unknown.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[string(addr.Bytes())].Clone(), nil
}

// PutAccount stores a copy of the account under the address.
func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	if account == nil {
		return errNilRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[string(addr.Bytes())] = account.Clone()
	return nil
}

// GetLoan returns a copy of the stored loan, or nil when unknown.
func (m *Manager) GetLoan(id uint64) (*loans.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loans[id].Clone(), nil
}

// PutLoan stores a copy of the loan keyed by its id.
func (m *Manager) PutLoan(loan *loans.Loan) error {
	if loan == nil {
		return errNilRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan.Clone()
	return nil
}

// NextLoanID hands out monotonically increasing loan identifiers.
func (m *Manager) NextLoanID() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextLoanID
	m.nextLoanID++
	return id, nil
}

// GetPool returns a copy of the asset's pool, creating an empty one on first
// use.
func (m *Manager) GetPool(asset string) (*pool.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[asset]
	if !ok {
		p = &pool.Pool{
			TotalShares:       big.NewInt(0),
			IdleUnderlying:    big.NewInt(0),
			AdapterUnderlying: big.NewInt(0),
			TotalDebt:         big.NewInt(0),
		}
		m.pools[asset] = p
	}
	return p.Clone(), nil
}

// PutPool stores a copy of the asset's pool record.
func (m *Manager) PutPool(asset string, p *pool.Pool) error {
	if p == nil {
		return errNilRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[asset] = p.Clone()
	return nil
}

// GetShares returns the supplier's claim share balance for the asset, or nil
// when none is recorded.
func (m *Manager) GetShares(asset string, addr crypto.Address) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byAddr, ok := m.shares[asset]
	if !ok {
		return nil, nil
	}
	balance, ok := byAddr[string(addr.Bytes())]
	if !ok || balance == nil {
		return nil, nil
	}
	return new(big.Int).Set(balance), nil
}

// PutShares stores the supplier's claim share balance for the asset.
func (m *Manager) PutShares(asset string, addr crypto.Address, shares *big.Int) error {
	if shares == nil {
		return errNilRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byAddr, ok := m.shares[asset]
	if !ok {
		byAddr = make(map[string]*big.Int)
		m.shares[asset] = byAddr
	}
	byAddr[string(addr.Bytes())] = new(big.Int).Set(shares)
	return nil
}

// EscrowPut stores a copy of the escrow keyed by its id.
func (m *Manager) EscrowPut(esc *escrow.Escrow) error {
	if esc == nil {
		return errNilRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escrows[esc.ID] = esc.Clone()
	return nil
}

// EscrowGet returns a copy of the escrow and whether it exists.
func (m *Manager) EscrowGet(id [32]byte) (*escrow.Escrow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	esc, ok := m.escrows[id]
	if !ok {
		return nil, false
	}
	return esc.Clone(), true
}

// EscrowState adapts the manager to the raw-address account view the escrow
// engine works with. Accounts are shared with the address-typed view.
func (m *Manager) EscrowState() *EscrowView {
	return &EscrowView{manager: m}
}

// EscrowView exposes the manager with accounts keyed by raw 20-byte
// addresses.
type EscrowView struct {
	manager *Manager
}

func (v *EscrowView) EscrowPut(esc *escrow.Escrow) error { return v.manager.EscrowPut(esc) }

func (v *EscrowView) EscrowGet(id [32]byte) (*escrow.Escrow, bool) { return v.manager.EscrowGet(id) }

func (v *EscrowView) GetAccount(addr []byte) (*types.Account, error) {
	v.manager.mu.RLock()
	defer v.manager.mu.RUnlock()
	return v.manager.accounts[string(addr)].Clone(), nil
}

func (v *EscrowView) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return errNilRecord
	}
	v.manager.mu.Lock()
	defer v.manager.mu.Unlock()
	v.manager.accounts[string(addr)] = account.Clone()
	return nil
}

// Fund credits spendable balances directly, used at genesis and in tests.
func (m *Manager) Fund(addr crypto.Address, lend, coll *big.Int) error {
	acc, err := m.GetAccount(addr)
	if err != nil {
		return err
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
	if lend != nil {
		acc.BalanceLend = new(big.Int).Add(acc.BalanceLend, lend)
	}
	if coll != nil {
		acc.BalanceColl = new(big.Int).Add(acc.BalanceColl, coll)
	}
	return m.PutAccount(addr, acc)
}

// Approve grants the spender an allowance on the owner's lending-asset
// balance.
func (m *Manager) Approve(owner, spender crypto.Address, amount *big.Int) error {
	acc, err := m.GetAccount(owner)
	if err != nil {
		return err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	if acc.Allowances == nil {
		acc.Allowances = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	acc.Allowances[spender.String()] = new(big.Int).Set(amount)
	return m.PutAccount(owner, acc)
}
