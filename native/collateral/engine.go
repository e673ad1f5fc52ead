package collateral

import (
	"errors"
	"math/big"

	"loanchain/native/atm"
	"loanchain/native/params"
)

var (
	errNilOracle   = errors.New("collateral engine: price oracle not configured")
	errNilMarkets  = errors.New("collateral engine: markets state not configured")
	errNilSettings = errors.New("collateral engine: settings not configured")

	// ErrATMPaused indicates the market governance instance halted the market.
	ErrATMPaused = errors.New("collateral engine: atm paused")
	// ErrDebtToSupplyExceeded is surfaced as SUPPLY_TO_DEBT_EXCEEDS_MAX.
	ErrDebtToSupplyExceeded = errors.New("collateral engine: SUPPLY_TO_DEBT_EXCEEDS_MAX")
)

var basisPoints = big.NewInt(10_000)

// PriceView reports the current exchange rate between the collateral and
// lending assets as an integer fraction: one wei of collateral is worth
// num/den wei of the lending asset.
type PriceView interface {
	Rate(lendAsset, collAsset string) (num, den *big.Int, err error)
}

// MarketsView reports the projected market-wide debt-to-supply ratio, in
// basis points, were the given amount borrowed on top of current debt.
type MarketsView interface {
	DebtToSupplyFor(lendAsset, collAsset string, loanAmount *big.Int) uint64
}

// Position is the collateral-relevant slice of a loan the engine evaluates.
// Amounts owed are in lending-asset wei, collateral in collateral-asset wei.
type Position struct {
	PrincipalOwed      *big.Int
	InterestOwed       *big.Int
	Collateral         *big.Int
	CollateralRatioBps uint64
	LoanStartTime      int64
	Duration           uint64
	LastCollateralIn   int64
}

// Engine computes collateral requirements and liquidation eligibility for one
// (lending asset, collateral asset) market.
type Engine struct {
	lendAsset string
	collAsset string
	settings  params.SettingsView
	oracle    PriceView
	markets   MarketsView
	atms      atm.View
}

// NewEngine constructs a collateral engine scoped to a market pair.
func NewEngine(lendAsset, collAsset string, settings params.SettingsView) *Engine {
	return &Engine{
		lendAsset: lendAsset,
		collAsset: collAsset,
		settings:  settings,
	}
}

// SetOracle wires the price oracle capability.
func (e *Engine) SetOracle(oracle PriceView) {
	if e == nil {
		return
	}
	e.oracle = oracle
}

// SetMarkets wires the market-state capability used for debt-to-supply checks.
func (e *Engine) SetMarkets(markets MarketsView) {
	if e == nil {
		return
	}
	e.markets = markets
}

// SetATMView wires the market governance view.
func (e *Engine) SetATMView(view atm.View) {
	if e == nil {
		return
	}
	e.atms = view
}

func (e *Engine) owed(p Position) *big.Int {
	owed := new(big.Int)
	if p.PrincipalOwed != nil {
		owed.Add(owed, p.PrincipalOwed)
	}
	if p.InterestOwed != nil {
		owed.Add(owed, p.InterestOwed)
	}
	return owed
}

// RequiredCollateral returns the collateral-asset amount the position must
// hold: owed * collateralRatio / 10000, converted at the oracle rate.
func (e *Engine) RequiredCollateral(p Position) (*big.Int, error) {
	if e == nil || e.oracle == nil {
		return nil, errNilOracle
	}
	owed := e.owed(p)
	if owed.Sign() == 0 {
		return big.NewInt(0), nil
	}
	required := new(big.Int).Mul(owed, new(big.Int).SetUint64(p.CollateralRatioBps))
	required.Quo(required, basisPoints)
	return e.lendToColl(required)
}

// IsUndercollateralized compares the held collateral against the required
// amount scaled by the over-collateralization buffer.
func (e *Engine) IsUndercollateralized(p Position) (bool, error) {
	if e == nil || e.settings == nil {
		return false, errNilSettings
	}
	required, err := e.RequiredCollateral(p)
	if err != nil {
		return false, err
	}
	if required.Sign() == 0 {
		return false, nil
	}
	bufferBps, err := e.settings.PlatformSettingValue(params.OverCollateralizedBuffer)
	if err != nil {
		return false, err
	}
	buffered := new(big.Int).Mul(required, new(big.Int).SetUint64(bufferBps))
	buffered.Quo(buffered, basisPoints)
	held := big.NewInt(0)
	if p.Collateral != nil {
		held = p.Collateral
	}
	return held.Cmp(buffered) < 0, nil
}

// CanLiquidate reports liquidation eligibility: an undercollateralized
// position, an expired loan with unpaid balance, or a stale collateral window
// elapsed with an active unpaid balance.
func (e *Engine) CanLiquidate(p Position, now int64) (bool, error) {
	owed := e.owed(p)
	if owed.Sign() == 0 {
		return false, nil
	}
	under, err := e.IsUndercollateralized(p)
	if err != nil {
		return false, err
	}
	if under {
		return true, nil
	}
	if p.LoanStartTime > 0 && now > p.LoanStartTime+int64(p.Duration) {
		return true, nil
	}
	window, err := e.settings.PlatformSettingValue(params.StaleCollateralWindow)
	if err != nil {
		return false, err
	}
	if window > 0 && p.LastCollateralIn > 0 && now-p.LastCollateralIn > int64(window) {
		return true, nil
	}
	return false, nil
}

// LiquidationPayout returns the collateral-asset amount released to the
// liquidator: min(held collateral, owed scaled by the liquidation reward).
// Any remainder is not refunded here; it stays with the loan's escrow.
func (e *Engine) LiquidationPayout(p Position) (*big.Int, error) {
	if e == nil || e.settings == nil {
		return nil, errNilSettings
	}
	held := big.NewInt(0)
	if p.Collateral != nil {
		held = new(big.Int).Set(p.Collateral)
	}
	owed := e.owed(p)
	if owed.Sign() == 0 {
		return big.NewInt(0), nil
	}
	rewardBps, err := e.settings.PlatformSettingValue(params.LiquidateRewardBps)
	if err != nil {
		return nil, err
	}
	payout := new(big.Int).Mul(owed, new(big.Int).SetUint64(rewardBps))
	payout.Quo(payout, basisPoints)
	payout, err = e.lendToColl(payout)
	if err != nil {
		return nil, err
	}
	if payout.Cmp(held) > 0 {
		payout = held
	}
	return payout, nil
}

// CheckDebtToSupply rejects a borrow whose projected market-wide
// debt-to-supply ratio exceeds the ATM-governed ceiling for this market.
func (e *Engine) CheckDebtToSupply(loanAmount *big.Int) error {
	if e == nil || e.markets == nil {
		return errNilMarkets
	}
	if e.atms == nil {
		// No governance instance bound: nothing constrains the market.
		return nil
	}
	atmID, ok := e.atms.ATMForMarket(e.lendAsset, e.collAsset)
	if !ok {
		return nil
	}
	if e.atms.IsATMPaused(atmID) {
		return ErrATMPaused
	}
	ceiling, ok := e.atms.GeneralSetting(atmID, atm.SettingDebtToSupply)
	if !ok || ceiling == 0 {
		return nil
	}
	projected := e.markets.DebtToSupplyFor(e.lendAsset, e.collAsset, loanAmount)
	if projected > ceiling {
		return ErrDebtToSupplyExceeded
	}
	return nil
}

// LendToColl converts a lending-asset amount into collateral units at the
// current oracle rate.
func (e *Engine) LendToColl(amount *big.Int) (*big.Int, error) {
	return e.lendToColl(amount)
}

// CollToLend converts a collateral amount into lending-asset units at the
// current oracle rate.
func (e *Engine) CollToLend(amount *big.Int) (*big.Int, error) {
	if e == nil || e.oracle == nil {
		return nil, errNilOracle
	}
	num, den, err := e.oracle.Rate(e.lendAsset, e.collAsset)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(amount, num)
	out.Quo(out, den)
	return out, nil
}

func (e *Engine) lendToColl(amount *big.Int) (*big.Int, error) {
	if e == nil || e.oracle == nil {
		return nil, errNilOracle
	}
	num, den, err := e.oracle.Rate(e.lendAsset, e.collAsset)
	if err != nil {
		return nil, err
	}
	if num.Sign() == 0 {
		return nil, errNilOracle
	}
	out := new(big.Int).Mul(amount, den)
	out.Quo(out, num)
	return out, nil
}
