package params

import (
	"errors"
	"math/big"
	"strings"

	"loanchain/crypto"
)

// Platform setting names understood by the core engines. Values are plain
// unsigned integers; time-like settings are expressed in seconds and
// ratio-like settings in basis points.
const (
	// RequiredSubmissions is the minimum number of signed term responses a
	// borrower must gather before terms can be aggregated.
	RequiredSubmissions = "RequiredSubmissions"
	// MaximumTolerance bounds the spread between term responses, in basis
	// points of the average.
	MaximumTolerance = "MaximumTolerance"
	// ResponseExpiryLength is the validity window of a signed term response.
	ResponseExpiryLength = "ResponseExpiryLength"
	// SafetyInterval is the minimum delay between a collateral deposit and a
	// borrow against it.
	SafetyInterval = "SafetyInterval"
	// TermsExpiryTime is how long aggregated terms remain usable before the
	// loan must be taken out.
	TermsExpiryTime = "TermsExpiryTime"
	// LiquidateRewardBps scales the amount owed into the liquidation payout,
	// incentive included.
	LiquidateRewardBps = "LiquidateRewardBps"
	// OverCollateralizedBuffer is the health margin applied on top of the
	// nominal collateral ratio, in basis points.
	OverCollateralizedBuffer = "OverCollateralizedBuffer"
	// CollateralBuffer is the slack allowed when validating collateral
	// withdrawals, in basis points.
	CollateralBuffer = "CollateralBuffer"
	// MaximumLoanDuration caps the requested loan duration.
	MaximumLoanDuration = "MaximumLoanDuration"
	// StaleCollateralWindow is how long a position with unpaid balance may go
	// without a collateral top-up before it becomes liquidatable.
	StaleCollateralWindow = "StaleCollateralWindow"
)

var (
	errUnknownSetting = errors.New("params: unknown platform setting")
	// ErrNotPauser is returned when a caller without the pauser role attempts
	// a pause-protected operation.
	ErrNotPauser = errors.New("params: NOT_PAUSER")
)

// SettingsView is the read-only capability handed to the core engines. The
// registry itself (storage, versioning, upgrades) lives outside the core.
type SettingsView interface {
	// PlatformSettingValue resolves a named platform setting.
	PlatformSettingValue(name string) (uint64, error)
	// AssetSettings returns the per-asset configuration for a lending asset.
	AssetSettings(asset string) (AssetSettings, bool)
	// IsPaused reports whether the whole platform is halted.
	IsPaused() bool
}

// PauserView exposes the pauser role membership check.
type PauserView interface {
	HasPauserRole(addr crypto.Address) bool
}

// AssetSettings carries the per-asset market configuration the core reads.
type AssetSettings struct {
	// AdapterMarket identifies the money-market venue receipt market for the
	// asset, empty when redeployment is unsupported.
	AdapterMarket string
	// MaxLoanAmount is the asset-level ceiling for a single loan.
	MaxLoanAmount *big.Int
}

// Store is an in-memory settings registry used for wiring and tests. The
// execution model serializes all calls, so no locking is required.
type Store struct {
	platform map[string]uint64
	assets   map[string]AssetSettings
	pausers  map[string]struct{}
	paused   bool
}

// NewStore constructs an empty settings store.
func NewStore() *Store {
	return &Store{
		platform: make(map[string]uint64),
		assets:   make(map[string]AssetSettings),
		pausers:  make(map[string]struct{}),
	}
}

// SetPlatformSetting records a platform setting value.
func (s *Store) SetPlatformSetting(name string, value uint64) {
	if s == nil {
		return
	}
	s.platform[strings.TrimSpace(name)] = value
}

// SetAssetSettings records the configuration for a lending asset.
func (s *Store) SetAssetSettings(asset string, settings AssetSettings) {
	if s == nil {
		return
	}
	if settings.MaxLoanAmount != nil {
		settings.MaxLoanAmount = new(big.Int).Set(settings.MaxLoanAmount)
	}
	s.assets[normalizeAsset(asset)] = settings
}

// AddPauser grants the pauser role to an address.
func (s *Store) AddPauser(addr crypto.Address) {
	if s == nil {
		return
	}
	s.pausers[string(addr.Bytes())] = struct{}{}
}

// Pause halts the platform when invoked by a pauser.
func (s *Store) Pause(caller crypto.Address, paused bool) error {
	if s == nil {
		return ErrNotPauser
	}
	if !s.HasPauserRole(caller) {
		return ErrNotPauser
	}
	s.paused = paused
	return nil
}

// PlatformSettingValue implements SettingsView.
func (s *Store) PlatformSettingValue(name string) (uint64, error) {
	if s == nil {
		return 0, errUnknownSetting
	}
	value, ok := s.platform[strings.TrimSpace(name)]
	if !ok {
		return 0, errUnknownSetting
	}
	return value, nil
}

// AssetSettings implements SettingsView.
func (s *Store) AssetSettings(asset string) (AssetSettings, bool) {
	if s == nil {
		return AssetSettings{}, false
	}
	settings, ok := s.assets[normalizeAsset(asset)]
	if !ok {
		return AssetSettings{}, false
	}
	if settings.MaxLoanAmount != nil {
		settings.MaxLoanAmount = new(big.Int).Set(settings.MaxLoanAmount)
	}
	return settings, ok
}

// IsPaused implements SettingsView.
func (s *Store) IsPaused() bool {
	if s == nil {
		return false
	}
	return s.paused
}

// HasPauserRole implements PauserView.
func (s *Store) HasPauserRole(addr crypto.Address) bool {
	if s == nil {
		return false
	}
	_, ok := s.pausers[string(addr.Bytes())]
	return ok
}

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}
