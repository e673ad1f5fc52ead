package atm

import "strings"

// SettingDebtToSupply names the general ATM setting holding the maximum
// debt-to-supply ratio for a market, in basis points.
const SettingDebtToSupply = "DebtToSupply"

// View is the read-only market governance capability injected into the core.
// All reads are pure: identical ledger state yields identical results.
type View interface {
	// ATMForMarket resolves the governance instance for a
	// (lending asset, collateral asset) market.
	ATMForMarket(lendAsset, collAsset string) (string, bool)
	// GeneralSetting resolves a named setting of an ATM instance.
	GeneralSetting(atmID, name string) (uint64, bool)
	// IsATMPaused reports whether the ATM instance is halted.
	IsATMPaused(atmID string) bool
}

// Registry is an in-memory View implementation for wiring and tests.
type Registry struct {
	markets  map[string]string
	settings map[string]uint64
	paused   map[string]bool
}

// NewRegistry constructs an empty ATM registry.
func NewRegistry() *Registry {
	return &Registry{
		markets:  make(map[string]string),
		settings: make(map[string]uint64),
		paused:   make(map[string]bool),
	}
}

func marketKey(lendAsset, collAsset string) string {
	return strings.ToUpper(strings.TrimSpace(lendAsset)) + "/" + strings.ToUpper(strings.TrimSpace(collAsset))
}

func settingKey(atmID, name string) string {
	return strings.TrimSpace(atmID) + "|" + strings.TrimSpace(name)
}

// SetATMForMarket binds a market pair to an ATM instance.
func (r *Registry) SetATMForMarket(lendAsset, collAsset, atmID string) {
	if r == nil {
		return
	}
	r.markets[marketKey(lendAsset, collAsset)] = strings.TrimSpace(atmID)
}

// SetGeneralSetting records a general setting on an ATM instance.
func (r *Registry) SetGeneralSetting(atmID, name string, value uint64) {
	if r == nil {
		return
	}
	r.settings[settingKey(atmID, name)] = value
}

// SetATMPaused toggles the pause flag of an ATM instance.
func (r *Registry) SetATMPaused(atmID string, paused bool) {
	if r == nil {
		return
	}
	r.paused[strings.TrimSpace(atmID)] = paused
}

// ATMForMarket implements View.
func (r *Registry) ATMForMarket(lendAsset, collAsset string) (string, bool) {
	if r == nil {
		return "", false
	}
	atmID, ok := r.markets[marketKey(lendAsset, collAsset)]
	return atmID, ok
}

// GeneralSetting implements View.
func (r *Registry) GeneralSetting(atmID, name string) (uint64, bool) {
	if r == nil {
		return 0, false
	}
	value, ok := r.settings[settingKey(atmID, name)]
	return value, ok
}

// IsATMPaused implements View.
func (r *Registry) IsATMPaused(atmID string) bool {
	if r == nil {
		return false
	}
	return r.paused[strings.TrimSpace(atmID)]
}
