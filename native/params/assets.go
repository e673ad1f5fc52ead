package params

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type assetFile struct {
	Assets map[string]assetYAML `yaml:"assets"`
}

type assetYAML struct {
	AdapterMarket string `yaml:"adapterMarket"`
	MaxLoanAmount string `yaml:"maxLoanAmount"`
}

// LoadAssetSettings reads per-asset market settings from a YAML file. Amounts
// are decimal strings to preserve wei precision.
func LoadAssetSettings(path string) (map[string]AssetSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: read asset settings: %w", err)
	}
	var file assetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("params: parse asset settings: %w", err)
	}
	out := make(map[string]AssetSettings, len(file.Assets))
	for asset, entry := range file.Assets {
		normalized := normalizeAsset(asset)
		if normalized == "" {
			return nil, fmt.Errorf("params: asset name required")
		}
		settings := AssetSettings{AdapterMarket: strings.TrimSpace(entry.AdapterMarket)}
		amountStr := strings.TrimSpace(entry.MaxLoanAmount)
		if amountStr != "" {
			amount, ok := new(big.Int).SetString(amountStr, 10)
			if !ok {
				return nil, fmt.Errorf("params: invalid maxLoanAmount %q for %s", entry.MaxLoanAmount, asset)
			}
			if amount.Sign() < 0 {
				return nil, fmt.Errorf("params: negative maxLoanAmount for %s", asset)
			}
			settings.MaxLoanAmount = amount
		}
		out[normalized] = settings
	}
	return out, nil
}
