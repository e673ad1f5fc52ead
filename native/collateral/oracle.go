package collateral

import (
	"errors"
	"math/big"
	"strings"
)

var errNoRate = errors.New("collateral engine: no oracle rate for market")

// StaticOracle is a PriceView backed by fixed per-market fractions. It serves
// wiring and tests; production deployments inject a live oracle capability.
type StaticOracle struct {
	rates map[string][2]*big.Int
}

// NewStaticOracle constructs an empty oracle.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{rates: make(map[string][2]*big.Int)}
}

func oracleKey(lendAsset, collAsset string) string {
	return strings.ToUpper(strings.TrimSpace(lendAsset)) + "/" + strings.ToUpper(strings.TrimSpace(collAsset))
}

// SetRate fixes the price of one wei of collateral at num/den wei of the
// lending asset.
func (o *StaticOracle) SetRate(lendAsset, collAsset string, num, den *big.Int) {
	if o == nil || num == nil || den == nil || den.Sign() == 0 {
		return
	}
	o.rates[oracleKey(lendAsset, collAsset)] = [2]*big.Int{new(big.Int).Set(num), new(big.Int).Set(den)}
}

// Rate implements PriceView.
func (o *StaticOracle) Rate(lendAsset, collAsset string) (*big.Int, *big.Int, error) {
	if o == nil {
		return nil, nil, errNoRate
	}
	pair, ok := o.rates[oracleKey(lendAsset, collAsset)]
	if !ok {
		return nil, nil, errNoRate
	}
	return new(big.Int).Set(pair[0]), new(big.Int).Set(pair[1]), nil
}
