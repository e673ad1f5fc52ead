package params

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"loanchain/crypto"
)

func testAddr(fill byte) crypto.Address {
	return crypto.MustNewAddress(crypto.LendPrefix, bytes.Repeat([]byte{fill}, 20))
}

func TestStorePlatformSettings(t *testing.T) {
	store := NewStore()
	store.SetPlatformSetting(RequiredSubmissions, 3)

	value, err := store.PlatformSettingValue(RequiredSubmissions)
	require.NoError(t, err)
	require.Equal(t, uint64(3), value)

	_, err = store.PlatformSettingValue("Unknown")
	require.Error(t, err)
}

func TestStoreAssetSettingsCopiesAmounts(t *testing.T) {
	store := NewStore()
	max := big.NewInt(1_000_000)
	store.SetAssetSettings("dai", AssetSettings{AdapterMarket: "cDAI", MaxLoanAmount: max})
	max.SetInt64(1)

	settings, ok := store.AssetSettings("DAI")
	require.True(t, ok)
	require.Equal(t, "cDAI", settings.AdapterMarket)
	require.Zero(t, settings.MaxLoanAmount.Cmp(big.NewInt(1_000_000)))

	_, ok = store.AssetSettings("USDC")
	require.False(t, ok)
}

func TestPauseRequiresPauserRole(t *testing.T) {
	store := NewStore()
	pauser := testAddr(0x01)
	outsider := testAddr(0x02)
	store.AddPauser(pauser)

	require.ErrorIs(t, store.Pause(outsider, true), ErrNotPauser)
	require.False(t, store.IsPaused())

	require.NoError(t, store.Pause(pauser, true))
	require.True(t, store.IsPaused())

	require.NoError(t, store.Pause(pauser, false))
	require.False(t, store.IsPaused())
}

func TestLoadAssetSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	contents := `
assets:
  dai:
    adapterMarket: cDAI
    maxLoanAmount: "25000000000000000000000"
  usdc:
    adapterMarket: cUSDC
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	settings, err := LoadAssetSettings(path)
	require.NoError(t, err)
	require.Len(t, settings, 2)

	dai := settings["DAI"]
	require.Equal(t, "cDAI", dai.AdapterMarket)
	want, _ := new(big.Int).SetString("25000000000000000000000", 10)
	require.Zero(t, dai.MaxLoanAmount.Cmp(want))

	usdc := settings["USDC"]
	require.Equal(t, "cUSDC", usdc.AdapterMarket)
	require.Nil(t, usdc.MaxLoanAmount)
}

func TestLoadAssetSettingsRejectsBadAmount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	contents := `
assets:
  dai:
    maxLoanAmount: "not-a-number"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := LoadAssetSettings(path)
	require.Error(t, err)
}
