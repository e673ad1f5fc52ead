package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, 20)
	addr := MustNewAddress(CollPrefix, raw)

	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(CollPrefix)) {
		t.Fatalf("encoded = %q, want %q prefix", encoded, CollPrefix)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if decoded.Prefix() != CollPrefix {
		t.Fatalf("prefix = %q, want %q", decoded.Prefix(), CollPrefix)
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("bytes = %x, want %x", decoded.Bytes(), raw)
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatalf("expected decode failure")
	}
}

func TestNewAddressRejectsShortBytes(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on short address")
		}
	}()
	NewAddress(LendPrefix, []byte{0x01})
}

func TestKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if !bytes.Equal(restored.PubKey().Address().Bytes(), key.PubKey().Address().Bytes()) {
		t.Fatalf("restored key derives a different address")
	}
}
