package crypto

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAddressEncodings(t *testing.T) {
	var addr Address
	addr[0] = 0x52
	addr[19] = 0x01

	encoded := addr.String()
	if !strings.HasPrefix(encoded, AddressPrefix+"1") {
		t.Fatalf("unexpected prefix: %s", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != addr {
		t.Fatalf("bech32 round trip mismatch")
	}
	fromHex, err := ParseAddress(addr.Hex())
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if fromHex != addr {
		t.Fatalf("hex round trip mismatch")
	}
	if _, err := ParseAddress("nope"); err == nil {
		t.Fatalf("expected error for malformed address")
	}
	if _, err := BytesToAddress([]byte{1, 2}); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "operator.json")
	if err := SaveKeystore(path, key, "pass", true); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadKeystore(path, "pass")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.PubKey().Address() != key.PubKey().Address() {
		t.Fatalf("address mismatch after reload")
	}
	if _, err := LoadKeystore(path, "wrong"); err == nil {
		t.Fatalf("expected decrypt failure")
	}
}
