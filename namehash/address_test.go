package namehash

import (
	"bytes"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	pk := bytes.Repeat([]byte{0xAB}, publicKeySize)
	addr, err := EncodeAddress(pk)
	if err != nil {
		t.Fatal(err)
	}
	if len(addr) != addressLength {
		t.Fatalf("encoded address is %d characters, want %d", len(addr), addressLength)
	}
	if !IsValidAddress(addr) {
		t.Fatal("encoded address must validate")
	}

	decoded, ok := decodeAddress(addr)
	if !ok {
		t.Fatal("encoded address must decode")
	}
	if !bytes.Equal(decoded, pk) {
		t.Fatalf("decoded public key mismatch: % x", decoded)
	}
}

func TestAddressBadChecksum(t *testing.T) {
	pk := make([]byte, publicKeySize)
	addr, err := EncodeAddress(pk)
	if err != nil {
		t.Fatal(err)
	}

	// Flip one character; the checksum must catch it.
	flipped := []byte(addr)
	if flipped[0] == 'A' {
		flipped[0] = 'B'
	} else {
		flipped[0] = 'A'
	}
	if IsValidAddress(string(flipped)) {
		t.Fatal("corrupted address must not validate")
	}
}

func TestAddressShape(t *testing.T) {
	if IsValidAddress("") {
		t.Fatal("empty string is not an address")
	}
	if IsValidAddress("short") {
		t.Fatal("short string is not an address")
	}
	// Lowercase is outside the charset even at the right length.
	lower := make([]byte, addressLength)
	for i := range lower {
		lower[i] = 'a'
	}
	if IsValidAddress(string(lower)) {
		t.Fatal("lowercase string is not an address")
	}
}

func TestEncodeAddressRejectsWrongSize(t *testing.T) {
	if _, err := EncodeAddress(make([]byte, 16)); err == nil {
		t.Fatal("short public key must not encode")
	}
}
