package namehash

import (
	"crypto/sha512"
	"encoding/base32"
	"errors"
)

const (
	addressLength   = 58
	publicKeySize   = 32
	checksumSize    = 4
	decodedAddrSize = publicKeySize + checksumSize
)

var errInvalidNodeLength = errors.New("namehash: node must be 32 bytes")

var base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// decodeAddress decodes a 58-character base32 account address into its
// 32-byte public key. The trailing 4 bytes are a sha512/256 checksum over the
// public key; an address-shaped label with a bad checksum is not an address.
func decodeAddress(label string) ([]byte, bool) {
	if len(label) != addressLength {
		return nil, false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if (c < 'A' || c > 'Z') && (c < '2' || c > '7') {
			return nil, false
		}
	}

	decoded, err := base32NoPad.DecodeString(label)
	if err != nil || len(decoded) != decodedAddrSize {
		return nil, false
	}

	pk := decoded[:publicKeySize]
	digest := sha512.Sum512_256(pk)
	checksum := digest[sha512.Size256-checksumSize:]
	for i := 0; i < checksumSize; i++ {
		if checksum[i] != decoded[publicKeySize+i] {
			return nil, false
		}
	}

	return pk, true
}

// IsValidAddress reports whether s is a well-formed account address with a
// valid checksum.
func IsValidAddress(s string) bool {
	_, ok := decodeAddress(s)
	return ok
}

// EncodeAddress encodes a 32-byte public key into the 58-character base32
// address format, appending the sha512/256 checksum. Used by tests and by
// callers that need to render event owner addresses.
func EncodeAddress(pk []byte) (string, error) {
	if len(pk) != publicKeySize {
		return "", errors.New("namehash: public key must be 32 bytes")
	}
	digest := sha512.Sum512_256(pk)
	buf := make([]byte, 0, decodedAddrSize)
	buf = append(buf, pk...)
	buf = append(buf, digest[sha512.Size256-checksumSize:]...)
	return base32NoPad.EncodeToString(buf), nil
}
