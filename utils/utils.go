package utils

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"
)

func DecodeBase64(base64Text string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(base64Text)
	if err != nil {
		return nil, err
	}

	return b, nil
}

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeHex(hexText string) ([]byte, error) {
	return hex.DecodeString(hexText)
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// PadToLength right-pads s with zero bytes to length. Strings longer than
// length are truncated; the contract's fixed-width fields keep no overflow.
func PadToLength(s string, length int) []byte {
	buf := make([]byte, length)
	copy(buf, s)
	return buf
}

// StripTrailingZeroBytes removes the zero-byte padding the contract stores in
// its fixed-width string fields.
func StripTrailingZeroBytes(s string) string {
	return strings.TrimRight(s, "\x00")
}

func FormatUTCTime(timestamp int64) string {
	return time.Unix(timestamp, 0).UTC().Format("2006-01-02 15:04:05")
}

// ExtractDateOrTime returns the date represented by the timestamp as a date string if the timestamp is over 24 hours ago.
// Otherwise, the time alone is returned as a string.
func ExtractDateOrTime(timestamp int64) string {
	utcTime := time.Unix(timestamp, 0).UTC()
	if time.Now().UTC().Sub(utcTime).Hours() > 24 {
		return utcTime.Format("2006-01-02")
	} else {
		return utcTime.Format("15:04:05")
	}
}
