package utils

import (
	"bytes"
	"testing"
	"testing/quick"
)

func TestPadToLength(t *testing.T) {
	padded := PadToLength("Fund the thing", 64)
	if len(padded) != 64 {
		t.Fatalf("len = %d, want 64", len(padded))
	}
	if !bytes.Equal(padded[:14], []byte("Fund the thing")) {
		t.Fatalf("prefix = %q", padded[:14])
	}
	for i := 14; i < 64; i++ {
		if padded[i] != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, padded[i])
		}
	}
	if got := len(PadToLength("much too long", 4)); got != 4 {
		t.Fatalf("truncated len = %d, want 4", got)
	}
}

func TestPadStripRoundTrip(t *testing.T) {
	f := func(s string) bool {
		if len(s) > 64 || bytes.ContainsRune([]byte(s), 0) {
			return true
		}
		return StripTrailingZeroBytes(string(PadToLength(s, 64))) == s
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestFormatTokenAmount(t *testing.T) {
	tests := []struct {
		atoms int64
		want  string
	}{
		{0, "0 VOI"},
		{1_500_000, "1.5 VOI"},
		{50_000_000_000, "50,000 VOI"},
		{1_234_567_000_000, "1,234,567 VOI"},
	}
	for _, tc := range tests {
		if got := FormatTokenAmount(tc.atoms); got != tc.want {
			t.Errorf("FormatTokenAmount(%d) = %q, want %q", tc.atoms, got, tc.want)
		}
	}
}

func TestAmountConversions(t *testing.T) {
	if AmountAtom(50000) != 50_000_000_000 {
		t.Fatalf("AmountAtom(50000) = %d", AmountAtom(50000))
	}
	if AmountToken(2_500_000) != 2.5 {
		t.Fatalf("AmountToken(2500000) = %v", AmountToken(2_500_000))
	}
}
