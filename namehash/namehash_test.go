package namehash

import (
	"bytes"
	"crypto/sha256"
	"testing"
	"testing/quick"
)

func manualCombine(node [NodeSize]byte, labelHash [NodeSize]byte) [NodeSize]byte {
	var buf [2 * NodeSize]byte
	copy(buf[:NodeSize], node[:])
	copy(buf[NodeSize:], labelHash[:])
	return sha256.Sum256(buf[:])
}

func TestHashEmptyName(t *testing.T) {
	if got := Hash(""); got != ZeroNode {
		t.Fatalf("Hash(\"\") = %s, want all zero bytes", got)
	}
}

func TestHashSingleLabel(t *testing.T) {
	want := Node(manualCombine(ZeroNode, sha256.Sum256([]byte("voi"))))
	if got := Hash("voi"); got != want {
		t.Fatalf("Hash(\"voi\") = %s, want %s", got, want)
	}
}

func TestHashRootFirstAccumulation(t *testing.T) {
	// "a.b" hashes b (the root) first, then a.
	step1 := manualCombine(ZeroNode, sha256.Sum256([]byte("b")))
	want := Node(manualCombine(step1, sha256.Sum256([]byte("a"))))
	if got := Hash("a.b"); got != want {
		t.Fatalf("Hash(\"a.b\") = %s, want %s", got, want)
	}
}

func TestHashOrderSensitive(t *testing.T) {
	ab, ba := Hash("a.b"), Hash("b.a")
	if ab == ba {
		t.Fatalf("Hash(\"a.b\") == Hash(\"b.a\"): labels must not commute")
	}
	if ab == ZeroNode || ba == ZeroNode {
		t.Fatal("non-empty name hashed to the zero node")
	}
}

func TestHashSkipsEmptyLabels(t *testing.T) {
	if Hash("a..b") != Hash("a.b") {
		t.Fatal("empty labels must not contribute to the digest")
	}
	if Hash("a.b.") != Hash("a.b") {
		t.Fatal("a trailing dot must not change the digest")
	}
}

func TestHashDeterministic(t *testing.T) {
	f := func(name string) bool {
		return Hash(name) == Hash(name)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestHashReverseNumericLabel(t *testing.T) {
	// Under the "reverse" root, a numeric label hashes its big-endian
	// 32-byte integer encoding rather than its decimal text.
	var fortyTwo [NodeSize]byte
	fortyTwo[NodeSize-1] = 42

	step1 := manualCombine(ZeroNode, sha256.Sum256([]byte("reverse")))
	want := Node(manualCombine(step1, sha256.Sum256(fortyTwo[:])))
	if got := Hash("42.reverse"); got != want {
		t.Fatalf("Hash(\"42.reverse\") = %s, want %s", got, want)
	}

	if Hash("42") == Hash("42.reverse") {
		t.Fatal("numeric label must hash differently without the reverse root")
	}
}

func TestHashReverseAddressLabel(t *testing.T) {
	pk := bytes.Repeat([]byte{7}, publicKeySize)
	addr, err := EncodeAddress(pk)
	if err != nil {
		t.Fatal(err)
	}

	step1 := manualCombine(ZeroNode, sha256.Sum256([]byte("reverse")))
	want := Node(manualCombine(step1, sha256.Sum256(pk)))
	if got := Hash(addr + ".reverse"); got != want {
		t.Fatalf("address label under reverse root must hash its decoded public key")
	}

	// Outside the reverse root the same label hashes as plain UTF-8.
	if Hash(addr) == Node(manualCombine(ZeroNode, sha256.Sum256(pk))) {
		t.Fatal("address decoding must only apply under the reverse root")
	}
}

func TestNodeFromHex(t *testing.T) {
	orig := Hash("council.vote")
	parsed, err := NodeFromHex(orig.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != orig {
		t.Fatalf("round trip mismatch: %s != %s", parsed, orig)
	}

	if _, err := NodeFromHex("abcd"); err == nil {
		t.Fatal("short hex must not parse")
	}
	if _, err := NodeFromHex("zz"); err == nil {
		t.Fatal("invalid hex must not parse")
	}
}

func TestParseNumeric(t *testing.T) {
	if _, ok := parseNumeric("12a"); ok {
		t.Fatal("mixed label is not numeric")
	}
	if _, ok := parseNumeric(""); ok {
		t.Fatal("empty label is not numeric")
	}
	out, ok := parseNumeric("256")
	if !ok {
		t.Fatal("decimal label must parse")
	}
	if out[NodeSize-2] != 1 || out[NodeSize-1] != 0 {
		t.Fatalf("256 must encode big-endian, got % x", out[NodeSize-2:])
	}
}
