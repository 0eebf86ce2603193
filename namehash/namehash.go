package namehash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NodeSize is the size in bytes of a node hash.
const NodeSize = 32

// Node is the 32-byte identifier of a name on the governance contract. Both
// the client and the deployed contract derive it with the same algorithm, so
// Hash is a strict wire contract.
type Node [NodeSize]byte

// ZeroNode is the all-zero node. It is what Hash returns for an empty name
// and the sentinel carried in unused candidate slots of an endorsement call.
var ZeroNode Node

// String returns the lowercase hex encoding of the node.
func (n Node) String() string {
	return hex.EncodeToString(n[:])
}

// NodeFromHex parses a 64-character hex string into a Node.
func NodeFromHex(s string) (Node, error) {
	var n Node
	b, err := hex.DecodeString(s)
	if err != nil {
		return n, err
	}
	if len(b) != NodeSize {
		return n, errInvalidNodeLength
	}
	copy(n[:], b)
	return n, nil
}

// Hash derives the node for a dotted name. The name is split on "." and the
// labels are hashed root-first into a running accumulator:
//
//	node = sha256(node || sha256(label))
//
// starting from the zero node. When the root label is "reverse", each label
// is instead hashed by kind: a 58-character base32 address hashes its decoded
// public key, a purely numeric label hashes its big-endian 32-byte integer
// encoding, anything else hashes its UTF-8 bytes.
//
// An empty name returns ZeroNode. Hash is deterministic and never fails.
func Hash(name string) Node {
	if name == "" {
		return ZeroNode
	}

	labels := strings.Split(name, ".")
	reverseLabels(labels)

	anyKind := labels[0] == "reverse"

	node := ZeroNode
	for _, label := range labels {
		if label == "" {
			continue
		}

		var labelHash [NodeSize]byte
		if anyKind {
			labelHash = hashAnyLabel(label)
		} else {
			labelHash = sha256.Sum256([]byte(label))
		}

		node = combine(node, labelHash)
	}

	return node
}

func hashAnyLabel(label string) [NodeSize]byte {
	if pk, ok := decodeAddress(label); ok {
		return sha256.Sum256(pk)
	}
	if n, ok := parseNumeric(label); ok {
		return sha256.Sum256(n[:])
	}
	return sha256.Sum256([]byte(label))
}

func combine(node Node, labelHash [NodeSize]byte) Node {
	var buf [2 * NodeSize]byte
	copy(buf[:NodeSize], node[:])
	copy(buf[NodeSize:], labelHash[:])
	return sha256.Sum256(buf[:])
}

func reverseLabels(labels []string) {
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
}

// parseNumeric interprets a purely numeric label as an unsigned decimal
// integer and returns its big-endian 32-byte encoding. Values wider than 256
// bits wrap by truncation of the most significant bytes, matching the fixed
// 32-byte window the contract hashes.
func parseNumeric(label string) ([NodeSize]byte, bool) {
	var out [NodeSize]byte
	if label == "" {
		return out, false
	}
	for i := 0; i < len(label); i++ {
		if label[i] < '0' || label[i] > '9' {
			return out, false
		}
	}
	for i := 0; i < len(label); i++ {
		digit := label[i] - '0'
		carry := uint16(digit)
		for j := NodeSize - 1; j >= 0; j-- {
			v := uint16(out[j])*10 + carry
			out[j] = byte(v & 0xff)
			carry = v >> 8
		}
	}
	return out, true
}
