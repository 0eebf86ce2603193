package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AtomsPerToken is the number of smallest units in one whole governance
// token. All contract calls carry amounts in atoms.
const AtomsPerToken = 1e6

// AmountAtom converts a whole-token amount to atoms.
func AmountAtom(tokens float64) int64 {
	return int64(math.Round(tokens * AtomsPerToken))
}

// AmountToken converts an atom amount to whole tokens.
func AmountToken(atoms int64) float64 {
	return float64(atoms) / AtomsPerToken
}

func DecimalPortion(n float64) string {
	decimalPlaces := fmt.Sprintf("%f", n-math.Floor(n))          // produces 0.xxxx0000
	decimalPlaces = strings.Replace(decimalPlaces, "0.", "", -1) // remove 0.
	decimalPlaces = strings.TrimRight(decimalPlaces, "0")        // remove trailing 0s
	return decimalPlaces
}

// FormatTokenAmount renders an atom amount as a whole-token display string,
// e.g. "50,000 VOI" for 50000e6 atoms.
func FormatTokenAmount(atoms int64) string {
	tokens := AmountToken(atoms)
	whole := int64(math.Floor(tokens))
	s := groupThousands(whole)
	decimalPortion := DecimalPortion(tokens)
	if len(decimalPortion) > 0 {
		s = fmt.Sprintf("%s.%s", s, decimalPortion)
	}
	return s + " VOI"
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
