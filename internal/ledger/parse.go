package ledger

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var numberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

// ParseFloat extracts the first number from a human-edited cell. Spaces and
// non-breaking spaces are ignored and a comma is accepted as the decimal mark.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseEngineHours reads an engine-hours cell: "HH:MM", "HH:MM:SS" or a plain
// number. A number between 1 and 31 whose value in hours would exceed 100 is
// taken to be a count of days.
func ParseEngineHours(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 && len(parts) != 3 {
			return 0, false
		}
		var total float64
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return 0, false
			}
			total += float64(n) / math.Pow(60, float64(i))
		}
		return total, true
	}

	f, ok := ParseFloat(s)
	if !ok {
		return 0, false
	}
	if f > 1 && f < 31 && f*24 > 100 {
		return f * 24, true
	}
	return f, true
}

// FormatLiters renders liters rounded to two places with a comma decimal mark.
func FormatLiters(v float64) string {
	v = math.Round(v*100) / 100
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

// CleanNames trims and NFC-normalizes names, dropping blanks and duplicates
// while keeping first-seen order.
func CleanNames(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		n := norm.NFC.String(strings.TrimSpace(r))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
