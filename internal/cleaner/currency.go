package cleaner

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var million = decimal.New(1, 6)

// NormalizeCurrency rewrites a payroll cell to whole dollars in plain digits:
// "$71,333,575" and "71,333,575" become "71333575", "$71.3M" becomes
// "71300000". The arithmetic is exact decimal, not float, so "$71.3M" never
// drifts to 71299999. Fractional dollars truncate toward zero. Values that do
// not look like currency are returned with an error so the caller's coercion
// policy decides their fate.
func NormalizeCurrency(value string) (string, error) {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return "", fmt.Errorf("empty currency value %q", value)
	}

	scale := decimal.New(1, 0)
	if upper := strings.ToUpper(s); strings.HasSuffix(upper, "M") {
		scale = million
		s = s[:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("parse %q as currency: %w", value, err)
	}

	return d.Mul(scale).Truncate(0).String(), nil
}
