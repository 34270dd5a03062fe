package util

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reThousandDot   = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+$`)
	reThousandComma = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// ParseRate coerces a raw amount cell into a decimal. It tolerates currency
// symbols, thousand separators (space, dot, comma) and a comma decimal mark.
// The second return value is false when the cell carries no parseable number.
func ParseRate(input string) (decimal.Decimal, bool) {
	token := strings.ReplaceAll(input, " ", " ")
	token = strings.TrimSpace(token)
	token = strings.TrimLeft(token, "₹$€£ ")
	token = strings.ReplaceAll(token, " ", "")
	if token == "" {
		return decimal.Zero, false
	}

	switch {
	case reThousandDot.MatchString(token):
		token = strings.ReplaceAll(token, ".", "")
	case reThousandComma.MatchString(token):
		token = strings.ReplaceAll(token, ",", "")
	case strings.Contains(token, ",") && !strings.Contains(token, "."):
		token = strings.ReplaceAll(token, ",", ".")
	}

	parsed, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return parsed, true
}
