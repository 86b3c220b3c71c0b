package stockcsv

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parsePrice accepts "1234.50", "1,234.50", "1.234,50" and "12,5" with an
// optional currency sign. The right-most separator is the decimal point.
func parsePrice(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "$€Q "))

	lastDot := strings.LastIndexByte(clean, '.')
	lastComma := strings.LastIndexByte(clean, ',')

	switch {
	case lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case lastDot > lastComma:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return d, nil
}
