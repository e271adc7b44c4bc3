package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Layout describes where the last price sits among a quote row's numeric
// fields and how many fields a row needs before it is trusted.
type Layout struct {
	LastIndex int // zero-based position of the last traded price
	MinFields int // rows with fewer fields are rejected
}

// DefaultLayout matches rows shaped like
//
//	GK 1,234 70.00 75.00 74.23 +0.10
//
// volume, previous/open, high, last traded, change.
var DefaultLayout = Layout{LastIndex: 3, MinFields: 5}

// Valid reports whether the layout can ever select a field.
func (l Layout) Valid() bool {
	return l.LastIndex >= 0 && l.MinFields > l.LastIndex
}

var numberRe = regexp.MustCompile(`^[+-]?\d[\d,]*(\.\d*)?$`)

// ParseNumber parses a quote-sheet number, dropping thousands separators.
func ParseNumber(tok string) (decimal.Decimal, bool) {
	if !numberRe.MatchString(tok) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSuffix(tok, "."), ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Row is one tokenized quote line. Fields that are present but not numeric
// (placeholders such as "-") are kept as invalid entries so positions hold.
type Row struct {
	Symbol string
	Fields []decimal.NullDecimal
}

// NormalizeSymbol upper-cases a token and strips trailing punctuation while
// keeping inner dots (JMMBGL7.25).
func NormalizeSymbol(tok string) string {
	return strings.TrimRight(strings.ToUpper(strings.TrimSpace(tok)), ".,;")
}

// ParseRow splits a line into its symbol and numeric fields. Words between
// the symbol and the first number (instrument names) are skipped.
func ParseRow(line string) (Row, bool) {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return Row{}, false
	}
	sym := NormalizeSymbol(toks[0])
	if sym == "" {
		return Row{}, false
	}
	row := Row{Symbol: sym}
	started := false
	for _, t := range toks[1:] {
		d, ok := ParseNumber(t)
		if !started {
			if !ok {
				continue
			}
			started = true
		}
		row.Fields = append(row.Fields, decimal.NullDecimal{Decimal: d, Valid: ok})
	}
	return row, true
}

// Last returns the last traded price under the layout. Short rows, missing
// fields and non-positive values are not found.
func (r Row) Last(l Layout) (decimal.Decimal, bool) {
	if !l.Valid() || len(r.Fields) < l.MinFields {
		return decimal.Decimal{}, false
	}
	f := r.Fields[l.LastIndex]
	if !f.Valid || !f.Decimal.IsPositive() {
		return decimal.Decimal{}, false
	}
	return f.Decimal, true
}
