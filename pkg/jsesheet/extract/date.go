package extract

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// DateLayout is the as_at presentation the spreadsheet imports.
const DateLayout = "January 2, 2006"

// HeaderLines bounds the fallback date search to the top of the sheet.
const HeaderLines = 20

// ErrNoDate is returned when no sheet date can be recognized.
var ErrNoDate = errors.New("no quote sheet date found")

const monthDate = `(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),\s+(\d{4})`

var (
	headingRe   = regexp.MustCompile(`(?i)quote\s+sheet\b[^\n]*?\b` + monthDate + `\b`)
	monthDateRe = regexp.MustCompile(`\b` + monthDate + `\b`)
)

// ParseAsAt finds the session date of a sheet. The canonical heading
// ("Daily Quote Sheet for March 4, 2024") is preferred anywhere in the
// text; otherwise the first month-day-year expression in the header lines
// is used. Impossible dates are skipped.
func ParseAsAt(text string) (time.Time, error) {
	for _, m := range headingRe.FindAllStringSubmatch(text, -1) {
		if t, ok := toDate(m[1], m[2], m[3]); ok {
			return t, nil
		}
	}
	for _, m := range monthDateRe.FindAllStringSubmatch(header(text), -1) {
		if t, ok := toDate(m[1], m[2], m[3]); ok {
			return t, nil
		}
	}
	return time.Time{}, ErrNoDate
}

// FindAsAt returns the date of the first document that carries one.
func FindAsAt(docs []types.QuoteDocument) (time.Time, error) {
	for _, d := range docs {
		if t, err := ParseAsAt(d.Text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrNoDate
}

// FormatAsAt renders t as "January 2, 2006".
func FormatAsAt(t time.Time) string {
	return t.Format(DateLayout)
}

func toDate(month, day, year string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, month+" "+day+", "+year)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func header(text string) string {
	lines := strings.SplitN(text, "\n", HeaderLines+1)
	if len(lines) > HeaderLines {
		lines = lines[:HeaderLines]
	}
	return strings.Join(lines, "\n")
}
