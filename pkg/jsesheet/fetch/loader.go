package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // America/Jamaica on hosts without zoneinfo

	"go.uber.org/zap"

	"github.com/komsit37/jsesheet/pkg/jsesheet/document"
	"github.com/komsit37/jsesheet/pkg/jsesheet/metrics"
	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// DefaultMarkets are the JSE market ids tried for each date. 31 is the main
// market; the rest cover junior, USD and bond boards.
var DefaultMarkets = []int{33, 31, 32, 34, 35, 36}

// ErrNoSheet is returned when no date in the lookback window produced a
// usable sheet.
var ErrNoSheet = errors.New("no quote sheet available")

// Jamaica is the exchange's time zone.
var Jamaica = loadJamaica()

func loadJamaica() *time.Location {
	loc, err := time.LoadLocation("America/Jamaica")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// LookbackDates returns today in Jamaica followed by the days-1 days before it.
func LookbackDates(now time.Time, days int) []time.Time {
	y, m, d := now.In(Jamaica).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, Jamaica)
	out := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

// Fetcher downloads the raw sheet for one session date and market.
type Fetcher interface {
	Sheet(ctx context.Context, date time.Time, market int) ([]byte, string, error)
}

// Loader walks back through Dates and returns the sheets of the first date
// that yields documents Accept agrees to. It implements document.Loader.
type Loader struct {
	Fetcher Fetcher
	Dates   []time.Time
	Markets []int
	// Decode converts downloaded bytes to text; document.Decode when nil.
	Decode func([]byte) (string, error)
	// Accept vets one date's documents; any documents pass when nil.
	Accept func([]types.QuoteDocument) bool
	Log    *zap.Logger
}

var (
	_ document.Loader = Loader{}
	_ document.Scoper = Loader{}
)

// Scope returns a copy of l using accept to vet each date.
func (l Loader) Scope(accept func([]types.QuoteDocument) bool) document.Loader {
	l.Accept = accept
	return l
}

func (l Loader) Load(ctx context.Context) ([]types.QuoteDocument, error) {
	decode := l.Decode
	if decode == nil {
		decode = document.Decode
	}
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	markets := l.Markets
	if len(markets) == 0 {
		markets = DefaultMarkets
	}

	var lastErr error
	for _, date := range l.Dates {
		day := date.Format(time.DateOnly)
		var docs []types.QuoteDocument
		for _, m := range markets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			raw, origin, err := l.Fetcher.Sheet(ctx, date, m)
			if err == nil {
				var text string
				if text, err = decode(raw); err == nil {
					docs = append(docs, types.QuoteDocument{Origin: origin, Market: m, Date: date, Text: text})
					continue
				}
			}
			lastErr = fmt.Errorf("%s market %d: %w", day, m, err)
			metrics.FetchErrors.Inc()
			log.Debug("quote sheet unavailable", zap.String("date", day), zap.Int("market", m), zap.Error(err))
		}
		if len(docs) == 0 {
			continue
		}
		if l.Accept != nil && !l.Accept(docs) {
			log.Info("sheets carry no watchlist symbols", zap.String("date", day), zap.Int("documents", len(docs)))
			continue
		}
		log.Info("using quote sheets", zap.String("date", day), zap.Int("documents", len(docs)))
		return docs, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSheet, lastErr)
	}
	return nil, ErrNoSheet
}
