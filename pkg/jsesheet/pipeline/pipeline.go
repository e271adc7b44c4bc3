package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/komsit37/jsesheet/pkg/jsesheet/document"
	"github.com/komsit37/jsesheet/pkg/jsesheet/extract"
	"github.com/komsit37/jsesheet/pkg/jsesheet/filter"
	"github.com/komsit37/jsesheet/pkg/jsesheet/metrics"
	"github.com/komsit37/jsesheet/pkg/jsesheet/render"
	"github.com/komsit37/jsesheet/pkg/jsesheet/source"
	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

type Runner struct {
	Source    source.Source
	Loader    document.Loader
	Extractor extract.Extractor
	Renderer  render.Renderer
	Log       *zap.Logger
}

type ExecuteOptions struct {
	// Watchlist is the path handed to Source.
	Watchlist string
	Filter    filter.Filter
	// AsAt overrides the date found in the documents when non-zero.
	AsAt time.Time
	// Output is replaced atomically when set; otherwise records go to Writer.
	Output string
	Writer io.Writer
	// RequireSymbols fails the run when the filtered watchlist is empty.
	RequireSymbols bool

	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// Report describes a finished run.
type Report struct {
	AsAt    time.Time
	Records []types.PriceRecord
	Found   []string
	Missing []string
}

// Records builds one record per symbol, in order. Symbols without an entry in
// prices get an empty price.
func Records(symbols []string, prices map[string]decimal.Decimal, asAt time.Time) []types.PriceRecord {
	out := make([]types.PriceRecord, 0, len(symbols))
	for _, sym := range symbols {
		rec := types.PriceRecord{Symbol: sym, AsAt: asAt, Source: types.Source}
		if p, ok := prices[extract.NormalizeSymbol(sym)]; ok {
			rec.LastPrice = decimal.NewNullDecimal(p)
		}
		out = append(out, rec)
	}
	return out
}

// Run loads the watchlist and documents and extracts prices without writing
// anything.
func (r *Runner) Run(ctx context.Context, opts ExecuteOptions) (Report, error) {
	log := r.logger()

	wl, err := r.Source.Load(ctx, opts.Watchlist)
	if err != nil {
		return Report{}, fmt.Errorf("load watchlist: %w", err)
	}

	var filt filter.Filter = filter.Always(true)
	if opts.Filter != nil {
		filt = opts.Filter
	}
	symbols := filter.Apply(filt, wl.Symbols)
	if opts.RequireSymbols && len(symbols) == 0 {
		return Report{}, source.ErrEmptyWatchlist
	}
	log.Debug("watchlist loaded",
		zap.String("name", wl.Name),
		zap.Int("symbols", len(symbols)),
		zap.Any("filter", filt))

	ex := extract.NewExtractor(r.Extractor.Layout)
	loader := r.Loader
	if s, ok := loader.(document.Scoper); ok && len(symbols) > 0 {
		loader = s.Scope(func(docs []types.QuoteDocument) bool {
			return ex.AnyFound(docs, symbols)
		})
	}
	docs, err := loader.Load(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load documents: %w", err)
	}
	metrics.DocumentsLoaded.Add(float64(len(docs)))

	asAt := opts.AsAt
	if asAt.IsZero() {
		if asAt, err = extract.FindAsAt(docs); err != nil {
			return Report{}, fmt.Errorf("as-at date: %w", err)
		}
	}

	prices := ex.Extract(docs, symbols)
	rep := Report{AsAt: asAt, Records: Records(symbols, prices, asAt)}
	for _, rec := range rep.Records {
		if rec.LastPrice.Valid {
			rep.Found = append(rep.Found, rec.Symbol)
			continue
		}
		rep.Missing = append(rep.Missing, rec.Symbol)
		log.Debug("symbol not found", zap.String("symbol", rec.Symbol))
	}
	return rep, nil
}

// Execute runs the pipeline and renders the records. Nothing is written when
// any step before rendering fails.
func (r *Runner) Execute(ctx context.Context, opts ExecuteOptions) (Report, error) {
	start := time.Now()
	rep, err := r.execute(ctx, opts)
	metrics.RunDuration.Set(time.Since(start).Seconds())
	if err != nil {
		metrics.Runs.WithLabelValues("error").Inc()
		return rep, err
	}
	metrics.Runs.WithLabelValues("ok").Inc()
	metrics.LastSuccess.SetToCurrentTime()
	metrics.SymbolsFound.Add(float64(len(rep.Found)))
	metrics.SymbolsMissing.Add(float64(len(rep.Missing)))

	r.logger().Info("prices extracted",
		zap.String("as_at", extract.FormatAsAt(rep.AsAt)),
		zap.Int("found", len(rep.Found)),
		zap.Int("missing", len(rep.Missing)),
		zap.String("output", opts.Output))
	return rep, nil
}

func (r *Runner) execute(ctx context.Context, opts ExecuteOptions) (Report, error) {
	rep, err := r.Run(ctx, opts)
	if err != nil {
		return Report{}, err
	}

	renderer := r.Renderer
	if renderer == nil {
		renderer = render.CSVRenderer{}
	}
	ropts := render.RenderOptions{
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
	}
	if opts.Output != "" {
		if err := render.WriteFile(opts.Output, renderer, rep.Records, ropts); err != nil {
			return rep, err
		}
		return rep, nil
	}
	if opts.Writer == nil {
		return rep, fmt.Errorf("no output configured")
	}
	return rep, renderer.Render(opts.Writer, rep.Records, ropts)
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
