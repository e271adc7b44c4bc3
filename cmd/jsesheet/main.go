package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/komsit37/jsesheet/pkg/jsesheet/config"
	"github.com/komsit37/jsesheet/pkg/jsesheet/document"
	"github.com/komsit37/jsesheet/pkg/jsesheet/extract"
	"github.com/komsit37/jsesheet/pkg/jsesheet/fetch"
	"github.com/komsit37/jsesheet/pkg/jsesheet/filter"
	"github.com/komsit37/jsesheet/pkg/jsesheet/logger"
	"github.com/komsit37/jsesheet/pkg/jsesheet/metrics"
	"github.com/komsit37/jsesheet/pkg/jsesheet/pipeline"
	"github.com/komsit37/jsesheet/pkg/jsesheet/render"
	"github.com/komsit37/jsesheet/pkg/jsesheet/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loaderFunc builds the document loader for a resolved configuration.
type loaderFunc func(cfg config.Config, args []string) (document.Loader, error)

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:          "jsesheet",
		Short:        "Extract watchlist prices from the JSE daily quote sheet into a CSV",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.StringP("watchlist", "w", "watchlist.txt", "watchlist file (text, or .yaml/.yml)")
	pf.StringP("out", "o", "prices.csv", "output file, - for stdout")
	pf.StringP("format", "f", "csv", "output format: csv, table or json")
	pf.String("as-at", "", "session date YYYY-MM-DD instead of the date printed on the sheet")
	pf.String("only", "", "symbol filter: GK,NCBFG | JMMB* | /re/")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")
	pf.Int("last-index", extract.DefaultLayout.LastIndex, "index of the last price among a row's numeric fields")
	pf.Int("min-fields", extract.DefaultLayout.MinFields, "numeric fields a quote row must carry")
	mustBind(v, pf, map[string]string{
		config.KeyConfig:      "config",
		config.KeyWatchlist:   "watchlist",
		config.KeyOutput:      "out",
		config.KeyFormat:      "format",
		config.KeyAsAt:        "as-at",
		config.KeyOnly:        "only",
		config.KeyLogLevel:    "log-level",
		config.KeyMetricsFile: "metrics-file",
		config.KeyLastIndex:   "last-index",
		config.KeyMinFields:   "min-fields",
	})

	rootCmd.AddCommand(newFetchCmd(v), newParseCmd(v))
	return rootCmd
}

func newFetchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the latest quote sheets from the JSE site and extract prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args, fetchLoader)
		},
	}

	f := cmd.Flags()
	f.String("base-url", fetch.DefaultBaseURL, "daily quote sheet page")
	f.String("markets", "33,31,32,34,35,36", "comma-separated JSE market ids, tried in order")
	f.Int("lookback", 10, "days to walk back looking for a published sheet")
	f.Duration("timeout", 90*time.Second, "per-request timeout")
	f.Uint64("retries", fetch.DefaultRetries, "retries after a transient HTTP failure")
	mustBind(v, f, map[string]string{
		config.KeyBaseURL:      "base-url",
		config.KeyMarkets:      "markets",
		config.KeyLookbackDays: "lookback",
		config.KeyTimeout:      "timeout",
		config.KeyRetries:      "retries",
	})
	return cmd
}

func newParseCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <document>...",
		Short: "Extract prices from local quote sheets (PDF or text)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("requires at least 1 document argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args, fileLoader)
		},
	}
}

func mustBind(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func fetchLoader(cfg config.Config, _ []string) (document.Loader, error) {
	markets, err := cfg.Fetch.MarketIDs()
	if err != nil {
		return nil, err
	}
	client := fetch.NewClient(
		fetch.WithBaseURL(cfg.Fetch.BaseURL),
		fetch.WithHTTPClient(fetch.NewHTTPClient(cfg.Fetch.Timeout)),
		fetch.WithRetries(cfg.Fetch.Retries),
		fetch.WithLogger(logger.Log),
	)
	return fetch.Loader{
		Fetcher: client,
		Dates:   fetch.LookbackDates(time.Now(), cfg.Fetch.LookbackDays),
		Markets: markets,
		Log:     logger.Log,
	}, nil
}

func fileLoader(_ config.Config, args []string) (document.Loader, error) {
	return document.FileLoader{Paths: args}, nil
}

func run(cmd *cobra.Command, v *viper.Viper, args []string, newLoader loaderFunc) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Log
	defer func() { _ = log.Sync() }()

	if cfg.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Warn("write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
			}
		}()
	}

	filt, err := filter.Parse(cfg.Only)
	if err != nil {
		return err
	}
	renderer, err := render.ForFormat(cfg.Format)
	if err != nil {
		return err
	}
	loader, err := newLoader(cfg, args)
	if err != nil {
		return err
	}

	opts := pipeline.ExecuteOptions{
		Watchlist:      cfg.Watchlist,
		Filter:         filt,
		RequireSymbols: true,
		PrettyJSON:     true,
	}
	if asAt, ok := cfg.SuppliedAsAt(); ok {
		opts.AsAt = asAt
	}
	if cfg.Output == "-" {
		w := cmd.OutOrStdout()
		opts.Writer = w
		if f, ok := w.(*os.File); ok {
			width, tty := terminalWidth(f)
			opts.Color = tty
			if width > 0 {
				opts.MaxColWidth = width / 2
			}
		}
	} else {
		opts.Output = cfg.Output
	}

	runner := &pipeline.Runner{
		Source:    source.Auto{},
		Loader:    loader,
		Extractor: extract.NewExtractor(cfg.Layout.ExtractLayout()),
		Renderer:  renderer,
		Log:       log,
	}
	rep, err := runner.Execute(cmd.Context(), opts)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return err
	}
	if len(rep.Missing) > 0 {
		log.Warn("symbols without a price", zap.Strings("symbols", rep.Missing))
	}
	return nil
}
