package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/komsit37/jsesheet/pkg/jsesheet/extract"
	"github.com/komsit37/jsesheet/pkg/jsesheet/fetch"
)

// Keys shared by flags, env and config files.
const (
	KeyConfig       = "config"
	KeyWatchlist    = "watchlist"
	KeyOutput       = "output"
	KeyFormat       = "format"
	KeyAsAt         = "as_at"
	KeyOnly         = "only"
	KeyLogLevel     = "log_level"
	KeyMetricsFile  = "metrics_file"
	KeyBaseURL      = "fetch.base_url"
	KeyMarkets      = "fetch.markets"
	KeyLookbackDays = "fetch.lookback_days"
	KeyTimeout      = "fetch.timeout"
	KeyRetries      = "fetch.retries"
	KeyLastIndex    = "layout.last_index"
	KeyMinFields    = "layout.min_fields"
)

// EnvPrefix is prepended to every key for environment lookup, so
// fetch.base_url reads JSESHEET_FETCH_BASE_URL.
const EnvPrefix = "JSESHEET"

// AsAtLayout is the accepted form of a caller-supplied session date.
const AsAtLayout = time.DateOnly

type Fetch struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	Markets      string        `mapstructure:"markets" validate:"required"`
	LookbackDays int           `mapstructure:"lookback_days" validate:"min=1,max=60"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"min=1s"`
	Retries      uint64        `mapstructure:"retries" validate:"max=10"`
}

type Layout struct {
	LastIndex int `mapstructure:"last_index" validate:"min=0"`
	MinFields int `mapstructure:"min_fields" validate:"gtfield=LastIndex"`
}

type Config struct {
	Watchlist   string `mapstructure:"watchlist" validate:"required"`
	Output      string `mapstructure:"output" validate:"required"`
	Format      string `mapstructure:"format" validate:"oneof=csv table json"`
	AsAt        string `mapstructure:"as_at" validate:"omitempty,datetime=2006-01-02"`
	Only        string `mapstructure:"only"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	MetricsFile string `mapstructure:"metrics_file"`
	Fetch       Fetch  `mapstructure:"fetch"`
	Layout      Layout `mapstructure:"layout"`
}

// SetDefaults registers defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyWatchlist, "watchlist.txt")
	v.SetDefault(KeyOutput, "prices.csv")
	v.SetDefault(KeyFormat, "csv")
	v.SetDefault(KeyAsAt, "")
	v.SetDefault(KeyOnly, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyBaseURL, fetch.DefaultBaseURL)
	v.SetDefault(KeyMarkets, joinInts(fetch.DefaultMarkets))
	v.SetDefault(KeyLookbackDays, 10)
	v.SetDefault(KeyTimeout, 90*time.Second)
	v.SetDefault(KeyRetries, fetch.DefaultRetries)
	v.SetDefault(KeyLastIndex, extract.DefaultLayout.LastIndex)
	v.SetDefault(KeyMinFields, extract.DefaultLayout.MinFields)
}

// bindEnv maps keys to JSESHEET_* variables and to the older unprefixed
// names the cron job still sets.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	legacy := map[string]string{
		KeyWatchlist:    "WATCHLIST_FILE",
		KeyMarkets:      "JSE_MARKETS",
		KeyLookbackDays: "JSE_LOOKBACK_DAYS",
		KeyLogLevel:     "LOG_LEVEL",
	}
	for key, env := range legacy {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return err
		}
	}
	return nil
}

// Load resolves configuration from defaults, the optional config file named
// by the "config" key, the environment and any flags already bound to v,
// then validates it.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if os.Getenv("DEBUG") == "1" {
		cfg.LogLevel = "debug"
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MarketIDs parses the comma-separated market list.
func (f Fetch) MarketIDs() ([]int, error) {
	var out []int
	for _, p := range strings.Split(f.Markets, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid market id %q", p)
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, errors.New("no market ids")
	}
	return out, nil
}

// ExtractLayout converts the layout section.
func (l Layout) ExtractLayout() extract.Layout {
	return extract.Layout{LastIndex: l.LastIndex, MinFields: l.MinFields}
}

// SuppliedAsAt returns the caller-supplied session date, if any.
func (c Config) SuppliedAsAt() (time.Time, bool) {
	if c.AsAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(AsAtLayout, c.AsAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

var validate = validator.New()

// Validate checks cfg and reports every problem found.
func Validate(cfg Config) error {
	var errs ValidationErrors
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, ValidationError{
				Field:   fe.Namespace(),
				Message: message(fe),
			})
		}
	}
	if _, err := cfg.Fetch.MarketIDs(); err != nil && cfg.Fetch.Markets != "" {
		errs = append(errs, ValidationError{Field: "Config.Fetch.Markets", Message: err.Error()})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors collects invalid settings.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("%q is not a valid URL", fe.Value())
	case "oneof":
		return fmt.Sprintf("%v is not one of [%s]", fe.Value(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%v must be a date like %s", fe.Value(), fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
