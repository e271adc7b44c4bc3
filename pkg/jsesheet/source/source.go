package source

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// ErrEmptyWatchlist is returned by callers that refuse to run without symbols.
var ErrEmptyWatchlist = errors.New("watchlist has no symbols")

// Source loads a watchlist from a file path.
type Source interface {
	Load(ctx context.Context, path string) (types.Watchlist, error)
}

// ForPath picks the YAML source for .yaml/.yml files and the plain text
// source for everything else.
func ForPath(path string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLSource{}
	default:
		return TextSource{}
	}
}

// Auto dispatches on the path given to Load.
type Auto struct{}

func (Auto) Load(ctx context.Context, path string) (types.Watchlist, error) {
	return ForPath(path).Load(ctx, path)
}

// normalize trims and upper-cases symbols, dropping blanks and repeats while
// keeping first-seen order.
func normalize(syms []string) []string {
	out := make([]string, 0, len(syms))
	seen := make(map[string]struct{}, len(syms))
	for _, s := range syms {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
