package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// TextSource reads one symbol per line. Blank lines and '#' comments are
// ignored, including comments trailing a symbol.
type TextSource struct{}

func (TextSource) Load(ctx context.Context, path string) (types.Watchlist, error) { //nolint:revive // ctx reserved for remote sources
	f, err := os.Open(path)
	if err != nil {
		return types.Watchlist{}, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()

	var syms []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		syms = append(syms, line)
	}
	if err := sc.Err(); err != nil {
		return types.Watchlist{}, fmt.Errorf("read watchlist %s: %w", path, err)
	}
	return types.Watchlist{Name: baseName(path), Symbols: normalize(syms)}, nil
}
