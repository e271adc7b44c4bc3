package source

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// YAMLSource loads a watchlist from YAML. Two shapes are accepted:
//
//	watchlist:
//	  - sym: GK
//	  - name: Banks
//	    watchlist:
//	      - sym: NCBFG
//	      - SJ
//
// or a bare top-level list of the same items. Groups are flattened
// depth-first in file order.
type YAMLSource struct{}

func (YAMLSource) Load(ctx context.Context, path string) (types.Watchlist, error) { //nolint:revive // ctx reserved for remote sources
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Watchlist{}, fmt.Errorf("open watchlist: %w", err)
	}
	name, syms, err := parseYAML(data)
	if err != nil {
		return types.Watchlist{}, fmt.Errorf("%s: %w", path, err)
	}
	if name == "" {
		name = baseName(path)
	}
	return types.Watchlist{Name: name, Symbols: normalize(syms)}, nil
}

func parseYAML(data []byte) (string, []string, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", nil, err
	}
	root = norm(root)

	var (
		name string
		node any
	)
	switch r := root.(type) {
	case []any:
		node = r
	case map[string]any:
		wl, ok := r["watchlist"]
		if !ok || wl == nil {
			return "", nil, fmt.Errorf("invalid yaml: missing 'watchlist'")
		}
		if n, ok := r["name"].(string); ok {
			name = n
		}
		node = wl
	case nil:
		return "", nil, nil
	default:
		return "", nil, fmt.Errorf("invalid yaml: expected list or map with 'watchlist'")
	}

	var syms []string
	var walk func(n any) error
	walk = func(n any) error {
		switch v := n.(type) {
		case []any:
			for _, e := range v {
				if err := walk(e); err != nil {
					return err
				}
			}
		case map[string]any:
			if child, ok := v["watchlist"]; ok {
				return walk(child)
			}
			sym, ok := v["sym"]
			if !ok || sym == nil {
				return fmt.Errorf("invalid yaml: item without 'sym': %v", v)
			}
			syms = append(syms, fmt.Sprint(sym))
		case string:
			syms = append(syms, v)
		case nil:
		default:
			syms = append(syms, fmt.Sprint(v))
		}
		return nil
	}
	if err := walk(node); err != nil {
		return "", nil, err
	}
	return name, syms, nil
}

// norm converts maps with non-string keys to map[string]any.
func norm(v any) any {
	switch m := v.(type) {
	case map[any]any:
		mm := make(map[string]any, len(m))
		for k, val := range m {
			mm[fmt.Sprint(k)] = norm(val)
		}
		return mm
	case map[string]any:
		for k, val := range m {
			m[k] = norm(val)
		}
		return m
	case []any:
		out := make([]any, 0, len(m))
		for _, e := range m {
			out = append(out, norm(e))
		}
		return out
	default:
		return v
	}
}
