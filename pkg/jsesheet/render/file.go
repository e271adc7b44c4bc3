package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// WriteFile renders records into memory and then replaces path with the
// result through a temp file in the same directory. When rendering or
// writing fails the existing file is left untouched.
func WriteFile(path string, r Renderer, records []types.PriceRecord, opts RenderOptions) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, records, opts); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}
