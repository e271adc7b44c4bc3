package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/jsesheet/pkg/jsesheet/source"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestTextSource_Load(t *testing.T) {
	t.Parallel()

	// Arrange
	path := writeFile(t, "watchlist.txt", "# JSE picks\n\nncbfg\n  GK  # GraceKennedy\nJMMBGL7.25\nGK\n\t\n")

	// Act
	wl, err := source.TextSource{}.Load(context.Background(), path)

	// Assert: order kept, case normalized, comments and repeats dropped.
	require.NoError(t, err)
	assert.Equal(t, "watchlist", wl.Name)
	assert.Equal(t, []string{"NCBFG", "GK", "JMMBGL7.25"}, wl.Symbols)
}

func TestTextSource_Missing(t *testing.T) {
	t.Parallel()

	_, err := source.TextSource{}.Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLSource_Load(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		content  string
		wantName string
		want     []string
		wantErr  bool
	}{
		{
			name: "grouped map form",
			content: `name: core
watchlist:
  - sym: gk
  - name: Banks
    watchlist:
      - sym: NCBFG
      - SJ
  - sym: LASF
`,
			wantName: "core",
			want:     []string{"GK", "NCBFG", "SJ", "LASF"},
		},
		{
			name:     "bare list",
			content:  "- GK\n- sym: NCBFG\n- GK\n",
			wantName: "list",
			want:     []string{"GK", "NCBFG"},
		},
		{
			name:     "empty file",
			content:  "",
			wantName: "list",
			want:     []string{},
		},
		{
			name:    "missing watchlist key",
			content: "symbols: [GK]\n",
			wantErr: true,
		},
		{
			name:    "item without sym",
			content: "watchlist:\n  - name: GraceKennedy\n",
			wantErr: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "list.yaml", c.content)
			wl, err := source.YAMLSource{}.Load(context.Background(), path)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.wantName, wl.Name)
			assert.Equal(t, c.want, wl.Symbols)
		})
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	assert.IsType(t, source.YAMLSource{}, source.ForPath("a/list.YML"))
	assert.IsType(t, source.YAMLSource{}, source.ForPath("list.yaml"))
	assert.IsType(t, source.TextSource{}, source.ForPath("watchlist.txt"))
	assert.IsType(t, source.TextSource{}, source.ForPath("watchlist"))
}

func TestAuto_Load(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "picks.yaml", "watchlist:\n  - sym: GK\n")
	wl, err := source.Auto{}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"GK"}, wl.Symbols)
}
