package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/jsesheet/pkg/jsesheet/metrics"
)

func TestWriteTextfile(t *testing.T) {
	// Arrange
	before := testutil.ToFloat64(metrics.SymbolsFound)
	metrics.SymbolsFound.Add(2)
	metrics.Runs.WithLabelValues("ok").Inc()
	path := filepath.Join(t.TempDir(), "jsesheet.prom")

	// Act
	require.NoError(t, metrics.WriteTextfile(path))

	// Assert
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.SymbolsFound))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "jsesheet_symbols_found_total")
	assert.Contains(t, string(b), `jsesheet_runs_total{result="ok"}`)
}
