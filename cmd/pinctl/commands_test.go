package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinpool/internal/pin/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClassify(t *testing.T) {
	out, err := execute(t, "classify", "1234", "5871")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1234\tnot allowed\tascending_run", lines[0])
	assert.Equal(t, "5871\tallowed", lines[1])
}

func TestClassify_RejectsMalformedCode(t *testing.T) {
	_, err := execute(t, "classify", "12a4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only digits")
}

func TestGenerate_MemoryStore(t *testing.T) {
	out, err := execute(t, "--store", "memory", "generate", "-n", "3")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 3)
	seen := map[string]bool{}
	for _, l := range lines {
		_, perr := models.ParseCode(l)
		require.NoError(t, perr)
		seen[l] = true
	}
	assert.Len(t, seen, 3)
}

func TestGenerate_InvalidCount(t *testing.T) {
	_, err := execute(t, "generate", "-n", "0")
	require.Error(t, err)
}

func TestStats_SQLiteAfterGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.db")

	_, err := execute(t, "--store", "sqlite", "--sqlite", path, "allocate", "-n", "4")
	require.NoError(t, err)

	out, err := execute(t, "--store", "sqlite", "--sqlite", path, "stats")
	require.NoError(t, err)

	var stats models.PoolStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 10000, stats.Total)
	assert.Equal(t, 429, stats.NotAllowed)
	assert.Equal(t, 4, stats.Allocated)

	out, err = execute(t, "--store", "sqlite", "--sqlite", path, "rollover")
	require.NoError(t, err)
	assert.Contains(t, out, "allocation reset")

	out, err = execute(t, "--store", "sqlite", "--sqlite", path, "stats")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Zero(t, stats.Allocated)
}

func TestBootstrap_PrintsReport(t *testing.T) {
	out, err := execute(t, "bootstrap")
	require.NoError(t, err)

	var report models.BootstrapReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 10000, report.Inserted)
	assert.Equal(t, 429, report.Classified)
	assert.Equal(t, 9571, report.AllowedPool)
}
