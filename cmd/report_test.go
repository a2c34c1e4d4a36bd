package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportCmd_Flags(t *testing.T) {
	cmd := newReportCmd()

	for _, name := range []string{
		"local", "docker", "kubernetes", "cluster-info", "verify",
		"hosts-file", "probe-config", "output-file", "parallelism",
		"kubeconfig", "kube-context", "debug", "log-format",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %q", name)
	}

	assert.Equal(t, "config.yaml", cmd.Flags().Lookup("probe-config").DefValue)
	assert.Equal(t, "report.json", cmd.Flags().Lookup("output-file").DefValue)
}

func TestWriteReport(t *testing.T) {
	doc := map[string]any{
		"local": map[string]any{"myhost": map[string]any{"uptime": "up"}},
	}

	t.Run("writes to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.json")
		require.NoError(t, writeReport(doc, path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Contains(t, decoded, "local")
	})

	t.Run("unwritable path fails", func(t *testing.T) {
		err := writeReport(doc, filepath.Join(t.TempDir(), "missing", "report.json"))
		assert.Error(t, err)
	})
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["report"])
	assert.True(t, names["version"])
}
