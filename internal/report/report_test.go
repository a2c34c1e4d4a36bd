package report

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periscope-tools/periscope/internal/getter"
)

type stubGetter struct {
	hostType getter.HostType
	key      string
	result   any
	err      error
}

func (s *stubGetter) Get(ctx context.Context, cmd getter.Command) (any, error) {
	return s.result, s.err
}

func (s *stubGetter) ReportKey() string { return s.key }

func (s *stubGetter) HostType() getter.HostType { return s.hostType }

func newTestCoordinator() *Coordinator {
	return &Coordinator{
		Sessions: &getter.Sessions{Logger: slog.Default()},
		Logger:   slog.Default(),
		Version:  "test",
	}
}

func TestCoordinator_Run(t *testing.T) {
	probes := Probes{
		getter.HostTypeSSH: {
			"uptime":  getter.Command{Line: "uptime"},
			"version": getter.Command{Line: "airflow version"},
		},
	}

	t.Run("results nest by type, key and check", func(t *testing.T) {
		getters := []getter.Getter{
			&stubGetter{hostType: getter.HostTypeSSH, key: "host-a", result: "up"},
			&stubGetter{hostType: getter.HostTypeSSH, key: "host-b", result: "up"},
		}

		doc, err := newTestCoordinator().Run(t.Context(), getters, probes, RunOptions{})
		require.NoError(t, err)

		section, ok := doc["ssh"].(map[string]map[string]any)
		require.True(t, ok)
		require.Len(t, section, 2)
		assert.Equal(t, map[string]any{"uptime": "up", "version": "up"}, section["host-a"])
		assert.Equal(t, map[string]any{"uptime": "up", "version": "up"}, section["host-b"])
	})

	t.Run("check failure records the error string", func(t *testing.T) {
		getters := []getter.Getter{
			&stubGetter{hostType: getter.HostTypeSSH, key: "host-a", err: errors.New("dial tcp: refused")},
		}

		doc, err := newTestCoordinator().Run(t.Context(), getters, probes, RunOptions{})
		require.NoError(t, err)

		section := doc["ssh"].(map[string]map[string]any)
		assert.Equal(t, "dial tcp: refused", section["host-a"]["uptime"])
	})

	t.Run("metadata is stamped", func(t *testing.T) {
		doc, err := newTestCoordinator().Run(t.Context(), nil, probes, RunOptions{})
		require.NoError(t, err)

		meta, ok := doc["metadata"].(map[string]any)
		require.True(t, ok)
		assert.NotEmpty(t, meta["generated_at"])
		assert.NotEmpty(t, meta["run_id"])
		assert.Equal(t, "test", meta["tool_version"])
	})

	t.Run("types without probes stay absent", func(t *testing.T) {
		getters := []getter.Getter{
			&stubGetter{hostType: getter.HostTypeDocker, key: "0123456789ab", result: "ignored"},
		}

		doc, err := newTestCoordinator().Run(t.Context(), getters, probes, RunOptions{})
		require.NoError(t, err)
		assert.NotContains(t, doc, "docker")
	})

	t.Run("serial run behaves the same", func(t *testing.T) {
		c := newTestCoordinator()
		c.Parallelism = 1
		getters := []getter.Getter{
			&stubGetter{hostType: getter.HostTypeSSH, key: "host-a", result: "up"},
		}

		doc, err := c.Run(t.Context(), getters, probes, RunOptions{})
		require.NoError(t, err)
		section := doc["ssh"].(map[string]map[string]any)
		assert.Len(t, section["host-a"], 2)
	})
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCoordinator_Gather_HostsFile(t *testing.T) {
	t.Run("ssh and local entries", func(t *testing.T) {
		path := writeTempFile(t, "hosts.yaml", `
ssh:
  - host: airflow-a.example.com
  - host: deploy@airflow-b.example.com
local:
`)
		getters, err := newTestCoordinator().Gather(t.Context(), GatherOptions{HostsFile: path})
		require.NoError(t, err)
		require.Len(t, getters, 3)

		byType := map[getter.HostType]int{}
		for _, g := range getters {
			byType[g.HostType()]++
		}
		assert.Equal(t, 2, byType[getter.HostTypeSSH])
		assert.Equal(t, 1, byType[getter.HostTypeLocal])
	})

	t.Run("unknown host type is skipped", func(t *testing.T) {
		path := writeTempFile(t, "hosts.yaml", `
mainframe:
  - host: big-iron.example.com
ssh:
  - host: airflow.example.com
`)
		getters, err := newTestCoordinator().Gather(t.Context(), GatherOptions{HostsFile: path})
		require.NoError(t, err)
		require.Len(t, getters, 1)
		assert.Equal(t, getter.HostTypeSSH, getters[0].HostType())
	})

	t.Run("invalid entry fails validation", func(t *testing.T) {
		path := writeTempFile(t, "hosts.yaml", `
kubernetes:
  - name: scheduler-0
`)
		_, err := newTestCoordinator().Gather(t.Context(), GatherOptions{HostsFile: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kubernetes")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := newTestCoordinator().Gather(t.Context(), GatherOptions{HostsFile: "/does/not/exist.yaml"})
		assert.Error(t, err)
	})
}

func TestCoordinator_Gather_Flags(t *testing.T) {
	t.Run("local only", func(t *testing.T) {
		getters, err := newTestCoordinator().Gather(t.Context(), GatherOptions{UseLocal: true})
		require.NoError(t, err)
		require.Len(t, getters, 1)
		assert.Equal(t, getter.HostTypeLocal, getters[0].HostType())
	})

	t.Run("nothing selected", func(t *testing.T) {
		getters, err := newTestCoordinator().Gather(t.Context(), GatherOptions{})
		require.NoError(t, err)
		assert.Empty(t, getters)
	})
}

func TestLoadProbes(t *testing.T) {
	path := writeTempFile(t, "probes.yaml", `
kubernetes:
  airflow_version: ["airflow", "version"]
ssh:
  uptime: uptime
`)
	probes, err := LoadProbes(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"airflow", "version"}, probes[getter.HostTypeKubernetes]["airflow_version"].Argv)
	assert.Equal(t, "uptime", probes[getter.HostTypeSSH]["uptime"].Line)
}

func TestValidateHost(t *testing.T) {
	assert.NoError(t, validateHost(getter.HostTypeSSH, getter.Host{Address: "h"}))
	assert.Error(t, validateHost(getter.HostTypeSSH, getter.Host{}))
	assert.NoError(t, validateHost(getter.HostTypeDocker, getter.Host{ContainerID: "abc"}))
	assert.Error(t, validateHost(getter.HostTypeDocker, getter.Host{}))
	assert.NoError(t, validateHost(getter.HostTypeLocal, getter.Host{}))
	assert.Error(t, validateHost(getter.HostTypeKubernetes, getter.Host{Name: "p"}))
	assert.NoError(t, validateHost(getter.HostTypeKubernetes, getter.Host{Name: "p", Namespace: "ns"}))
}
