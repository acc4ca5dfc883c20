package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/and161185/linstor-dashboard/internal/config"
	"github.com/and161185/linstor-dashboard/internal/server/testutils"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.ClientConfig {
	return &config.ClientConfig{
		MetricsPath:   "/metrics",
		ClientTimeout: 1,
		Output:        "json",
		Logger:        zap.NewNop().Sugar(),
	}
}

func decodeView(t *testing.T, b []byte) model.DashboardView {
	t.Helper()
	var view model.DashboardView
	require.NoError(t, json.Unmarshal(b, &view))
	return view
}

func TestRun_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.txt")
	require.NoError(t, os.WriteFile(path, []byte(testutils.Exposition), 0o600))

	cfg := testConfig()
	cfg.File = path

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	view := decodeView(t, out.Bytes())
	require.Equal(t, model.DataAvailable, view.State)
	require.Equal(t, model.SummaryCounts{Node: 3, Resource: 4, Volume: 2, ErrorReport: 4}, view.Snapshot.Summary)
	require.Equal(t, []model.PieDatum{{X: "online", Y: 2}, {X: "offline", Y: 1}}, view.Snapshot.Nodes.Data)
}

func TestRun_FromController(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/metrics", r.URL.Path)
		_, _ = w.Write([]byte(testutils.Exposition))
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.Endpoint = ts.URL
	cfg.Output = "text"

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	text := out.String()
	require.Contains(t, text, "data_available")
	require.Contains(t, text, "error reports  4")
	require.Contains(t, text, "node states")
	require.Contains(t, text, "online")
}

func TestRun_TextCapacityInGiB(t *testing.T) {
	text := testutils.Exposition + `# TYPE linstor_storage_pool_capacity_total_bytes gauge
linstor_storage_pool_capacity_total_bytes{node="a",storage_pool="thin"} 2147483648
linstor_storage_pool_capacity_total_bytes{node="b",storage_pool="thin"} 1073741824
# TYPE linstor_storage_pool_capacity_free_bytes gauge
linstor_storage_pool_capacity_free_bytes{node="a",storage_pool="thin"} 536870912
linstor_storage_pool_capacity_free_bytes{node="b",storage_pool="thin"} 268435456
`
	path := filepath.Join(t.TempDir(), "metrics.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	cfg := testConfig()
	cfg.File = path
	cfg.Output = "text"

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))
	require.Contains(t, out.String(), "0.75 GiB free of 3 GiB (75.0% used)")
}

func TestRun_ControllerDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.Endpoint = ts.URL

	var out bytes.Buffer
	require.Error(t, run(context.Background(), cfg, &out))
	require.Zero(t, out.Len())
}

func TestRun_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("linstor_node_state{node=\"a\" 1\n"), 0o600))

	cfg := testConfig()
	cfg.File = path

	var out bytes.Buffer
	require.Error(t, run(context.Background(), cfg, &out))
}

func TestRun_FromDashboardServer(t *testing.T) {
	srv, _ := testutils.NewTestServer()
	h, err := srv.Router()
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	defer ts.Close()

	cfg := testConfig()
	cfg.Server = ts.URL
	cfg.Output = "text"

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, run(ctx, cfg, &out))
	require.Contains(t, out.String(), "awaiting_data")
}

func TestRun_UnknownOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.txt")
	require.NoError(t, os.WriteFile(path, []byte(testutils.Exposition), 0o600))

	cfg := testConfig()
	cfg.File = path
	cfg.Output = "yaml"

	err := run(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "yaml")
}
