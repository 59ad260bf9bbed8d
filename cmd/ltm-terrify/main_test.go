package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/ltm-terrify/pkg/extract"
	"github.com/ritzau/ltm-terrify/pkg/snapshot"
)

// execute runs the CLI in a scratch directory so no local config or login
// file leaks into the test
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func testdata(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs("../../pkg/snapshot/testdata/web.yaml")
	require.NoError(t, err)
	return path
}

func TestRootFromSnapshot(t *testing.T) {
	out, err := execute(t, "--snapshot", testdata(t), "--filter", "web", "--summary=false")
	require.NoError(t, err)

	assert.Contains(t, out, `resource "bigip_ltm_virtual_server" "web-vip"`)
	assert.Contains(t, out, "#import# terraform import bigip_ltm_pool.web-pool /Common/web-pool\n")
	assert.Contains(t, out, "#import# terraform import bigip_ltm_node.web-pool-member-1 /Common/host-1\n")
	assert.Contains(t, out, `'{"pool": "/Common/web-pool", "node": "/Common/host-1"}'`)
	assert.NotContains(t, out, "api-vip")
	assert.NotContains(t, out, "orphan-pool")
}

func TestRootIsReproducible(t *testing.T) {
	args := []string{"--snapshot", testdata(t), "--sort", "--orphans", "--rewrite-hints", "--summary=false"}

	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "# unreferenced pool: /Common/orphan-pool")
	assert.Contains(t, first, "# unreferenced node: /Common/host-3")
}

func TestRootWritesFiles(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "ltm.tf")
	dot := filepath.Join(dir, "ltm.dot")

	out, err := execute(t, "--snapshot", testdata(t), "-o", tf, "--graph", dot, "--import-style", "block", "--summary=false")
	require.NoError(t, err)
	assert.Empty(t, out, "stdout is unused with --out")

	data, err := os.ReadFile(tf)
	require.NoError(t, err)
	assert.Contains(t, string(data), "import {\n  to = bigip_ltm_pool.api-pool\n")

	graph, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(graph), `"vs:/Common/api-vip" -> "pool:/Common/api-pool";`)
}

func TestRootBlankIdentifierWritesNothing(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "bad.yaml")
	tf := filepath.Join(dir, "ltm.tf")
	require.NoError(t, os.WriteFile(snap, []byte(`
virtualServers:
  - name: vip
    fullPath: /Common/vip
    pool: /Common/pool
pools:
  - name: pool
    fullPath: /Common/pool
members:
  /Common/pool:
    - name: "::80"
      fullPath: /Common/::80
nodes: []
`), 0o644))

	out, err := execute(t, "--snapshot", snap, "-o", tf)
	require.Error(t, err)

	var blank *extract.BlankIdentifierError
	assert.True(t, errors.As(err, &blank), "got %v", err)
	assert.Empty(t, out)
	assert.NoFileExists(t, tf)
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no source", nil},
		{"bad filter", []string{"--snapshot", "x.yaml", "--filter", "/(/"}},
		{"bad policy", []string{"--snapshot", "x.yaml", "--collisions", "merge"}},
		{"positional args", []string{"--snapshot", "x.yaml", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func fakeBigIP(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()

	r.HandleFunc("/mgmt/tm/ltm/virtual", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"items": [
			{"name": "web-vip", "fullPath": "/Common/web-vip", "pool": "/Common/web-pool", "destination": "/Common/10.0.0.1:443"}
		]}`))
	})
	r.HandleFunc("/mgmt/tm/ltm/pool", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"items": [
			{"name": "web-pool", "fullPath": "/Common/web-pool"},
			{"name": "old-pool", "fullPath": "/Common/old-pool"}
		]}`))
	})
	r.HandleFunc("/mgmt/tm/ltm/pool/{pool}/members", func(w http.ResponseWriter, req *http.Request) {
		pool := mux.Vars(req)["pool"]
		_, _ = w.Write([]byte(`{"items": [
			{"name": "host-1:80", "fullPath": "/Common/host-1:80",
			 "selfLink": "https://localhost/mgmt/tm/ltm/pool/` + pool + `/members/~Common~host-1:80"}
		]}`))
	})
	r.HandleFunc("/mgmt/tm/ltm/node", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"items": [{"name": "host-1", "fullPath": "/Common/host-1", "address": "10.1.1.1"}]}`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestCaptureThenGenerate(t *testing.T) {
	srv := fakeBigIP(t)
	snapPath := filepath.Join(t.TempDir(), "lb1.yaml")

	_, err := execute(t, "capture", "--host", srv.URL, "--user", "admin", "--password", "secret", "-o", snapPath)
	require.NoError(t, err)

	snap, err := snapshot.Load(snapPath)
	require.NoError(t, err)
	assert.Len(t, snap.Pools, 2)
	assert.Len(t, snap.Members["/Common/old-pool"], 1, "capture dumps members of every pool")

	out, err := execute(t, "--snapshot", snapPath, "--summary=false")
	require.NoError(t, err)
	assert.Contains(t, out, `resource "bigip_ltm_pool_attachment" "web-pool_common_host-1"`)
	assert.NotContains(t, out, "bigip_ltm_pool.old-pool")
}

func TestCaptureRequiresOut(t *testing.T) {
	_, err := execute(t, "capture", "--host", "lb1.example.com", "--user", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out")
}
