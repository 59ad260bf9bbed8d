package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/ltm-terrify/pkg/model"
	"github.com/ritzau/ltm-terrify/pkg/source"
)

func TestLoadYAML(t *testing.T) {
	snap, err := Load(filepath.Join("testdata", "web.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "bigip:lb1.example.com", snap.Metadata.Source)
	require.Len(t, snap.VirtualServers, 3)
	assert.Equal(t, "/Common/web-pool", snap.VirtualServers[0].Pool.OrElse(""))
	assert.False(t, snap.VirtualServers[2].Pool.IsSet(), "redirect-vip has no pool")
	assert.Len(t, snap.Pools, 3)
	assert.Len(t, snap.Members["/Common/web-pool"], 2)
	assert.Len(t, snap.Nodes, 3)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("virtualServer:\n  - name: typo\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "error = %v", err)
}

func TestSaveThenLoadPreservesOptionalFields(t *testing.T) {
	orig, err := Load(filepath.Join("testdata", "web.yaml"))
	require.NoError(t, err)

	for _, name := range []string{"copy.yaml", "copy.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(path, orig))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, orig.VirtualServers, got.VirtualServers)
			assert.Equal(t, orig.Members, got.Members)
		})
	}
}

func TestCaptureFetchesEveryPool(t *testing.T) {
	src := &source.MockSource{
		MockVirtualServers: []model.VirtualServer{{Name: "web-vip", FullPath: "/Common/web-vip"}},
		MockPools: []model.Pool{
			{Name: "web-pool", FullPath: "/Common/web-pool"},
			{Name: "unused-pool", FullPath: "/Common/unused-pool"},
		},
		MockMembers: map[string][]model.Member{
			"/Common/web-pool": {{Name: "host-1:80", FullPath: "/Common/host-1:80", SelfLink: "l1"}},
		},
		MockNodes: []model.Node{{Name: "host-1", FullPath: "/Common/host-1"}},
	}

	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	snap, err := Capture(context.Background(), src, now)
	require.NoError(t, err)

	assert.Equal(t, []string{"/Common/web-pool", "/Common/unused-pool"}, src.MemberFetches)
	assert.Equal(t, "mock", snap.Metadata.Source)
	assert.Equal(t, now, snap.Metadata.CapturedAt)
	assert.Len(t, snap.Members["/Common/web-pool"], 1)
}

func TestCaptureAbortsOnSourceError(t *testing.T) {
	src := &source.MockSource{MockError: errors.New("connection refused")}

	_, err := Capture(context.Background(), src, time.Now())
	assert.ErrorContains(t, err, "connection refused")
}

func TestFileSourceRecordsMemberFetches(t *testing.T) {
	src, err := NewFileSource(filepath.Join("testdata", "web.yaml"))
	require.NoError(t, err)

	members, err := src.PoolMembers(context.Background(), model.Pool{FullPath: "/Common/api-pool"})
	require.NoError(t, err)
	assert.Len(t, members, 2)

	missing, err := src.PoolMembers(context.Background(), model.Pool{FullPath: "/Common/empty"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.Equal(t, []string{"/Common/api-pool", "/Common/empty"}, src.FetchedPools())
	assert.Equal(t, "snapshot:"+filepath.Join("testdata", "web.yaml"), src.Name())
}
