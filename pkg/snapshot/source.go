package snapshot

import (
	"context"

	"github.com/ritzau/ltm-terrify/pkg/model"
	"github.com/ritzau/ltm-terrify/pkg/source"
)

// FileSource serves a loaded snapshot through the source.Source interface
type FileSource struct {
	path    string
	snap    *Snapshot
	fetched []string
}

var _ source.Source = (*FileSource)(nil)

// NewFileSource loads path and wraps it as a source
func NewFileSource(path string) (*FileSource, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, snap: snap}, nil
}

// NewSource wraps an in-memory snapshot
func NewSource(snap *Snapshot) *FileSource {
	return &FileSource{snap: snap}
}

func (s *FileSource) Name() string {
	if s.path == "" {
		return "snapshot"
	}
	return "snapshot:" + s.path
}

func (s *FileSource) VirtualServers(ctx context.Context) ([]model.VirtualServer, error) {
	return s.snap.VirtualServers, nil
}

func (s *FileSource) Pools(ctx context.Context) ([]model.Pool, error) {
	return s.snap.Pools, nil
}

func (s *FileSource) PoolMembers(ctx context.Context, pool model.Pool) ([]model.Member, error) {
	s.fetched = append(s.fetched, pool.FullPath)
	return s.snap.Members[pool.FullPath], nil
}

func (s *FileSource) Nodes(ctx context.Context) ([]model.Node, error) {
	return s.snap.Nodes, nil
}

// FetchedPools returns the pools whose members have been requested, in order
func (s *FileSource) FetchedPools() []string {
	return s.fetched
}
