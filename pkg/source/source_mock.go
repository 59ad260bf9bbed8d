package source

import (
	"context"

	"github.com/ritzau/ltm-terrify/pkg/model"
)

// MockSource is an in-memory Source for testing
type MockSource struct {
	MockVirtualServers []model.VirtualServer
	MockPools          []model.Pool
	MockMembers        map[string][]model.Member // pool fullPath -> members
	MockNodes          []model.Node
	MockError          error

	// MemberFetches records the pools whose members were requested, in order
	MemberFetches []string
}

func (m *MockSource) Name() string {
	return "mock"
}

func (m *MockSource) VirtualServers(ctx context.Context) ([]model.VirtualServer, error) {
	return m.MockVirtualServers, m.MockError
}

func (m *MockSource) Pools(ctx context.Context) ([]model.Pool, error) {
	return m.MockPools, m.MockError
}

func (m *MockSource) PoolMembers(ctx context.Context, pool model.Pool) ([]model.Member, error) {
	m.MemberFetches = append(m.MemberFetches, pool.FullPath)
	return m.MockMembers[pool.FullPath], m.MockError
}

func (m *MockSource) Nodes(ctx context.Context) ([]model.Node, error) {
	return m.MockNodes, m.MockError
}
