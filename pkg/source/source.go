package source

import (
	"context"

	"github.com/ritzau/ltm-terrify/pkg/model"
)

// Source is a read-only view of an appliance's LTM configuration.
// Every call blocks until the data is available; a failure aborts the run,
// so implementations should not retry on their own.
type Source interface {
	// Name returns a short description of the source (e.g., "bigip:lb1.example.com").
	Name() string

	// VirtualServers returns all virtual servers.
	VirtualServers(ctx context.Context) ([]model.VirtualServer, error)

	// Pools returns all pools without their members.
	Pools(ctx context.Context) ([]model.Pool, error)

	// PoolMembers returns the members of one pool.
	PoolMembers(ctx context.Context, pool model.Pool) ([]model.Member, error)

	// Nodes returns the full node inventory.
	Nodes(ctx context.Context) ([]model.Node, error)
}
