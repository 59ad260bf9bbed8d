package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/ritzau/ltm-terrify/pkg/filter"
	"github.com/ritzau/ltm-terrify/pkg/ident"
	"github.com/ritzau/ltm-terrify/pkg/logging"
	"github.com/ritzau/ltm-terrify/pkg/model"
	"github.com/ritzau/ltm-terrify/pkg/source"
)

// Options configures an extraction run
type Options struct {
	Filter     filter.Filter
	Sort       bool // sort every fetched collection by fullPath for reproducible output
	Collisions ident.CollisionPolicy
}

// VirtualServerEntry is a selected virtual server with its identifier
type VirtualServerEntry struct {
	model.VirtualServer
	Identifier string
}

// PoolEntry is a pool from the inventory. Identifier is only set when Used.
type PoolEntry struct {
	model.Pool
	Identifier string
	Used       bool
}

// Stats summarizes a run
type Stats struct {
	VirtualServersTotal    int
	VirtualServersSelected int
	PoolsTotal             int
	PoolsUsed              int
	Members                int
	Nodes                  int
	Attachments            int
	OrphanPools            int
	OrphanNodes            int
	DanglingPools          int // pools referenced by a virtual server but absent from the inventory
	Duration               time.Duration
}

// Result is the reference-consistent graph produced by one run
type Result struct {
	Source         string
	Filter         filter.Filter
	VirtualServers []VirtualServerEntry
	Pools          []PoolEntry // whole inventory in processing order
	Nodes          []NodeRecord
	Attachments    []Attachment
	PoolNodes      map[string][]string
	Orphans        Orphans
	Collisions     []ident.Collision
	Stats          Stats
}

// PoolIdentifier returns the identifier of a declared pool
func (r *Result) PoolIdentifier(fullPath string) (string, bool) {
	for _, p := range r.Pools {
		if p.Used && p.FullPath == fullPath {
			return p.Identifier, true
		}
	}
	return "", false
}

// Extractor runs the extraction pipeline against a source
type Extractor struct {
	src  source.Source
	opts Options
}

// New creates an extractor
func New(src source.Source, opts Options) *Extractor {
	return &Extractor{src: src, opts: opts}
}

// Run performs one synchronous pass: select virtual servers, collect the
// pools they use, dedupe nodes, generate attachments, then report orphans.
// Any source failure or identifier problem aborts the whole run.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	logger := logging.New("extract")
	if runID := logging.GetRunID(ctx); runID != "" {
		logger = logger.With("runID", runID)
	}
	reg := ident.NewRegistry(e.opts.Collisions)

	result := &Result{Source: e.src.Name(), Filter: e.opts.Filter}

	// 1. Virtual servers
	vips, err := e.src.VirtualServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching virtual servers: %w", err)
	}
	if e.opts.Sort {
		vips = sorted(vips, model.SortVirtualServers)
	}

	selected, used := SelectVIPs(vips, e.opts.Filter)
	logger.InfoContext(ctx, "selected virtual servers",
		"selected", len(selected),
		"total", len(vips),
		"filter", e.opts.Filter.String(),
		"usedPools", len(used),
	)

	for _, vip := range selected {
		id, err := claim(reg, model.ResourceVirtualServer, vip.Name, vip.FullPath)
		if err != nil {
			return nil, err
		}
		result.VirtualServers = append(result.VirtualServers, VirtualServerEntry{VirtualServer: vip, Identifier: id})
	}

	// 2. Pools and their members
	pools, err := e.src.Pools(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pools: %w", err)
	}
	if e.opts.Sort {
		pools = sorted(pools, model.SortPools)
	}

	known := NewPathSet()
	for _, pool := range pools {
		known.Add(pool.FullPath)
		entry := PoolEntry{Pool: pool, Used: used.Has(pool.FullPath)}
		if entry.Used {
			id, err := claim(reg, model.ResourcePool, pool.Name, pool.FullPath)
			if err != nil {
				return nil, err
			}
			entry.Identifier = id
		}
		result.Pools = append(result.Pools, entry)
	}
	for _, path := range used.Sorted() {
		if !known.Has(path) {
			result.Stats.DanglingPools++
			logger.WarnContext(ctx, "virtual server references unknown pool", "pool", path)
		}
	}

	members, err := CollectPools(ctx, e.src, pools, used)
	if err != nil {
		return nil, err
	}
	if e.opts.Sort {
		members.SortMembers()
	}
	for _, poolPath := range members.Pools() {
		set, _ := members.Get(poolPath)
		result.Stats.Members += set.Len()
		logger.DebugContext(ctx, "collected pool members", "pool", poolPath, "members", set.Len())
	}

	// 3. Nodes
	nodeIndex, err := DedupeNodes(members, reg)
	if err != nil {
		return nil, err
	}
	result.Nodes = nodeIndex.Records
	result.PoolNodes = nodeIndex.PoolNodes

	// 4. Attachments
	result.Attachments, err = GenerateAttachments(pools, used, nodeIndex.PoolNodes, reg)
	if err != nil {
		return nil, err
	}

	// 5. Reachability
	allNodes, err := e.src.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching nodes: %w", err)
	}
	if e.opts.Sort {
		allNodes = sorted(allNodes, model.SortNodes)
	}
	result.Orphans = Report(pools, used, allNodes, nodeIndex.Emitted)

	result.Collisions = reg.Collisions()
	for _, c := range result.Collisions {
		logger.WarnContext(ctx, "identifier collision resolved by suffix",
			"type", string(c.Type),
			"identifier", c.Identifier,
			"owner", c.Owner,
			"path", c.Path,
			"assigned", c.Resolved,
		)
	}

	result.Stats.VirtualServersTotal = len(vips)
	result.Stats.VirtualServersSelected = len(selected)
	result.Stats.PoolsTotal = len(pools)
	result.Stats.PoolsUsed = members.Len()
	result.Stats.Nodes = len(result.Nodes)
	result.Stats.Attachments = len(result.Attachments)
	result.Stats.OrphanPools = len(result.Orphans.Pools)
	result.Stats.OrphanNodes = len(result.Orphans.Nodes)
	result.Stats.Duration = time.Since(start)

	logger.InfoContext(ctx, "extraction complete",
		"virtualServers", result.Stats.VirtualServersSelected,
		"pools", result.Stats.PoolsUsed,
		"nodes", result.Stats.Nodes,
		"attachments", result.Stats.Attachments,
		"orphanPools", result.Stats.OrphanPools,
		"orphanNodes", result.Stats.OrphanNodes,
		"durationMs", result.Stats.Duration.Milliseconds(),
	)

	return result, nil
}

// sorted sorts a copy so the source's own slices are left untouched
func sorted[T any](items []T, sortFn func([]T)) []T {
	out := make([]T, len(items))
	copy(out, items)
	sortFn(out)
	return out
}
