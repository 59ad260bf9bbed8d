package extract

import "github.com/ritzau/ltm-terrify/pkg/model"

// Orphans are inventory objects no selected virtual server reaches
type Orphans struct {
	Pools []model.Pool
	Nodes []model.Node
}

// Report compares the full inventories against what the run touched.
// Nodes are compared by fullPath, never by short name.
func Report(allPools []model.Pool, used PathSet, allNodes []model.Node, emitted PathSet) Orphans {
	var orphans Orphans

	for _, pool := range allPools {
		if !used.Has(pool.FullPath) {
			orphans.Pools = append(orphans.Pools, pool)
		}
	}

	for _, node := range allNodes {
		if !emitted.Has(node.FullPath) {
			orphans.Nodes = append(orphans.Nodes, node)
		}
	}

	return orphans
}
