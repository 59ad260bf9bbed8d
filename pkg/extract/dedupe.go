package extract

import (
	"github.com/ritzau/ltm-terrify/pkg/ident"
	"github.com/ritzau/ltm-terrify/pkg/model"
)

// NodeRecord is a node declared by the run, derived from its first member sighting
type NodeRecord struct {
	Identifier string
	Name       string // member name without port
	FullPath   string // member fullPath without port; the node identity
	Address    model.Optional[string]
	Pool       string // pool in which the node was first seen
}

// NodeIndex is the output of DedupeNodes
type NodeIndex struct {
	// PoolNodes lists, per pool, the distinct node paths it uses in member order
	PoolNodes map[string][]string
	// Emitted holds every node path that got a NodeRecord
	Emitted PathSet
	// Records are the deduplicated nodes in first-seen order
	Records []NodeRecord
}

// DedupeNodes walks the collected members and declares each node once.
// Node identity is the member fullPath with the port stripped, so equally
// named nodes in different partitions stay distinct.
func DedupeNodes(pm *PoolMembers, reg *ident.Registry) (*NodeIndex, error) {
	idx := &NodeIndex{
		PoolNodes: make(map[string][]string, pm.Len()),
		Emitted:   NewPathSet(),
	}

	for _, poolPath := range pm.Pools() {
		set, _ := pm.Get(poolPath)
		inPool := NewPathSet()
		idx.PoolNodes[poolPath] = []string{}

		for _, member := range set.Members() {
			justNode := member.NodeName()
			nodePath := member.NodePath()

			id := ident.Sanitize(justNode)
			if ident.IsBlank(id) || nodePath == "" {
				return nil, &BlankIdentifierError{
					Type:   model.ResourceNode,
					Name:   justNode,
					Path:   nodePath,
					Pool:   poolPath,
					Member: member,
				}
			}

			if !idx.Emitted.Has(nodePath) {
				claimed, err := reg.Claim(model.ResourceNode, id, nodePath)
				if err != nil {
					return nil, err
				}
				idx.Emitted.Add(nodePath)
				idx.Records = append(idx.Records, NodeRecord{
					Identifier: claimed,
					Name:       justNode,
					FullPath:   nodePath,
					Address:    member.Address,
					Pool:       poolPath,
				})
			}

			// Several ports on one node still make a single attachment
			if !inPool.Has(nodePath) {
				inPool.Add(nodePath)
				idx.PoolNodes[poolPath] = append(idx.PoolNodes[poolPath], nodePath)
			}
		}
	}

	return idx, nil
}
