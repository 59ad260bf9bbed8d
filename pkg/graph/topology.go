package graph

import (
	"sort"

	"github.com/ritzau/ltm-terrify/pkg/extract"
	"github.com/ritzau/ltm-terrify/pkg/model"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Vertex is an appliance object in the topology graph
type Vertex struct {
	id         int64
	Type       model.ResourceType
	Path       string // fullPath; node paths have the port stripped
	Identifier string // empty for objects the run did not declare
}

// ID implements graph.Node
func (v *Vertex) ID() int64 {
	return v.id
}

// DOTID implements dot.Node
func (v *Vertex) DOTID() string {
	return shortType(v.Type) + ":" + v.Path
}

// Attributes implements encoding.Attributer
func (v *Vertex) Attributes() []encoding.Attribute {
	label := v.Path
	if v.Identifier != "" {
		label = v.Identifier
	}
	attrs := []encoding.Attribute{
		{Key: "label", Value: label},
		{Key: "shape", Value: shapes[v.Type]},
	}
	if v.Identifier == "" {
		attrs = append(attrs, encoding.Attribute{Key: "style", Value: "dashed"})
	}
	return attrs
}

var shapes = map[model.ResourceType]string{
	model.ResourceVirtualServer: "doubleoctagon",
	model.ResourcePool:          "box",
	model.ResourceNode:          "ellipse",
}

func shortType(rt model.ResourceType) string {
	switch rt {
	case model.ResourceVirtualServer:
		return "vs"
	case model.ResourcePool:
		return "pool"
	case model.ResourceNode:
		return "node"
	}
	return string(rt)
}

type vertexKey struct {
	rt   model.ResourceType
	path string
}

// TopologyGraph is the directed VIP -> Pool -> Node graph of one run
type TopologyGraph struct {
	graph    *simple.DirectedGraph
	ids      map[vertexKey]int64
	vertices map[int64]*Vertex
	nextID   int64
}

// NewTopologyGraph creates an empty graph
func NewTopologyGraph() *TopologyGraph {
	return &TopologyGraph{
		graph:    simple.NewDirectedGraph(),
		ids:      make(map[vertexKey]int64),
		vertices: make(map[int64]*Vertex),
	}
}

// AddVertex adds an object, or returns the existing one. A later non-empty
// identifier replaces an empty one.
func (tg *TopologyGraph) AddVertex(rt model.ResourceType, path, identifier string) *Vertex {
	key := vertexKey{rt, path}
	if id, exists := tg.ids[key]; exists {
		v := tg.vertices[id]
		if v.Identifier == "" {
			v.Identifier = identifier
		}
		return v
	}

	v := &Vertex{id: tg.nextID, Type: rt, Path: path, Identifier: identifier}
	tg.ids[key] = v.id
	tg.vertices[v.id] = v
	tg.graph.AddNode(v)
	tg.nextID++

	return v
}

// AddEdge links from to to unless the edge already exists
func (tg *TopologyGraph) AddEdge(from, to *Vertex) {
	if !tg.graph.HasEdgeFromTo(from.ID(), to.ID()) {
		tg.graph.SetEdge(tg.graph.NewEdge(from, to))
	}
}

// Vertex looks up an object by type and path
func (tg *TopologyGraph) Vertex(rt model.ResourceType, path string) (*Vertex, bool) {
	id, exists := tg.ids[vertexKey{rt, path}]
	if !exists {
		return nil, false
	}
	return tg.vertices[id], true
}

// Vertices returns every vertex of type rt in insertion order
func (tg *TopologyGraph) Vertices(rt model.ResourceType) []*Vertex {
	var out []*Vertex
	for id := int64(0); id < tg.nextID; id++ {
		if v := tg.vertices[id]; v.Type == rt {
			out = append(out, v)
		}
	}
	return out
}

// Successors returns the paths directly reachable from a vertex
func (tg *TopologyGraph) Successors(rt model.ResourceType, path string) []string {
	v, ok := tg.Vertex(rt, path)
	if !ok {
		return nil
	}

	var paths []string
	iter := tg.graph.From(v.ID())
	for iter.Next() {
		paths = append(paths, tg.vertices[iter.Node().ID()].Path)
	}
	sort.Strings(paths)
	return paths
}

// Edges returns all edges as [from, to] DOT IDs
func (tg *TopologyGraph) Edges() [][2]string {
	var edges [][2]string

	iter := tg.graph.Edges()
	for iter.Next() {
		e := iter.Edge()
		from := tg.vertices[e.From().ID()]
		to := tg.vertices[e.To().ID()]
		edges = append(edges, [2]string{from.DOTID(), to.DOTID()})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// Reachable walks breadth first from every virtual server and returns the
// vertices it visits, virtual servers included
func (tg *TopologyGraph) Reachable() []*Vertex {
	seen := make(map[int64]bool)
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			seen[n.ID()] = true
		},
	}

	for _, vs := range tg.Vertices(model.ResourceVirtualServer) {
		if bf.Visited(vs) {
			continue
		}
		bf.Walk(tg.graph, vs, nil)
	}

	var out []*Vertex
	for id := int64(0); id < tg.nextID; id++ {
		if seen[id] {
			out = append(out, tg.vertices[id])
		}
	}
	return out
}

// Unreachable returns the paths of type rt that no virtual server reaches
func (tg *TopologyGraph) Unreachable(rt model.ResourceType) []string {
	reached := make(map[int64]bool)
	for _, v := range tg.Reachable() {
		reached[v.ID()] = true
	}

	var paths []string
	for _, v := range tg.Vertices(rt) {
		if !reached[v.ID()] {
			paths = append(paths, v.Path)
		}
	}
	return paths
}

type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute {
	return a
}

type dotGraph struct {
	*simple.DirectedGraph
}

func (dotGraph) DOTAttributers() (g, n, e encoding.Attributer) {
	return attributes{{Key: "rankdir", Value: "LR"}}, attributes{}, attributes{}
}

// DOT renders the graph in Graphviz format
func (tg *TopologyGraph) DOT() ([]byte, error) {
	return dot.Marshal(dotGraph{tg.graph}, "ltm", "", "  ")
}

// Build creates the graph of a run: selected virtual servers, every pool in
// the inventory, declared and orphaned nodes. Only pools the run expanded
// have edges to nodes, since orphan pools are never fetched.
func Build(result *extract.Result) *TopologyGraph {
	tg := NewTopologyGraph()

	for _, vip := range result.VirtualServers {
		tg.AddVertex(model.ResourceVirtualServer, vip.FullPath, vip.Identifier)
	}
	for _, pool := range result.Pools {
		tg.AddVertex(model.ResourcePool, pool.FullPath, pool.Identifier)
	}
	for _, node := range result.Nodes {
		tg.AddVertex(model.ResourceNode, node.FullPath, node.Identifier)
	}
	for _, node := range result.Orphans.Nodes {
		tg.AddVertex(model.ResourceNode, node.FullPath, "")
	}

	for _, vip := range result.VirtualServers {
		poolPath, ok := vip.Pool.Get()
		if !ok {
			continue
		}
		// Dangling references are left out of the graph
		pool, ok := tg.Vertex(model.ResourcePool, poolPath)
		if !ok {
			continue
		}
		vs, _ := tg.Vertex(model.ResourceVirtualServer, vip.FullPath)
		tg.AddEdge(vs, pool)
	}

	for _, a := range result.Attachments {
		pool, _ := tg.Vertex(model.ResourcePool, a.Pool.FullPath)
		node, _ := tg.Vertex(model.ResourceNode, a.NodePath)
		tg.AddEdge(pool, node)
	}

	return tg
}
