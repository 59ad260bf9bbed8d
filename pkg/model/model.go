package model

import (
	"regexp"
	"sort"
)

// ResourceType is the Terraform resource type an appliance object maps to
type ResourceType string

const (
	ResourceVirtualServer  ResourceType = "bigip_ltm_virtual_server"
	ResourcePool           ResourceType = "bigip_ltm_pool"
	ResourceNode           ResourceType = "bigip_ltm_node"
	ResourcePoolAttachment ResourceType = "bigip_ltm_pool_attachment"
)

// VirtualServer represents an LTM virtual server (VIP)
type VirtualServer struct {
	Name        string           `json:"name" yaml:"name"`
	FullPath    string           `json:"fullPath" yaml:"fullPath"`                 // e.g., "/Common/web-vip"
	Pool        Optional[string] `json:"pool" yaml:"pool,omitempty"`               // fullPath of the default pool
	Destination Optional[string] `json:"destination" yaml:"destination,omitempty"` // e.g., "/Common/10.0.0.1:443"
}

// Pool represents an LTM pool
type Pool struct {
	Name     string `json:"name" yaml:"name"`
	FullPath string `json:"fullPath" yaml:"fullPath"`
}

// Member represents a (node, port) pairing inside one pool.
// SelfLink is unique across pools even when Name repeats, since it encodes the owning pool.
type Member struct {
	Name     string           `json:"name" yaml:"name"`         // e.g., "web-1:80"
	FullPath string           `json:"fullPath" yaml:"fullPath"` // e.g., "/Common/web-1:80"
	SelfLink string           `json:"selfLink" yaml:"selfLink"`
	Address  Optional[string] `json:"address" yaml:"address,omitempty"`
}

// Node represents an LTM node from the appliance's node inventory
type Node struct {
	Name     string           `json:"name" yaml:"name"`
	FullPath string           `json:"fullPath" yaml:"fullPath"`
	Address  Optional[string] `json:"address" yaml:"address,omitempty"`
}

// Matches the host part of "some-server:443"
var noPort = regexp.MustCompile(`^[^:]*`)

// StripPort removes the trailing ":port" from a member name or path
func StripPort(s string) string {
	return noPort.FindString(s)
}

// NodeName returns the member name without its port (the short node name)
func (m Member) NodeName() string {
	return StripPort(m.Name)
}

// NodePath returns the member fullPath without its port. This is the node identity.
func (m Member) NodePath() string {
	return StripPort(m.FullPath)
}

// SortVirtualServers sorts in place by fullPath
func SortVirtualServers(vips []VirtualServer) {
	sort.SliceStable(vips, func(i, j int) bool { return vips[i].FullPath < vips[j].FullPath })
}

// SortPools sorts in place by fullPath
func SortPools(pools []Pool) {
	sort.SliceStable(pools, func(i, j int) bool { return pools[i].FullPath < pools[j].FullPath })
}

// SortNodes sorts in place by fullPath
func SortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].FullPath < nodes[j].FullPath })
}
