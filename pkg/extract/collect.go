package extract

import (
	"context"
	"fmt"
	"sort"

	"github.com/ritzau/ltm-terrify/pkg/model"
	"github.com/ritzau/ltm-terrify/pkg/source"
)

// MemberSet holds one pool's members keyed by selfLink, in insertion order.
// The same host:port may appear in several pools; selfLink tells them apart
// because it encodes the owning pool.
type MemberSet struct {
	links  []string
	byLink map[string]model.Member
}

func newMemberSet() *MemberSet {
	return &MemberSet{byLink: make(map[string]model.Member)}
}

// memberKey falls back to pool + member path for members without a selfLink
// (hand-written snapshots)
func memberKey(poolPath string, m model.Member) string {
	if m.SelfLink != "" {
		return m.SelfLink
	}
	return poolPath + "|" + m.FullPath
}

// Add inserts a member unless its key is already present
func (s *MemberSet) Add(key string, m model.Member) bool {
	if _, exists := s.byLink[key]; exists {
		return false
	}
	s.links = append(s.links, key)
	s.byLink[key] = m
	return true
}

// Members returns the members in order
func (s *MemberSet) Members() []model.Member {
	members := make([]model.Member, 0, len(s.links))
	for _, link := range s.links {
		members = append(members, s.byLink[link])
	}
	return members
}

// Len returns the number of members
func (s *MemberSet) Len() int {
	return len(s.links)
}

func (s *MemberSet) sortByKey() {
	sort.Strings(s.links)
}

// PoolMembers maps pool fullPath to its members, remembering the order in
// which pools were collected
type PoolMembers struct {
	order []string
	pools map[string]*MemberSet
}

// NewPoolMembers creates an empty mapping
func NewPoolMembers() *PoolMembers {
	return &PoolMembers{pools: make(map[string]*MemberSet)}
}

// Add records members for a pool, creating the pool entry if needed
func (pm *PoolMembers) Add(poolPath string, members ...model.Member) {
	set, ok := pm.pools[poolPath]
	if !ok {
		set = newMemberSet()
		pm.pools[poolPath] = set
		pm.order = append(pm.order, poolPath)
	}
	for _, m := range members {
		set.Add(memberKey(poolPath, m), m)
	}
}

// Pools returns the collected pool paths in collection order
func (pm *PoolMembers) Pools() []string {
	return pm.order
}

// Get returns the members of a pool
func (pm *PoolMembers) Get(poolPath string) (*MemberSet, bool) {
	set, ok := pm.pools[poolPath]
	return set, ok
}

// Len returns the number of collected pools
func (pm *PoolMembers) Len() int {
	return len(pm.order)
}

// SortMembers orders every pool's members by key
func (pm *PoolMembers) SortMembers() {
	for _, set := range pm.pools {
		set.sortByKey()
	}
}

// CollectPools fetches the members of every pool in used, in the order the
// pools are given. Pools outside used are never fetched.
func CollectPools(ctx context.Context, src source.Source, pools []model.Pool, used PathSet) (*PoolMembers, error) {
	pm := NewPoolMembers()

	for _, pool := range pools {
		if !used.Has(pool.FullPath) {
			continue
		}

		members, err := src.PoolMembers(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("fetching members of pool %s: %w", pool.FullPath, err)
		}
		pm.Add(pool.FullPath, members...)
	}

	return pm, nil
}
