package extract

import (
	"github.com/ritzau/ltm-terrify/pkg/filter"
	"github.com/ritzau/ltm-terrify/pkg/model"
)

// SelectVIPs keeps the virtual servers matching f and returns the set of pools
// they reference. A virtual server without a pool is still selected.
func SelectVIPs(vips []model.VirtualServer, f filter.Filter) ([]model.VirtualServer, PathSet) {
	selected := make([]model.VirtualServer, 0, len(vips))
	used := NewPathSet()

	for _, vip := range vips {
		fields := []string{vip.FullPath, vip.Name}
		if dest, ok := vip.Destination.Get(); ok {
			fields = append(fields, dest)
		}
		if !f.Match(fields...) {
			continue
		}

		selected = append(selected, vip)
		if pool, ok := vip.Pool.Get(); ok {
			used.Add(pool)
		}
	}

	return selected, used
}
