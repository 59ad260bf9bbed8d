package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ritzau/ltm-terrify/pkg/extract"
)

// PrintSummary prints a colored run report, meant for stderr
func PrintSummary(w io.Writer, result *extract.Result) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	stats := result.Stats

	// Header
	bold.Fprintln(w, "ltm-terrify - Extraction Report")
	bold.Fprintln(w, "===============================")
	fmt.Fprintf(w, "Source: %s\n", result.Source)
	if f := result.Filter.String(); f != "" {
		fmt.Fprintf(w, "Filter: %s\n", f)
	}
	fmt.Fprintf(w, "Virtual servers: %d of %d selected\n", stats.VirtualServersSelected, stats.VirtualServersTotal)
	fmt.Fprintf(w, "Pools: %d of %d used (%d members)\n", stats.PoolsUsed, stats.PoolsTotal, stats.Members)
	fmt.Fprintf(w, "Nodes: %d declared, %d attachments\n", stats.Nodes, stats.Attachments)

	if stats.DanglingPools > 0 {
		red.Fprintf(w, "Dangling pool references: %d\n", stats.DanglingPools)
	}
	if len(result.Collisions) > 0 {
		yellow.Fprintf(w, "Identifier collisions: %d (resolved by suffix)\n", len(result.Collisions))
		for _, c := range result.Collisions {
			cyan.Fprintf(w, "  %s %s -> %s\n", c.Type, c.Path, c.Resolved)
		}
	}
	fmt.Fprintln(w)

	orphans := len(result.Orphans.Pools) + len(result.Orphans.Nodes)
	if orphans == 0 {
		green.Fprintln(w, "✓ Every pool and node is reachable from the selection")
		return
	}

	yellow.Fprintf(w, "Unreferenced: %d pool(s), %d node(s)\n", len(result.Orphans.Pools), len(result.Orphans.Nodes))
	for _, p := range result.Orphans.Pools {
		fmt.Fprintf(w, "  pool %s\n", p.FullPath)
	}
	for _, n := range result.Orphans.Nodes {
		fmt.Fprintf(w, "  node %s\n", n.FullPath)
	}
}
