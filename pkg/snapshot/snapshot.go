package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ritzau/ltm-terrify/pkg/model"
	"github.com/ritzau/ltm-terrify/pkg/source"
)

// SchemaVersion is written into every captured snapshot
const SchemaVersion = "1"

// Metadata describes where and when a snapshot was captured
type Metadata struct {
	SchemaVersion string    `json:"schemaVersion" yaml:"schemaVersion"`
	Source        string    `json:"source,omitempty" yaml:"source,omitempty"`
	CapturedAt    time.Time `json:"capturedAt,omitempty" yaml:"capturedAt,omitempty"`
}

// Snapshot is a point-in-time copy of an appliance's LTM configuration
type Snapshot struct {
	Metadata       Metadata                  `json:"metadata" yaml:"metadata"`
	VirtualServers []model.VirtualServer     `json:"virtualServers" yaml:"virtualServers"`
	Pools          []model.Pool              `json:"pools" yaml:"pools"`
	Members        map[string][]model.Member `json:"members" yaml:"members"` // pool fullPath -> members
	Nodes          []model.Node              `json:"nodes" yaml:"nodes"`
}

// Load reads a snapshot file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if isJSON(path) {
		err = json.Unmarshal(data, &snap)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&snap)
	}
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if snap.Members == nil {
		snap.Members = make(map[string][]model.Member)
	}
	return &snap, nil
}

// Save writes a snapshot file, choosing the format from the extension like Load
func Save(path string, snap *Snapshot) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(snap, "", "  ")
	} else {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(snap)
		if err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Capture copies the complete configuration from src, including the members
// of every pool
func Capture(ctx context.Context, src source.Source, now time.Time) (*Snapshot, error) {
	vips, err := src.VirtualServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing virtual servers: %w", err)
	}

	pools, err := src.Pools(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing pools: %w", err)
	}

	members := make(map[string][]model.Member, len(pools))
	for _, pool := range pools {
		m, err := src.PoolMembers(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("capturing members of %s: %w", pool.FullPath, err)
		}
		members[pool.FullPath] = m
	}

	nodes, err := src.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing nodes: %w", err)
	}

	return &Snapshot{
		Metadata: Metadata{
			SchemaVersion: SchemaVersion,
			Source:        src.Name(),
			CapturedAt:    now.UTC(),
		},
		VirtualServers: vips,
		Pools:          pools,
		Members:        members,
		Nodes:          nodes,
	}, nil
}
