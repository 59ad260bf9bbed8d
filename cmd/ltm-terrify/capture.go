package main

import (
	"errors"
	"time"

	"github.com/ritzau/ltm-terrify/pkg/logging"
	"github.com/ritzau/ltm-terrify/pkg/snapshot"
	"github.com/spf13/cobra"
)

func newCaptureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Save the complete LTM inventory of a BIG-IP to a snapshot file",
		Long: `Fetch every virtual server, pool, pool member and node from a BIG-IP and
write them to a YAML (or .json) snapshot. Snapshots can be fed back with
--snapshot to generate Terraform offline, repeatedly and reproducibly.

Example:
  ltm-terrify capture --host lb1.example.com --user admin -o lb1.yaml`,
		Args: cobra.NoArgs,
		RunE: runCapture,
	}
}

func runCapture(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Snapshot != "" {
		return errors.New("capture reads from --host, not --snapshot")
	}
	if cfg.Out == "" || cfg.Out == "-" {
		return errors.New("capture requires --out <file>")
	}

	ctx := logging.WithRunID(cmd.Context(), logging.NewRunID())

	src, err := openSource(cfg)
	if err != nil {
		return err
	}

	snap, err := snapshot.Capture(ctx, src, time.Now())
	if err != nil {
		return err
	}
	if err := snapshot.Save(cfg.Out, snap); err != nil {
		return err
	}

	logging.InfoContext(ctx, "snapshot written",
		"path", cfg.Out,
		"virtualServers", len(snap.VirtualServers),
		"pools", len(snap.Pools),
		"nodes", len(snap.Nodes),
	)
	return nil
}
