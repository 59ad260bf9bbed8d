package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ritzau/ltm-terrify/pkg/bigip"
	"github.com/ritzau/ltm-terrify/pkg/config"
	"github.com/ritzau/ltm-terrify/pkg/extract"
	"github.com/ritzau/ltm-terrify/pkg/filter"
	"github.com/ritzau/ltm-terrify/pkg/graph"
	"github.com/ritzau/ltm-terrify/pkg/ident"
	"github.com/ritzau/ltm-terrify/pkg/logging"
	"github.com/ritzau/ltm-terrify/pkg/render"
	"github.com/ritzau/ltm-terrify/pkg/snapshot"
	"github.com/ritzau/ltm-terrify/pkg/source"
)

// openSource returns the snapshot file source or a live BIG-IP client
func openSource(cfg *config.Config) (source.Source, error) {
	if cfg.Snapshot != "" {
		src, err := snapshot.NewFileSource(cfg.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot: %w", err)
		}
		return src, nil
	}

	client, err := bigip.NewClient(bigip.Options{
		Host:      cfg.Host,
		User:      cfg.User,
		Password:  cfg.Password,
		Partition: cfg.Partition,
		Insecure:  cfg.Insecure,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// runOnce performs one complete extraction. Nothing is written to stdout or
// the output file unless every stage succeeded.
func runOnce(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	src, err := openSource(cfg)
	if err != nil {
		return err
	}

	// Both were checked by Validate
	f, _ := filter.Parse(cfg.Filter)
	policy, _ := ident.ParseCollisionPolicy(cfg.Collisions)

	logging.InfoContext(ctx, "starting extraction", "source", src.Name(), "filter", cfg.Filter)

	result, err := extract.New(src, extract.Options{
		Filter:     f,
		Sort:       cfg.Sort,
		Collisions: policy,
	}).Run(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := render.Terraform(&buf, result, cfg.RenderOptions()); err != nil {
		return fmt.Errorf("rendering terraform: %w", err)
	}

	if cfg.Graph != "" {
		dot, err := graph.Build(result).DOT()
		if err != nil {
			return fmt.Errorf("rendering graph: %w", err)
		}
		if err := os.WriteFile(cfg.Graph, dot, 0o644); err != nil {
			return fmt.Errorf("writing graph: %w", err)
		}
		logging.DebugContext(ctx, "graph written", "path", cfg.Graph)
	}

	if err := writeOutput(cfg.Out, buf.Bytes(), stdout); err != nil {
		return err
	}

	if cfg.Summary {
		render.PrintSummary(stderr, result)
	}
	return nil
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logging.Info("terraform written", "path", path, "bytes", len(data))
	return nil
}
