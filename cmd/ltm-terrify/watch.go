package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ritzau/ltm-terrify/pkg/config"
	"github.com/ritzau/ltm-terrify/pkg/logging"
	"github.com/ritzau/ltm-terrify/pkg/watcher"
	"github.com/spf13/cobra"
)

const (
	quietPeriod = 300 * time.Millisecond
	maxWait     = 2 * time.Second
)

// watch runs once, then again after every change to the snapshot or config
// file until interrupted or a reloaded config turns watch off. Every rerun is a complete extraction; failures are
// logged and the previous output is left in place.
func watch(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	fw, err := watcher.NewFileWatcher()
	if err != nil {
		return err
	}
	defer fw.Stop()

	if err := fw.Add(cfg.Snapshot, watcher.ChangeTypeSnapshot); err != nil {
		return err
	}
	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		if err := fw.Add(cfg.ConfigFile, watcher.ChangeTypeConfig); err != nil {
			return err
		}
	}
	fw.Start(ctx)

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	rerun := func() {
		if err := runOnce(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			reportError(err)
		}
	}

	rerun()
	logging.Info("watching for changes", "snapshot", cfg.Snapshot, "config", cfg.ConfigFile)

	for event := range debouncer.Output() {
		batch := []watcher.ChangeEvent{event}
	drain:
		for {
			select {
			case more, ok := <-debouncer.Output():
				if !ok {
					break drain
				}
				batch = append(batch, more)
			default:
				break drain
			}
		}

		changes := watcher.AnalyzeChanges(batch...)
		logging.Info("change detected", "files", changes.ChangedFiles)

		if changes.ReloadConfig {
			next, err := loadConfig(cmd)
			switch {
			case err != nil:
				logging.Error("keeping previous configuration", "error", err)
			case !next.Watch:
				logging.Info("watch disabled by configuration, stopping")
				return nil
			default:
				if next.Snapshot != cfg.Snapshot {
					switchSnapshot(fw, cfg.Snapshot, next.Snapshot)
				}
				cfg = next
			}
		}

		rerun()
	}

	return nil
}

// switchSnapshot moves the snapshot watch from one file to another
func switchSnapshot(fw *watcher.FileWatcher, from, to string) {
	if sameFile(from, to) {
		return
	}
	if err := fw.Add(to, watcher.ChangeTypeSnapshot); err != nil {
		logging.Warn("cannot watch new snapshot", "path", to, "error", err)
		return
	}
	if err := fw.Remove(from); err != nil {
		logging.Warn("cannot unwatch old snapshot", "path", from, "error", err)
	}
	logging.Info("snapshot changed", "from", from, "to", to)
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
