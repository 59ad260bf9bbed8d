package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ritzau/ltm-terrify/pkg/bigip"
	"github.com/ritzau/ltm-terrify/pkg/config"
	"github.com/ritzau/ltm-terrify/pkg/extract"
	"github.com/ritzau/ltm-terrify/pkg/ident"
	"github.com/ritzau/ltm-terrify/pkg/logging"
	"github.com/ritzau/ltm-terrify/pkg/model"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		reportError(err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ltm-terrify",
		Short: "Generate Terraform for BIG-IP LTM virtual servers, pools and nodes",
		Long: `Reads virtual servers, pools, pool members and nodes from a BIG-IP over
iControl REST (or from a snapshot file) and prints bigip provider resources
with the terraform import directives that bind them to the existing objects.

Only name attributes are generated: import every resource, then run
terraform plan before applying anything.

Examples:
  ltm-terrify --host lb1.example.com --user admin --filter web
  ltm-terrify --snapshot lb1.yaml --orphans --import-style block -o ltm.tf
  ltm-terrify capture --host lb1.example.com --user admin -o lb1.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(newCaptureCmd())

	return rootCmd
}

// loadConfig reads and validates configuration, then applies the log settings
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if cfg.LogFormat == "json" {
		logging.SetJSONOutput(level)
		return
	}
	logging.SetLevel(level)
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Watch {
		return watch(cmd, cfg)
	}
	return runOnce(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// reportError logs a fatal error with whatever detail helps the operator act on it
func reportError(err error) {
	var (
		blank     *extract.BlankIdentifierError
		collision *ident.CollisionError
		apiErr    *bigip.APIError
	)

	switch {
	case errors.As(err, &blank) && blank.Type != model.ResourceNode:
		logging.Error("object name yields no usable identifier",
			"type", string(blank.Type),
			"name", blank.Name,
			"fullPath", blank.Path)
	case errors.As(err, &blank):
		logging.Error("member yields no usable node identifier",
			"pool", blank.Pool,
			"name", blank.Member.Name,
			"fullPath", blank.Member.FullPath,
			"selfLink", blank.Member.SelfLink,
			"address", blank.Member.Address.OrElse(""))
	case errors.As(err, &collision):
		logging.Error("identifier collision",
			"error", err,
			"hint", "rerun with --collisions suffix to number duplicates")
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		logging.Error("BIG-IP rejected the credentials",
			"error", err,
			"hint", "check --user/--password or the login file")
	default:
		logging.Error("ltm-terrify failed", "error", err)
	}
}
