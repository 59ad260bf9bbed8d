package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/ritzau/ltm-terrify/pkg/filter"
	"github.com/ritzau/ltm-terrify/pkg/ident"
	"github.com/ritzau/ltm-terrify/pkg/render"
	"github.com/spf13/pflag"
)

const (
	DefaultConfigFile = "ltm-terrify.toml"
	DefaultLoginFile  = "login.json"
	DefaultPartition  = "Common"
	EnvPrefix         = "LTM_TERRIFY_"
)

// Config holds all configuration for the application
type Config struct {
	// Live source
	Host      string        `koanf:"host"`
	User      string        `koanf:"user"`
	Password  string        `koanf:"password"`
	LoginFile string        `koanf:"login-file"`
	Partition string        `koanf:"partition"`
	Insecure  bool          `koanf:"insecure"`
	Timeout   time.Duration `koanf:"timeout"`

	// Offline source
	Snapshot string `koanf:"snapshot"`

	// Extraction
	Filter     string `koanf:"filter"`
	Sort       bool   `koanf:"sort"`
	Collisions string `koanf:"collisions"`

	// Output
	NoResources  bool   `koanf:"no-resources"`
	Orphans      bool   `koanf:"orphans"`
	ImportStyle  string `koanf:"import-style"`
	RewriteHints bool   `koanf:"rewrite-hints"`
	Graph        string `koanf:"graph"`
	Out          string `koanf:"out"`
	Summary      bool   `koanf:"summary"`

	Watch      bool   `koanf:"watch"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	LogFormat  string `koanf:"log-format"`
	ConfigFile string `koanf:"config"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"host":          "",
		"user":          "",
		"password":      "",
		"login-file":    DefaultLoginFile,
		"partition":     DefaultPartition,
		"insecure":      false,
		"timeout":       "30s",
		"snapshot":      "",
		"filter":        "",
		"sort":          false,
		"collisions":    string(ident.PolicyError),
		"no-resources":  false,
		"orphans":       false,
		"import-style":  string(render.ImportComment),
		"rewrite-hints": false,
		"graph":         "",
		"out":           "",
		"summary":       true,
		"watch":         false,
		"verbosity":     "",
		"verbose":       0,
		"log-format":    "text",
		"config":        DefaultConfigFile,
	}
}

// RegisterFlags defines every setting as a flag. Flag names double as koanf
// keys, so posflag can layer them over the other sources.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("host", "", "BIG-IP management host (https:// is assumed)")
	f.String("user", "", "iControl REST user")
	f.String("password", "", "iControl REST password")
	f.String("login-file", DefaultLoginFile, "JSON file with bigip, user and password keys")
	f.String("partition", DefaultPartition, "Only read objects from this partition (empty for all)")
	f.Bool("insecure", false, "Skip TLS certificate verification")
	f.Duration("timeout", 30*time.Second, "Timeout per REST request")

	f.String("snapshot", "", "Read topology from a snapshot file instead of a live BIG-IP")

	f.String("filter", "", "Select virtual servers by substring, or /regexp/")
	f.Bool("sort", false, "Sort all collections by fullPath for reproducible output")
	f.String("collisions", string(ident.PolicyError), "Identifier collision policy: error or suffix")

	f.Bool("no-resources", false, "Only print import directives, no resource blocks")
	f.Bool("orphans", false, "Print unreferenced pools and nodes as comments")
	f.String("import-style", string(render.ImportComment), "Import directive style: comment or block")
	f.Bool("rewrite-hints", false, "Print #rewrite# hints mapping paths to resource references")
	f.String("graph", "", "Write the topology as Graphviz DOT to this file")
	f.StringP("out", "o", "", "Write Terraform to this file instead of stdout")
	f.Bool("summary", true, "Print a run summary on stderr")

	f.Bool("watch", false, "Rerun whenever the snapshot or config file changes")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.String("log-format", "text", "Log format: text or json")
	f.String("config", DefaultConfigFile, "TOML config file")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults. Credentials missing after
// that are taken from the login file.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file. The default file is optional, an explicit one is not.
	configFile, explicit := configPath(f)
	if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	// 3. Environment Variables
	// Prefix: LTM_TERRIFY_ (e.g., LTM_TERRIFY_IMPORT_STYLE=block)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = configFile

	if err := cfg.loadLogin(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps LTM_TERRIFY_IMPORT_STYLE to import-style
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

func configPath(f *pflag.FlagSet) (string, bool) {
	if f != nil && f.Changed("config") {
		path, _ := f.GetString("config")
		return path, true
	}
	if path, ok := os.LookupEnv(EnvPrefix + "CONFIG"); ok && path != "" {
		return path, true
	}
	return DefaultConfigFile, false
}

// loadLogin fills host, user and password from the login file where they
// are still empty. A missing default login file is not an error.
func (c *Config) loadLogin() error {
	if c.Snapshot != "" || c.LoginFile == "" {
		return nil
	}
	if c.Host != "" && c.User != "" && c.Password != "" {
		return nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(c.LoginFile), json.Parser()); err != nil {
		if c.LoginFile == DefaultLoginFile && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load login file %s: %w", c.LoginFile, err)
	}

	if c.Host == "" {
		c.Host = k.String("bigip")
	}
	if c.User == "" {
		c.User = k.String("user")
	}
	if c.Password == "" {
		c.Password = k.String("password")
	}
	return nil
}

// Validate checks option values and that exactly one source is configured
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Host == "" && c.Snapshot == "":
		errs = append(errs, errors.New("no source: set --host (or a login file) or --snapshot"))
	case c.Host != "" && c.Snapshot != "":
		errs = append(errs, errors.New("--host and --snapshot are mutually exclusive"))
	case c.Host != "" && c.User == "":
		errs = append(errs, errors.New("--user is required with --host"))
	}

	if c.Watch && c.Snapshot == "" {
		errs = append(errs, errors.New("--watch requires --snapshot"))
	}
	if _, err := filter.Parse(c.Filter); err != nil {
		errs = append(errs, err)
	}
	if _, err := ident.ParseCollisionPolicy(c.Collisions); err != nil {
		errs = append(errs, err)
	}
	if _, err := render.ParseImportStyle(c.ImportStyle); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	return errors.Join(errs...)
}

// RenderOptions derives the emitter configuration
func (c *Config) RenderOptions() render.Options {
	style, _ := render.ParseImportStyle(c.ImportStyle)
	return render.Options{
		EmitResources: !c.NoResources,
		ShowOrphans:   c.Orphans,
		ImportStyle:   style,
		RewriteHints:  c.RewriteHints,
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
