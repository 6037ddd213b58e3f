package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/resolve"
)

// config is the content of a .stacktrim.toml file. Flags given on the
// command line win over it.
type config struct {
	Jobs           int  `toml:"jobs"`
	GlobalStyle    bool `toml:"global_style"`
	LegacyBundling bool `toml:"legacy_bundling"`
	DryRun         bool `toml:"dry_run"`
}

func defaultConfig() config {
	return config{Jobs: 1}
}

// loadConfig reads the config at path. An empty path means the project's
// .stacktrim.toml, which may be absent; an explicit path must exist.
func loadConfig(fs afero.Fs, prefix, path string) (config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(prefix, configFile)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Jobs < 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "jobs must not be negative, got %d", cfg.Jobs)
	}
	return cfg, nil
}

// overrideFromFlags applies the flags the user actually set.
func (cfg *config) overrideFromFlags(cmd *cobra.Command, opts *dedupeOpts, dryRun bool) {
	flags := cmd.Flags()
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if flags.Changed("global-style") {
		cfg.GlobalStyle = opts.globalStyle
	}
	if flags.Changed("legacy-bundling") {
		cfg.LegacyBundling = opts.legacyBundling
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
}

func (cfg config) resolveOptions() resolve.Options {
	return resolve.Options{GlobalStyle: cfg.GlobalStyle, LegacyBundling: cfg.LegacyBundling}
}
