package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacktrim/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "stacktrim"

	// configFile is looked up in the project directory unless --config is given.
	configFile = ".stacktrim.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// FS is where projects, config files and outputs are read and written.
	FS afero.Fs

	// Out receives machine-readable output (--json).
	Out io.Writer

	prefix     string
	configPath string
	dryRun     bool
	verbose    bool
}

// New creates a new CLI instance with a default logger on the OS filesystem.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		FS:     afero.NewOsFs(),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stacktrim deduplicates installed node_modules trees",
		Long:         `Stacktrim reads an installed node_modules tree, hoists every package as close to the project root as its requirements allow, and removes the copies that become redundant.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVarP(&c.prefix, "prefix", "C", ".", "project directory")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default <prefix>/"+configFile+")")
	root.PersistentFlags().BoolVar(&c.dryRun, "dry-run", false, "compute the plan without writing it")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if c.verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		return nil
	}

	root.AddCommand(c.dedupeCommand())
	root.AddCommand(c.findDupesCommand())
	root.AddCommand(c.completionCommand())

	return root
}
