// Package cli implements the semiframes command-line interface.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/semiframes/pkg/buildinfo"
	"github.com/matzehuels/semiframes/pkg/config"
	"github.com/matzehuels/semiframes/pkg/family"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "semiframes"
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
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The config file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Semiframes enumerates finite semitopologies up to isomorphism",
		Long: `Semiframes enumerates the union-closed families of subsets of {1..n} that
contain the full set, one representative per isomorphism class, and can
filter them with first-order formulas over points and opens.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	// Register all subcommands
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.findCommand())
	root.AddCommand(c.canonCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if c.configPath != "" {
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	return nil
}

// =============================================================================
// Family Arguments
// =============================================================================

// parseFamilyArg reads a family given on the command line. With n = 0 the
// ground set is inferred from the largest point mentioned.
func parseFamilyArg(text string, n int) (family.Family, int, error) {
	if n != 0 {
		f, err := family.Parse(text, n)
		return f, n, err
	}
	f, err := family.Parse(text, family.MaxSize)
	if err != nil {
		return nil, 0, err
	}
	return f, family.InferSize(f), nil
}

// formatFamily renders f one set per line when it is long, inline otherwise.
func formatFamily(f family.Family, n int) string {
	s := f.Render(n)
	if len(s) <= 72 {
		return s
	}
	return strings.ReplaceAll(s, "}, {", "},\n  {")
}

func plural(n int64, word string) string {
	switch {
	case n == 1:
		return fmt.Sprintf("%d %s", n, word)
	case strings.HasSuffix(word, "y"):
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%d %ss", n, word)
}
