package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// cli carries the state shared by all commands of one invocation.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	config     *Config
	logger     *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "quill",
		Short: "Render documents from {{placeholder}} templates and export them",
		Long: `Quill keeps a versioned library of text templates with {{name}} placeholders,
renders them into documents with a JSON mapping of variables, and exports
documents to txt, html or md files.

Quick Start:
  quill add invoice --content "Due: {{amount}}"
  quill render invoice "March invoice" --vars '{"amount": 42}'
  quill export 1 --format md
  quill status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ~/.quill/config.json, or QUILL_CONFIG)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("db", "", "path to the SQLite database")
	pf.String("export-dir", "", "directory exported documents are written to")

	root.AddCommand(
		c.newListCmd(),
		c.newAddCmd(),
		c.newRenderCmd(),
		c.newExportCmd(),
		c.newStatusCmd(),
		c.newShowCmd(),
		c.newTemplatesCmd(),
		c.newSyncCmd(),
		c.newWatchCmd(),
		c.newServeCmd(),
		c.newVersionCmd(),
	)
	return root
}

// load reads the configuration and logger before any command runs.
func (c *cli) load(cmd *cobra.Command) error {
	path := c.configPath
	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg, err := LoadConfig(path, cmd.Root().PersistentFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.config = cfg
	c.logger = newLogger(c.stderr, cfg.LogLevel, cfg.LogFormat)
	c.logger.Debug("Configuration loaded", "path", path)
	return nil
}

// open builds the engine for commands that need the database.
func (c *cli) open() (*app, error) {
	return openApp(c.config, c.logger)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.hint != "" {
				_, _ = fmt.Fprintln(stderr, ee.hint)
			}
			return ee.code
		}
		return 1
	}
	return 0
}
