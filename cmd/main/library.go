package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/Quill/pkg/library"
)

func (c *cli) newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Move templates in and out of YAML bundles",
	}

	var outPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write every template to a YAML bundle",
		Example: `  quill templates export > backup.yaml
  quill templates export -o backup.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if outPath == "" || outPath == "-" {
				_, err = library.ExportBundle(cmd.Context(), a.engine, c.stdout)
				return err
			}
			var buf bytes.Buffer
			n, err := library.ExportBundle(cmd.Context(), a.engine, &buf)
			if err != nil {
				return err
			}
			if err = atomic.WriteFile(outPath, &buf); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}
			_, _ = fmt.Fprintf(c.stdout, "Exported %d templates to %s\n", n, outPath)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "bundle file (default stdout)")

	importCmd := &cobra.Command{
		Use:     "import <file>",
		Short:   "Upsert every template of a YAML bundle",
		Example: `  quill templates import backup.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open bundle: %w", err)
				}
				defer func(f *os.File) {
					_ = f.Close()
				}(f)
				r = f
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := library.ImportBundle(cmd.Context(), a.engine, r)
			s := newStyles(c.stdout)
			for _, res := range results {
				verb := "updated"
				if res.Created {
					verb = "created"
				}
				_, _ = fmt.Fprintf(c.stdout, "  %s %s (v%d)\n", s.ok.Render(verb), res.Template.Name, res.Template.Version)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.stdout, "Imported %d templates\n", len(results))
			return nil
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}

func (c *cli) printSyncReport(r library.SyncReport) {
	s := newStyles(c.stdout)
	if len(r.Created) > 0 {
		_, _ = fmt.Fprintf(c.stdout, "%s %s\n", s.ok.Render("created:"), strings.Join(r.Created, ", "))
	}
	if len(r.Updated) > 0 {
		_, _ = fmt.Fprintf(c.stdout, "%s %s\n", s.warn.Render("updated:"), strings.Join(r.Updated, ", "))
	}
	_, _ = fmt.Fprintf(c.stdout, "%s\n", s.muted.Render(fmt.Sprintf("%d files, %d unchanged", r.Total(), len(r.Unchanged))))
}

func (c *cli) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <dir>",
		Short: "Import *.tmpl files from a directory tree",
		Long: `Import every *.tmpl file below dir. The template name is the file name
without its extension and the category is the sub-directory it lives in.
Files whose content is already stored are skipped, so their version stays.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			loader := library.NewLoader(args[0], a.engine)
			loader.SetLogger(c.logger)
			report, err := loader.Sync(cmd.Context())
			if err != nil {
				return err
			}
			c.printSyncReport(report)
			return nil
		},
	}
}

func (c *cli) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Sync a template directory and keep it synced until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			loader := library.NewLoader(args[0], a.engine)
			loader.SetLogger(c.logger)
			loader.OnSync(c.printSyncReport)

			c.logger.Info("Watching template directory", "path", args[0])
			return loader.Watch(ctx)
		},
	}
}
