package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/archkit/internal/config"
	"github.com/HendryAvila/archkit/internal/logging"
	"github.com/HendryAvila/archkit/internal/server"
	"github.com/HendryAvila/archkit/internal/store"
	"github.com/HendryAvila/archkit/internal/workspace"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	dir       string
	logLevel  string
	logFormat string
	logOut    io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "archkit",
		Short: "Manage RFCs, ADRs and decomposition plans as Markdown",
		Long: "archkit keeps architecture documentation under .arch/ as Markdown files\n" +
			"with YAML frontmatter, links them into a reference graph, and scores\n" +
			"the corpus for staleness, broken references and circular dependencies.",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.dir, "dir", "C", "", "Project directory (default: nearest parent with .arch/)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: from config.yaml)")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (default: from config.yaml)")

	root.AddCommand(
		newInitCmd(opts),
		newNewCmd(opts),
		newShowCmd(opts),
		newListCmd(opts),
		newStatusCmd(opts),
		newDeleteCmd(opts),
		newLinkCmd(opts),
		newUnlinkCmd(opts),
		newLinksCmd(opts),
		newGraphCmd(opts),
		newCyclesCmd(opts),
		newHealthCmd(opts),
		newImpactCmd(opts),
		newSearchCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
		newUpdateCmd(),
	)
	return root
}

// projectRoot resolves --dir, or the nearest parent of the working
// directory that holds .arch/.
func (o *rootOptions) projectRoot() (string, error) {
	if o.dir != "" {
		return filepath.Abs(o.dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	if root, ok := workspace.Find(wd); ok {
		return root, nil
	}
	return wd, nil
}

// openWorkspace configures logging from config.yaml (flags win) and opens
// the project. Logging is set up first so service loggers pick it up.
func (o *rootOptions) openWorkspace() (*workspace.Workspace, error) {
	root, err := o.projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(root, store.DirName))
	if err != nil {
		cfg = config.Default()
	}
	o.initLogging(cfg.Log)
	return workspace.Open(root)
}

func (o *rootOptions) initLogging(lc config.LogConfig) {
	level, format := lc.Level, lc.Format
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.logFormat != "" {
		format = o.logFormat
	}
	w := o.logOut
	if w == nil {
		w = os.Stderr
	}
	logging.Init(logging.ParseLevel(level), format, w)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openOutput returns the file at path, or stdout when path is empty or "-".
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}
