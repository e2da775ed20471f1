package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/export"
	"github.com/HendryAvila/archkit/internal/health"
	"github.com/HendryAvila/archkit/internal/search"
	"github.com/HendryAvila/archkit/internal/store"
	"github.com/HendryAvila/archkit/internal/tools"
)

// --- health ---

type healthFlags struct {
	strategy  string
	asJSON    bool
	failUnder int
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	f := &healthFlags{}
	cmd := &cobra.Command{
		Use:   "health [id]",
		Short: "Score the corpus, or one artifact",
		Example: `  archkit health
  archkit health --strategy enhanced --fail-under 70
  archkit health ADR-0001 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			checker := w.Health
			if f.strategy != "" {
				cfg := w.Config.Health
				cfg.Strategy = f.strategy
				if checker, err = health.NewChecker(w.Store, cfg); err != nil {
					return &artifact.Error{Kind: artifact.ErrValidation, Op: "configure health", Err: err}
				}
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				s, err := checker.CheckArtifact(args[0])
				if err != nil {
					return err
				}
				if f.asJSON {
					return printJSON(out, s)
				}
				fmt.Fprintf(out, "%s %s: %d/100\n", s.ID, s.Title, s.Score)
				for _, p := range s.Penalties {
					fmt.Fprintf(out, "  -%d %s\n", p.Points, p.Reason)
				}
				return f.gate(s.Score)
			}

			r, err := checker.Check()
			if err != nil {
				return err
			}
			if f.asJSON {
				if err := printJSON(out, r); err != nil {
					return err
				}
			} else {
				fmt.Fprint(out, tools.FormatReport(r))
			}
			return f.gate(r.Score)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.strategy, "strategy", "", "Override config.yaml: basic or enhanced")
	fl.BoolVar(&f.asJSON, "json", false, "Print as JSON")
	fl.IntVar(&f.failUnder, "fail-under", 0, "Exit non-zero when the score is below this value")
	return cmd
}

func (f *healthFlags) gate(score int) error {
	if f.failUnder > 0 && score < f.failUnder {
		return fmt.Errorf("health score %d is below %d", score, f.failUnder)
	}
	return nil
}

// --- impact ---

func newImpactCmd(opts *rootOptions) *cobra.Command {
	var checklist, asJSON bool
	cmd := &cobra.Command{
		Use:   "impact <id>",
		Short: "Show what depends on an artifact before changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if checklist {
				c, err := w.Impact.DeprecationChecklist(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(out, c)
				}
				fmt.Fprintf(out, "Deprecating %s: risk %d, %d high / %d medium / %d low\n",
					c.ID, c.RiskScore, c.High, c.Medium, c.Low)
				for _, t := range c.Tasks {
					fmt.Fprintf(out, "  [ ] %-6s %s\n", t.Priority, t.Action)
				}
				return nil
			}

			a, err := w.Impact.Analyze(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, a)
			}
			fmt.Fprintf(out, "%s: risk %s (%d), %d direct, %d transitive, max depth %d\n",
				a.ID, a.RiskLevel, a.RiskScore, len(a.DirectDependents), len(a.TransitiveDependents), a.MaxDepth)
			for _, d := range a.Dependents {
				fmt.Fprintf(out, "  %s%s %s [%s] via %s (%s)\n",
					strings.Repeat("  ", d.Depth-1), d.ID, d.Title, d.Status, d.Via, d.ReferenceType)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checklist, "checklist", false, "Print the deprecation checklist")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

// --- search ---

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var typ string
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Full-text search over titles, owners, tags and sections",
		Long:  "Without a query, lists the most recently updated artifacts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			results, err := w.Search(strings.Join(args, " "), search.Options{Type: artifact.Type(typ), Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if results == nil {
					results = []search.Result{}
				}
				return printJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s  %s [%s]\n", r.ID, r.Title, r.Status)
				if r.Snippet != "" {
					fmt.Fprintf(out, "    %s\n", r.Snippet)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Only this artifact type")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results (1-100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

// --- export ---

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every artifact as a JSON bundle or a Markdown index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var write func(io.Writer, []*artifact.Artifact) error
			switch format {
			case "json":
				write = export.JSON
			case "markdown", "md":
				write = func(w io.Writer, items []*artifact.Artifact) error {
					return export.Markdown(w, items, time.Now())
				}
			default:
				return usagef("unknown export format %q: must be json or markdown", format)
			}

			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			items, err := w.Store.List(store.Filter{})
			if err != nil {
				return err
			}
			out, closeOut, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			if err := write(out, items); err != nil {
				_ = closeOut()
				return err
			}
			return closeOut()
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
