package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/graph"
	"github.com/HendryAvila/archkit/internal/links"
)

// --- link / unlink ---

func newLinkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link <source> <type> <target>",
		Short: "Add a typed reference from source to target",
		Long: "Reference types: implements, supersedes, relates-to, depends-on, blocks, enables.\n" +
			"Both artifacts must exist. Identical links are kept and reported as duplicates.",
		Example: "  archkit link RFC-0002 implements ADR-0001",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			res, err := w.Links.CreateLink(cmd.Context(), args[0], args[2], artifact.ReferenceType(args[1]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Linked %s -%s-> %s\n", res.Link.SourceID, res.Link.Type, res.Link.TargetID)
			if res.Duplicate {
				fmt.Fprintln(out, "note: an identical link already existed")
			}
			return nil
		},
	}
}

func newUnlinkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <source> <type> <target>",
		Short: "Remove every matching reference from source",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			removed, err := w.Links.RemoveLink(args[0], args[2], artifact.ReferenceType(args[1]))
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s link from %s to %s\n", args[1], args[0], args[2])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlinked %s -%s-> %s\n", args[0], args[1], args[2])
			return nil
		},
	}
}

// --- links ---

func newLinksCmd(opts *rootOptions) *cobra.Command {
	var all, asJSON bool
	cmd := &cobra.Command{
		Use:   "links [id]",
		Short: "Show the links of one artifact, or every link with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return usagef("give either an artifact ID or --all")
			}
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if all {
				edges, err := w.Links.AllLinks()
				if err != nil {
					return err
				}
				if asJSON {
					if edges == nil {
						edges = []links.Link{}
					}
					return printJSON(out, edges)
				}
				if len(edges) == 0 {
					fmt.Fprintln(out, "No links.")
				}
				for _, l := range edges {
					fmt.Fprintf(out, "%s -%s-> %s\n", l.SourceID, l.Type, l.TargetID)
				}
				return nil
			}

			display, err := w.Links.GetLinksForDisplay(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				if display == nil {
					display = []links.DisplayLink{}
				}
				return printJSON(out, display)
			}
			if len(display) == 0 {
				fmt.Fprintf(out, "%s has no links.\n", args[0])
				return nil
			}
			for _, l := range display {
				printDisplayLink(out, l)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every link in the project")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printDisplayLink(w io.Writer, l links.DisplayLink) {
	arrow := "->"
	if l.Direction == links.Incoming {
		arrow = "<-"
	}
	if l.Missing {
		fmt.Fprintf(w, "%s %-11s %s (missing)\n", arrow, l.ReferenceType, l.ID)
		return
	}
	fmt.Fprintf(w, "%s %-11s %s %s [%s]\n", arrow, l.ReferenceType, l.ID, l.Title, l.Status)
}

// --- graph ---

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var format, root, output string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the reference graph as Mermaid or Graphviz DOT",
		Example: `  archkit graph > arch.mmd
  archkit graph --format dot --root ADR-0001 -o adr1.dot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			text, err := w.Graphs.Render(graph.RenderOptions{Format: graph.Format(format), Root: root})
			if err != nil {
				return err
			}
			out, closeOut, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(out, text); err != nil {
				_ = closeOut()
				return err
			}
			return closeOut()
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&format, "format", string(graph.FormatMermaid), "Output format: mermaid or dot")
	fl.StringVar(&root, "root", "", "Only render artifacts connected to this ID")
	fl.StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

// --- cycles ---

func newCyclesCmd(opts *rootOptions) *cobra.Command {
	var failOnCycle bool
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Report circular dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			cycles, err := w.Graphs.DetectCircularDependencies()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cycles) == 0 {
				fmt.Fprintln(out, "No circular dependencies.")
				return nil
			}
			fmt.Fprintf(out, "Found %d circular dependencies:\n", len(cycles))
			for _, c := range cycles {
				fmt.Fprintf(out, "  [%s] %s\n", c.Severity, c)
			}
			if failOnCycle {
				return fmt.Errorf("%d circular dependencies", len(cycles))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnCycle, "fail", false, "Exit non-zero when a cycle exists")
	return cmd
}
