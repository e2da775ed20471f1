package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/config"
	"github.com/HendryAvila/archkit/internal/lifecycle"
	"github.com/HendryAvila/archkit/internal/store"
	"github.com/HendryAvila/archkit/internal/workspace"
)

const dateLayout = "2006-01-02"

// --- init ---

func newInitCmd(opts *rootOptions) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the .arch directory in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := opts.projectRoot()
			if err != nil {
				return err
			}
			opts.initLogging(config.Default().Log)
			w, err := workspace.Init(root, project)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s (project %q)\n", w.BaseDir(), w.Config.Project)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project name written to config.yaml (default: directory name)")
	return cmd
}

// --- new ---

type newFlags struct {
	owner    string
	tags     []string
	refs     []string
	sections []string
	phases   []string
}

func newNewCmd(opts *rootOptions) *cobra.Command {
	f := &newFlags{}
	cmd := &cobra.Command{
		Use:   "new <rfc|adr|decomposition> <title>",
		Short: "Create an artifact with the next free ID",
		Example: `  archkit new adr "Use PostgreSQL" --owner alice --tag storage
  archkit new rfc "Split billing" --ref depends-on:ADR-0001 --section "Summary=Move billing out"
  archkit new decomposition "Billing rollout" --phase "Extract API" --phase "Migrate data"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := lifecycle.CreateInput{
				Type:  artifact.Type(args[0]),
				Title: strings.Join(args[1:], " "),
				Owner: f.owner,
				Tags:  f.tags,
			}
			refs, err := parseRefFlags(f.refs)
			if err != nil {
				return err
			}
			in.References = refs
			for _, s := range f.sections {
				heading, body, ok := strings.Cut(s, "=")
				if !ok || strings.TrimSpace(heading) == "" {
					return usagef("--section %q must look like Heading=Body", s)
				}
				in.Sections = append(in.Sections, artifact.Section{Heading: strings.TrimSpace(heading), Body: body})
			}
			for _, name := range f.phases {
				in.Phases = append(in.Phases, artifact.Phase{Name: name})
			}

			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			a, err := w.Lifecycle.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (%s)\n", a.ID, a.Title, a.Status)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.owner, "owner", "", "Owner of the artifact")
	fl.StringSliceVar(&f.tags, "tag", nil, "Tag (repeatable or comma-separated)")
	fl.StringArrayVar(&f.refs, "ref", nil, "Reference as type:ID, e.g. implements:ADR-0001 (repeatable)")
	fl.StringArrayVar(&f.sections, "section", nil, "Section as Heading=Body (repeatable)")
	fl.StringArrayVar(&f.phases, "phase", nil, "Phase name, decompositions only (repeatable)")
	return cmd
}

// parseRefFlags parses repeated "type:ID" values.
func parseRefFlags(values []string) ([]artifact.Reference, error) {
	refs := make([]artifact.Reference, 0, len(values))
	for _, v := range values {
		rt, id, ok := strings.Cut(v, ":")
		if !ok {
			return nil, usagef("--ref %q must look like type:ID", v)
		}
		refs = append(refs, artifact.Reference{
			TargetID:      strings.TrimSpace(id),
			ReferenceType: artifact.ReferenceType(strings.TrimSpace(rt)),
		})
	}
	return refs, nil
}

// --- show ---

func newShowCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an artifact file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			a, err := w.Store.Load(args[0])
			if err != nil {
				return err
			}
			if a == nil {
				return artifact.NotFound("show", args[0])
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), a)
			}
			data, err := artifact.Marshal(a)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

// --- list ---

type listFlags struct {
	typ    string
	status string
	owner  string
	tags   []string
	since  string
	until  string
	asJSON bool
}

func newListCmd(opts *rootOptions) *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List artifacts, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := f.filter()
			if err != nil {
				return err
			}
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			items, err := w.Store.List(filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f.asJSON {
				if items == nil {
					items = []*artifact.Artifact{}
				}
				return printJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "No artifacts found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tOWNER\tUPDATED\tTITLE")
			for _, a := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Status, dash(a.Owner), humanize.Time(a.UpdatedAt), a.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if n := len(w.Store.Skipped()); n > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d unreadable file(s)\n", n)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.typ, "type", "", "Filter by type: rfc, adr, decomposition")
	fl.StringVar(&f.status, "status", "", "Filter by status")
	fl.StringVar(&f.owner, "owner", "", "Filter by owner")
	fl.StringSliceVar(&f.tags, "tag", nil, "Require tag (repeatable)")
	fl.StringVar(&f.since, "since", "", "Created on or after YYYY-MM-DD")
	fl.StringVar(&f.until, "until", "", "Created on or before YYYY-MM-DD (inclusive)")
	fl.BoolVar(&f.asJSON, "json", false, "Print as JSON")
	return cmd
}

func (f *listFlags) filter() (store.Filter, error) {
	filter := store.Filter{
		Type:   artifact.Type(f.typ),
		Status: artifact.Status(f.status),
		Owner:  f.owner,
		Tags:   f.tags,
	}
	if f.typ != "" {
		if err := artifact.ValidateType(filter.Type); err != nil {
			return filter, err
		}
	}
	if f.since != "" {
		t, err := time.Parse(dateLayout, f.since)
		if err != nil {
			return filter, usagef("--since %q: want YYYY-MM-DD", f.since)
		}
		filter.DateFrom = &t
	}
	if f.until != "" {
		t, err := time.Parse(dateLayout, f.until)
		if err != nil {
			return filter, usagef("--until %q: want YYYY-MM-DD", f.until)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}
	return filter, nil
}

// --- status ---

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var supersededBy, phase string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an artifact (or one of its phases) to a new status",
		Example: `  archkit status ADR-0001 accepted
  archkit status ADR-0001 superseded --superseded-by ADR-0004
  archkit status DECOMP-0001 in-progress --phase phase-1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if phase != "" && supersededBy != "" {
				return usagef("--phase and --superseded-by cannot be combined")
			}
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			id := args[0]
			var a *artifact.Artifact
			if phase != "" {
				a, err = w.Lifecycle.SetPhaseStatus(cmd.Context(), id, phase, artifact.PhaseStatus(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s phase %s is now %s\n", a.ID, phase, args[1])
				return nil
			}
			a, err = w.Lifecycle.SetStatus(cmd.Context(), id, artifact.Status(args[1]), supersededBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", a.ID, a.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&supersededBy, "superseded-by", "", "Successor ADR (required for superseded)")
	cmd.Flags().StringVar(&phase, "phase", "", "Phase ID of a decomposition")
	return cmd
}

// --- delete ---

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an artifact; references to it become broken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}
			deleted, err := w.Lifecycle.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return artifact.NotFound("delete", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
