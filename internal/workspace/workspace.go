// Package workspace is the composition root: it locates a project's .arch
// directory, loads its config and wires the store and every service that
// reads from it. The CLI and the MCP server both start here.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/config"
	"github.com/HendryAvila/archkit/internal/graph"
	"github.com/HendryAvila/archkit/internal/health"
	"github.com/HendryAvila/archkit/internal/hooks"
	"github.com/HendryAvila/archkit/internal/impact"
	"github.com/HendryAvila/archkit/internal/lifecycle"
	"github.com/HendryAvila/archkit/internal/links"
	"github.com/HendryAvila/archkit/internal/logging"
	"github.com/HendryAvila/archkit/internal/search"
	"github.com/HendryAvila/archkit/internal/store"
)

// ErrNotInitialized is returned by Open when no .arch directory exists.
var ErrNotInitialized = errors.New("no .arch directory found; run `archkit init` first")

// Workspace bundles the services of one project.
type Workspace struct {
	Root   string
	Config config.Config

	Store     *store.FileStore
	Hooks     *hooks.Registry
	Lifecycle *lifecycle.Service
	Links     *links.Service
	Graphs    *graph.Service
	Health    *health.Checker
	Impact    *impact.Analyzer
}

// Find walks up from start looking for a directory that contains .arch/.
// It reports false when none is found.
func Find(start string) (string, bool) {
	current, err := filepath.Abs(start)
	if err != nil {
		return start, false
	}
	for {
		if info, err := os.Stat(filepath.Join(current, store.DirName)); err == nil && info.IsDir() {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return start, false
		}
		current = parent
	}
}

// Init creates the .arch layout under root and opens it.
func Init(root, project string) (*Workspace, error) {
	if project == "" {
		project = filepath.Base(root)
	}
	st := store.NewFileStore(filepath.Join(root, store.DirName))
	if err := st.Initialize(project); err != nil {
		return nil, err
	}
	return Open(root)
}

// Open loads config.yaml and wires the services for the project at root.
func Open(root string) (*Workspace, error) {
	baseDir := filepath.Join(root, store.DirName)
	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		return nil, ErrNotInitialized
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "load config", Err: err}
	}

	reg := hooks.NewRegistry(logging.New("hooks"))
	if err := registerAuditLog(reg); err != nil {
		return nil, err
	}

	st := store.NewFileStore(baseDir,
		store.CacheFromConfig(cfg.Cache),
		store.WithLogger(logging.New("store")),
	)
	checker, err := health.NewChecker(st, cfg.Health)
	if err != nil {
		return nil, &artifact.Error{Kind: artifact.ErrValidation, Op: "configure health", Err: err}
	}

	return &Workspace{
		Root:      root,
		Config:    cfg,
		Store:     st,
		Hooks:     reg,
		Lifecycle: lifecycle.NewService(st, lifecycle.WithHooks(reg), lifecycle.WithLogger(logging.New("lifecycle"))),
		Links:     links.NewService(st, links.WithHooks(reg), links.WithLogger(logging.New("links"))),
		Graphs:    graph.NewService(st),
		Health:    checker,
		Impact:    impact.NewAnalyzer(st),
	}, nil
}

// BaseDir returns the .arch directory.
func (w *Workspace) BaseDir() string {
	return w.Store.BaseDir()
}

// Search refreshes the full-text index from the store and queries it.
// The index is derived data, so it is rebuilt on every call.
func (w *Workspace) Search(query string, opts search.Options) ([]search.Result, error) {
	items, err := w.Store.List(store.Filter{})
	if err != nil {
		return nil, err
	}
	idx, err := search.Open(filepath.Join(w.BaseDir(), search.FileName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	if err := idx.Rebuild(items); err != nil {
		return nil, err
	}
	return idx.Search(query, opts)
}

// registerAuditLog records every change at info level.
func registerAuditLog(reg *hooks.Registry) error {
	log := logging.New("audit")
	for _, ev := range hooks.AllEvents {
		err := reg.Register(ev, "audit-log", func(_ context.Context, p hooks.Payload) error {
			attrs := []any{"event", string(p.Event), "id", p.ID}
			if p.Reference != nil {
				attrs = append(attrs, "target", p.Reference.TargetID, "reference_type", string(p.Reference.ReferenceType))
			}
			log.Info("artifact change", attrs...)
			return nil
		})
		if err != nil {
			return fmt.Errorf("registering audit hook: %w", err)
		}
	}
	return nil
}
