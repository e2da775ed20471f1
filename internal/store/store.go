// Package store persists artifacts as one Markdown file per artifact under
// .arch/<type>/<ID>.md and caches List results in memory.
//
// Every method that takes an artifact ID validates it with
// artifact.ValidateID before any path is built from it. That check is the
// only thing standing between user input and filepath.Join.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
	"github.com/HendryAvila/archkit/internal/config"
	"github.com/HendryAvila/archkit/internal/logging"
)

const (
	// DirName is the project-local directory holding all artifacts.
	DirName = ".arch"
	// TemplatesDir holds user templates; the store only creates it.
	TemplatesDir = "templates"
	// CountersFile persists the per-type ID counters.
	CountersFile = "counters.json"

	fileExt = ".md"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Store defines the persistence interface for artifacts.
// Services depend on this abstraction, not on FileStore.
type Store interface {
	Save(a *artifact.Artifact) error
	Load(id string) (*artifact.Artifact, error)
	Delete(id string) (bool, error)
	List(f Filter) ([]*artifact.Artifact, error)
	Exists(id string) bool
	NextID(t artifact.Type) (string, error)
}

// FileStore implements Store on the local filesystem.
type FileStore struct {
	baseDir string
	fs      fileSystem
	cache   *Cache
	log     *slog.Logger

	mu       sync.Mutex
	counters map[artifact.Type]int
	skipped  []string
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithCache replaces the default cache. A nil cache disables caching, so
// every List goes to disk.
func WithCache(c *Cache) Option {
	return func(s *FileStore) { s.cache = c }
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *FileStore) { s.log = l }
}

// withFS swaps the filesystem; used by tests.
func withFS(fsys fileSystem) Option {
	return func(s *FileStore) { s.fs = fsys }
}

// NewFileStore creates a store rooted at baseDir (normally <project>/.arch).
func NewFileStore(baseDir string, opts ...Option) *FileStore {
	s := &FileStore{
		baseDir: baseDir,
		fs:      osFS{},
		cache:   NewCache(DefaultCacheTTL, DefaultCacheMaxEntries),
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheFromConfig builds the store cache option from config.yaml settings.
func CacheFromConfig(c config.CacheConfig) Option {
	if !c.Enabled {
		return WithCache(nil)
	}
	return WithCache(NewCache(c.TTL, c.MaxEntries))
}

// BaseDir returns the .arch directory the store is rooted at.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// Initialize creates the .arch layout (one directory per type plus
// templates/) and a default config.yaml when absent. It is idempotent.
func (s *FileStore) Initialize(project string) error {
	dirs := []string{s.baseDir, filepath.Join(s.baseDir, TemplatesDir)}
	for _, t := range artifact.AllTypes {
		dirs = append(dirs, filepath.Join(s.baseDir, t.Dir()))
	}
	for _, dir := range dirs {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return storageErr("initialize", "", fmt.Errorf("creating %s: %w", dir, err))
		}
	}

	if _, err := s.fs.Stat(config.Path(s.baseDir)); os.IsNotExist(err) {
		cfg := config.Default()
		cfg.Project = project
		if err := config.Save(s.baseDir, cfg); err != nil {
			return storageErr("initialize", "", err)
		}
	}
	return nil
}

// Save writes the artifact to its file, stamping UpdatedAt with the
// current time (and CreatedAt when unset), then invalidates cached lists
// that could contain it.
func (s *FileStore) Save(a *artifact.Artifact) error {
	if a == nil {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "save", Err: fmt.Errorf("artifact is nil")}
	}
	path, idType, err := s.pathFor("save", a.ID)
	if err != nil {
		return err
	}
	if a.Type != idType {
		return &artifact.Error{Kind: artifact.ErrValidation, Op: "save", ID: a.ID, Err: fmt.Errorf("type %q does not match ID prefix (want %q)", a.Type, idType)}
	}

	now := timeNow().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.UpdatedAt.Before(a.CreatedAt) {
		a.UpdatedAt = a.CreatedAt
	}

	data, err := artifact.Marshal(a)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return storageErr("save", a.ID, fmt.Errorf("creating directory: %w", err))
	}
	if err := atomicWrite(s.fs, path, data); err != nil {
		return storageErr("save", a.ID, err)
	}

	s.invalidate(a.Type)
	s.log.Debug("artifact saved", "id", a.ID, "path", path)
	return nil
}

// Load reads one artifact. A missing file returns (nil, nil).
func (s *FileStore) Load(id string) (*artifact.Artifact, error) {
	path, _, err := s.pathFor("load", id)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storageErr("load", id, err)
	}

	a, err := artifact.Unmarshal(data)
	if err != nil {
		return nil, &artifact.Error{Kind: artifact.ErrSerialization, Op: "load", ID: id, Err: err}
	}
	if a.ID != id {
		return nil, &artifact.Error{Kind: artifact.ErrSerialization, Op: "load", ID: id, Err: fmt.Errorf("file declares id %q", a.ID)}
	}
	return a, nil
}

// Delete removes the artifact's file. It reports whether a file was removed.
func (s *FileStore) Delete(id string) (bool, error) {
	path, idType, err := s.pathFor("delete", id)
	if err != nil {
		return false, err
	}

	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, storageErr("delete", id, err)
	}

	s.invalidate(idType)
	s.log.Debug("artifact deleted", "id", id)
	return true, nil
}

// Exists reports whether the artifact's file exists. Malformed or unsafe
// IDs simply do not exist.
func (s *FileStore) Exists(id string) bool {
	path, _, err := s.pathFor("exists", id)
	if err != nil {
		return false
	}
	_, err = s.fs.Stat(path)
	return err == nil
}

// List returns every artifact matching the filter, newest CreatedAt first.
// Files that fail to parse are skipped and counted (see Skipped).
func (s *FileStore) List(f Filter) ([]*artifact.Artifact, error) {
	types := artifact.AllTypes
	if f.Type != "" {
		if err := artifact.ValidateType(f.Type); err != nil {
			return nil, err
		}
		types = []artifact.Type{f.Type}
	}

	key := f.Key()
	if s.cache != nil {
		if items, skipped, ok := s.cache.Get(key); ok {
			s.mu.Lock()
			s.skipped = skipped
			s.mu.Unlock()
			s.log.Debug("list cache hit", "key", key, "count", len(items))
			return items, nil
		}
	}

	var (
		result  []*artifact.Artifact
		skipped []string
	)
	for _, t := range types {
		dir := filepath.Join(s.baseDir, t.Dir())
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, storageErr("list", "", fmt.Errorf("reading %s: %w", dir, err))
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := s.fs.ReadFile(path)
			if err != nil {
				skipped = append(skipped, path)
				s.log.Warn("skipping unreadable artifact", "path", path, "error", err)
				continue
			}
			a, err := artifact.Unmarshal(data)
			if err != nil || a.Type != t {
				skipped = append(skipped, path)
				s.log.Warn("skipping unparsable artifact", "path", path, "error", err)
				continue
			}
			if a.ID+fileExt != entry.Name() {
				skipped = append(skipped, path)
				s.log.Warn("skipping artifact whose id does not match its file name", "path", path, "id", a.ID)
				continue
			}
			if f.Matches(a) {
				result = append(result, a)
			}
		}
	}

	slices.SortStableFunc(result, func(a, b *artifact.Artifact) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	s.mu.Lock()
	s.skipped = skipped
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Set(f, result, skipped)
		s.log.Debug("list cache miss", "key", key, "count", len(result))
	}
	return result, nil
}

// Skipped returns the paths skipped by the scan behind the most recent List,
// whether that List read the disk or the cache.
func (s *FileStore) Skipped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.skipped)
}

// NextID allocates the next ID for a type. The counter never goes below
// the highest number already on disk, and is flushed on every increment.
func (s *FileStore) NextID(t artifact.Type) (string, error) {
	if err := artifact.ValidateType(t); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters == nil {
		counters, err := s.readCounters()
		if err != nil {
			return "", err
		}
		s.counters = counters
	}

	n := max(s.counters[t], s.highestOnDisk(t)) + 1
	s.counters[t] = n
	if err := s.writeCounters(); err != nil {
		s.counters[t] = n - 1
		return "", err
	}
	return artifact.FormatID(t, n), nil
}

// --- internals ---

// pathFor validates the ID and only then derives its file path.
func (s *FileStore) pathFor(op, id string) (string, artifact.Type, error) {
	t, err := artifact.ValidateID(id)
	if err != nil {
		var ae *artifact.Error
		if errors.As(err, &ae) {
			return "", "", &artifact.Error{Kind: ae.Kind, Op: op, Err: ae.Err}
		}
		return "", "", err
	}
	return filepath.Join(s.baseDir, t.Dir(), id+fileExt), t, nil
}

func (s *FileStore) invalidate(t artifact.Type) {
	if s.cache != nil {
		s.cache.InvalidateByType(t)
	}
}

func (s *FileStore) countersPath() string {
	return filepath.Join(s.baseDir, CountersFile)
}

func (s *FileStore) readCounters() (map[artifact.Type]int, error) {
	counters := make(map[artifact.Type]int)
	data, err := s.fs.ReadFile(s.countersPath())
	if err != nil {
		if os.IsNotExist(err) {
			return counters, nil
		}
		return nil, storageErr("read counters", "", err)
	}
	if err := json.Unmarshal(data, &counters); err != nil {
		return nil, &artifact.Error{Kind: artifact.ErrSerialization, Op: "read counters", Err: err}
	}
	return counters, nil
}

func (s *FileStore) writeCounters() error {
	data, err := json.MarshalIndent(s.counters, "", "  ")
	if err != nil {
		return &artifact.Error{Kind: artifact.ErrSerialization, Op: "write counters", Err: err}
	}
	if err := s.fs.MkdirAll(s.baseDir, 0o755); err != nil {
		return storageErr("write counters", "", err)
	}
	if err := atomicWrite(s.fs, s.countersPath(), data); err != nil {
		return storageErr("write counters", "", err)
	}
	return nil
}

// highestOnDisk returns the largest ID number among the type's files.
func (s *FileStore) highestOnDisk(t artifact.Type) int {
	entries, err := s.fs.ReadDir(filepath.Join(s.baseDir, t.Dir()))
	if err != nil {
		return 0
	}
	highest := 0
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), fileExt)
		if entry.IsDir() || name == entry.Name() {
			continue
		}
		if n, err := artifact.IDNumber(name); err == nil && n > highest {
			if idType, _ := artifact.ValidateID(name); idType == t {
				highest = n
			}
		}
	}
	return highest
}

func storageErr(op, id string, err error) error {
	return &artifact.Error{Kind: artifact.ErrStorage, Op: op, ID: id, Err: err}
}
