// Package registry loads IR documents from a configured search path, caches
// them by library name, and materializes namespaces of compiled bindings on
// demand. The registry is the single Loader in a process; every cross-library
// reference resolves through it, so repeated loads of a library always yield
// the same document and the same compiled declarations.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/irdoc"
)

// EnvSearchPath names the environment variable holding extra IR search
// entries, separated by the platform list separator.
const EnvSearchPath = "IRBIND_IR_PATH"

const defaultConfigFile = "irbind.yaml"

// NotFoundError reports a library that no search path entry provides.
type NotFoundError struct {
	Library string
	Paths   []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("library %s not found in search path [%s]", e.Library, strings.Join(e.Paths, ", "))
}

// Option configures a Registry.
type Option func(*Registry)

// WithSearchPath appends entries to the IR search path. An entry may be a
// directory scanned by filename convention or a single IR file.
func WithSearchPath(paths ...string) Option {
	return func(r *Registry) { r.paths = append(r.paths, paths...) }
}

// WithLogger sets the registry's logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithConfigFile reads search path entries from the named YAML config file.
// Without this option irbind.yaml in the working directory is read when it
// exists.
func WithConfigFile(path string) Option {
	return func(r *Registry) { r.configFile = path }
}

type fileConfig struct {
	IRPaths []string `yaml:"ir_paths"`
}

// Registry is the process-wide IR cache and namespace factory.
type Registry struct {
	paths      []string
	configFile string
	log        *slog.Logger

	docMu sync.Mutex
	docs  map[string]*irdoc.Document

	nsMu       sync.Mutex
	namespaces map[string]*Namespace

	resolver *bind.Resolver
}

// New builds a registry. The search path is assembled from options, then
// the IRBIND_IR_PATH environment variable, then the config file.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		log:        slog.Default(),
		docs:       make(map[string]*irdoc.Document),
		namespaces: make(map[string]*Namespace),
	}
	for _, opt := range opts {
		opt(r)
	}
	if env := os.Getenv(EnvSearchPath); env != "" {
		r.paths = append(r.paths, filepath.SplitList(env)...)
	}
	if r.configFile != "" {
		if err := r.readConfig(r.configFile); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(defaultConfigFile); err == nil {
		if err := r.readConfig(defaultConfigFile); err != nil {
			return nil, err
		}
	}
	r.resolver = bind.NewResolver(r)
	return r, nil
}

func (r *Registry) readConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	r.paths = append(r.paths, cfg.IRPaths...)
	return nil
}

// SearchPath returns the assembled search path entries.
func (r *Registry) SearchPath() []string {
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// Register seeds the cache with an already-parsed document. Registering a
// second document for the same library is an error; the cache is
// identity-stable.
func (r *Registry) Register(doc *irdoc.Document) error {
	r.docMu.Lock()
	defer r.docMu.Unlock()
	if prev, ok := r.docs[doc.Name()]; ok {
		if prev == doc {
			return nil
		}
		return fmt.Errorf("library %s is already loaded from %s", doc.Name(), prev.Path)
	}
	r.docs[doc.Name()] = doc
	return nil
}

// Load resolves a library name to its parsed document, searching the path
// on a cache miss. Repeated calls return the same document.
func (r *Registry) Load(library string) (*irdoc.Document, error) {
	r.docMu.Lock()
	defer r.docMu.Unlock()
	if doc, ok := r.docs[library]; ok {
		return doc, nil
	}
	for _, entry := range r.paths {
		doc, err := r.tryEntry(entry, library)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			r.docs[library] = doc
			r.log.Debug("loaded library", "library", library, "path", doc.Path)
			return doc, nil
		}
	}
	return nil, &NotFoundError{Library: library, Paths: r.SearchPath()}
}

// tryEntry probes one search path entry for the library. A directory entry
// is probed by filename convention; a file entry is parsed and matched by
// its declared name.
func (r *Registry) tryEntry(entry, library string) (*irdoc.Document, error) {
	info, err := os.Stat(entry)
	if err != nil {
		return nil, nil
	}
	if !info.IsDir() {
		doc, err := r.parseFile(entry)
		if err != nil {
			return nil, err
		}
		if doc.Name() == library {
			return doc, nil
		}
		return nil, nil
	}
	for _, name := range []string{library + ".fidl.json", library + ".json"} {
		candidate := filepath.Join(entry, name)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		return r.parseFile(candidate)
	}
	return nil, nil
}

func (r *Registry) parseFile(path string) (*irdoc.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return irdoc.Parse(path, data)
}

// Namespace returns the materialized namespace for a library, building it
// on first use. Get-or-create is idempotent; concurrent callers observe the
// same namespace.
func (r *Registry) Namespace(library string) (*Namespace, error) {
	r.nsMu.Lock()
	if ns, ok := r.namespaces[library]; ok {
		r.nsMu.Unlock()
		return ns, nil
	}
	r.nsMu.Unlock()

	doc, err := r.Load(library)
	if err != nil {
		return nil, err
	}
	built, err := newNamespace(doc, r.resolver)
	if err != nil {
		return nil, err
	}

	r.nsMu.Lock()
	defer r.nsMu.Unlock()
	if ns, ok := r.namespaces[library]; ok {
		return ns, nil
	}
	r.namespaces[library] = built
	return built, nil
}

// Resolver returns the registry-backed type resolver.
func (r *Registry) Resolver() *bind.Resolver { return r.resolver }
