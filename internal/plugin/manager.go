package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
)

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrInvalidManifest marks a plugin skipped during discovery.
	ErrInvalidManifest = errors.New("invalid plugin manifest")
)

// ManifestFile is the name of the manifest in each plugin directory.
const ManifestFile = "plugin.json"

// Validate checks the manifest fields that do not depend on the file
// system: a name, an executable, non-empty action names and gesture
// commands that exist.
func (m Manifest) Validate() error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	if m.Executable == "" {
		return errors.New("executable is required")
	}
	for _, a := range m.Actions {
		if a == "" {
			return errors.New("empty action name")
		}
	}
	for _, c := range m.Commands {
		if _, err := gesture.ParseCommand(c); err != nil {
			return err
		}
	}
	return nil
}

// Manager discovers plugins in a directory and looks them up by name.
// It is safe for concurrent use; the API may rediscover while the runner
// executes.
type Manager struct {
	dir     string
	plugins map[string]*Plugin
	mu      sync.RWMutex
}

// NewManager creates a Manager for dir. Nothing is loaded until Discover.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:     dir,
		plugins: make(map[string]*Plugin),
	}
}

// Discover replaces the loaded plugins with the valid ones found in the
// plugin directory. Subdirectories without a manifest are ignored. Invalid
// manifests, missing executables and duplicate names are skipped; the
// returned error joins one ErrInvalidManifest per skipped plugin while the
// rest stay usable. A missing plugin directory is not an error.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		m.replace(found)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin directory: %w", err)
	}

	var problems []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := load(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				problems = append(problems, fmt.Errorf("%w %s: %w", ErrInvalidManifest, entry.Name(), err))
			}
			continue
		}
		if prev, dup := found[p.Manifest.Name]; dup {
			problems = append(problems, fmt.Errorf("%w %s: name %q already used by %s", ErrInvalidManifest, entry.Name(), p.Manifest.Name, filepath.Base(prev.Path)))
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.replace(found)
	return errors.Join(problems...)
}

// load reads and checks the plugin in dir. A missing manifest returns an
// error matching os.ErrNotExist.
func load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %v", ManifestFile, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	executable := filepath.Join(dir, manifest.Executable)
	info, err := os.Stat(executable)
	if err != nil {
		return nil, fmt.Errorf("executable %s: %v", manifest.Executable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("executable %s is a directory", manifest.Executable)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: executable}, nil
}

func (m *Manager) replace(plugins map[string]*Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = plugins
}

// Get returns a plugin by name, or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return p, nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	m.mu.RUnlock()

	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// Dir returns the plugin directory.
func (m *Manager) Dir() string {
	return m.dir
}
