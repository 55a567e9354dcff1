package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	keyboard := writePlugin(t, dir, Manifest{
		Name:        "keyboard",
		Description: "Sends keystrokes",
		Actions:     []string{"keystroke", "command"},
		Commands:    []string{"next", "previous", "help"},
	}, okScript)
	writePlugin(t, dir, Manifest{Name: "audio", Actions: []string{"auto"}}, okScript)

	// Neither a stray file nor a directory without a manifest is a plugin.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "scratch"), 0755); err != nil {
		t.Fatal(err)
	}

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	var names []string
	for _, p := range m.List() {
		names = append(names, p.Manifest.Name)
	}
	if strings.Join(names, ",") != "audio,keyboard" {
		t.Fatalf("List() = %v, want audio and keyboard sorted", names)
	}

	p, err := m.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Path != keyboard || p.Executable != filepath.Join(keyboard, "run.sh") {
		t.Errorf("plugin at %q running %q", p.Path, p.Executable)
	}
	if !p.Handles("help") || p.Handles("increase") || !p.Supports("command") {
		t.Errorf("unexpected capabilities %+v", p.Manifest)
	}

	if _, err := m.Get("system-control"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrPluginNotFound", err)
	}
	if m.Dir() != dir {
		t.Errorf("Dir() = %q", m.Dir())
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, Manifest{Name: "good", Commands: []string{"next"}}, okScript)
	writePlugin(t, dir, Manifest{Name: "wave", Commands: []string{"wave_hello"}}, okScript)

	// A second directory claiming an existing name.
	writePlugin(t, dir, Manifest{Name: "good"}, okScript)
	if err := os.Rename(filepath.Join(dir, "good"), filepath.Join(dir, "a-good")); err != nil {
		t.Fatal(err)
	}
	writePlugin(t, dir, Manifest{Name: "good", Commands: []string{"next"}}, okScript)

	noExec := writePlugin(t, dir, Manifest{Name: "ghost"}, okScript)
	if err := os.Remove(filepath.Join(noExec, "run.sh")); err != nil {
		t.Fatal(err)
	}

	hollow := writePlugin(t, dir, Manifest{Name: "hollow"}, okScript)
	if err := os.Remove(filepath.Join(hollow, "run.sh")); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(hollow, "run.sh"), 0755); err != nil {
		t.Fatal(err)
	}

	garbled := filepath.Join(dir, "garbled")
	if err := os.Mkdir(garbled, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(garbled, ManifestFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(dir)
	err := m.Discover()
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("Discover() error = %v, want ErrInvalidManifest", err)
	}
	for _, want := range []string{"wave", "ghost", "hollow", "garbled", `"good" already used`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}

	plugins := m.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" || filepath.Base(plugins[0].Path) != "a-good" {
		t.Errorf("expected only the first good plugin, got %d plugins", len(plugins))
	}
}

func TestManager_Rediscover(t *testing.T) {
	dir := t.TempDir()
	gone := writePlugin(t, dir, Manifest{Name: "temporary"}, okScript)

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(m.List()) != 1 {
		t.Fatalf("expected one plugin")
	}

	if err := os.RemoveAll(gone); err != nil {
		t.Fatal(err)
	}
	if err := m.Discover(); err != nil {
		t.Fatalf("second Discover() error = %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("removed plugin should be forgotten")
	}

	missing := NewManager(filepath.Join(dir, "nowhere"))
	if err := missing.Discover(); err != nil || len(missing.List()) != 0 {
		t.Errorf("missing directory: err=%v plugins=%d", err, len(missing.List()))
	}
}

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       Manifest
		wantErr bool
	}{
		{"complete", Manifest{Name: "k", Executable: "k", Actions: []string{"a"}, Commands: []string{"next", "toggle_debug"}}, false},
		{"no actions or commands", Manifest{Name: "k", Executable: "k"}, false},
		{"no name", Manifest{Executable: "k"}, true},
		{"no executable", Manifest{Name: "k"}, true},
		{"empty action", Manifest{Name: "k", Executable: "k", Actions: []string{""}}, true},
		{"unknown command", Manifest{Name: "k", Executable: "k", Commands: []string{"zoom"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}
