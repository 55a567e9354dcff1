package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/store"
)

func TestRun_StartupErrors(t *testing.T) {
	t.Run("bus", func(t *testing.T) {
		cfg := config.Default()
		cfg.DataDir = t.TempDir()
		cfg.Bus.Address = "nonsense://here"

		err := run(&cfg, log.Discard())
		if err == nil || !strings.Contains(err.Error(), "message bus") {
			t.Fatalf("run() = %v, want a message bus error", err)
		}

		// run closed the store on its way out.
		st, err := store.New(cfg.DBPath())
		if err != nil {
			t.Fatalf("reopen store: %v", err)
		}
		st.Close()
	})

	t.Run("store", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := config.Default()
		cfg.DataDir = file

		err := run(&cfg, log.Discard())
		if err == nil || !strings.Contains(err.Error(), "store") {
			t.Fatalf("run() = %v, want a store error", err)
		}
	})
}
