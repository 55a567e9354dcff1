package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/bus"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the configuration file")
	addr := flag.String("addr", "", "HTTP listen address (overrides the config file)")
	galleryDir := flag.String("gallery", "", "image directory (overrides the config file)")
	noTray := flag.Bool("no-tray", false, "run without the system tray icon")
	writeConfig := flag.Bool("write-config", false, "write the effective configuration to -config and exit")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *galleryDir != "" {
		cfg.Gallery.Dir = config.ExpandHome(*galleryDir)
	}
	if *noTray {
		cfg.Tray.Enabled = false
	}

	if *writeConfig {
		if err := cfg.Write(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *configPath)
		return
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("Mudra - gesture controlled gallery")

	if err := run(cfg, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// run starts every component and blocks until a signal, a confirmed exit
// or a tray quit. Deferred cleanup has run by the time it returns.
func run(cfg *config.Config, logger log.Logger) error {
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	pub, err := bus.New(cfg.Bus, logger)
	if err != nil {
		return fmt.Errorf("failed to start message bus: %w", err)
	}

	application := app.New(app.Options{
		Config: cfg,
		Logger: logger,
		Store:  st,
		Bus:    pub,
	})
	defer application.Shutdown()

	if err := application.DiscoverPlugins(); err != nil {
		logger.Warnf("Plugin discovery failed: %v", err)
	}

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		logger.Infof("Serving static files from: %s", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		App:       application,
		Logger:    logger,
	})
	defer srv.Close()

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	go func() {
		logger.Infof("Starting server on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server failed: %v", err)
			application.RequestQuit()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		logger.Errorf("Failed to start camera: %v", err)
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("HTTP shutdown: %v", err)
		}
	}

	if !cfg.Tray.Enabled {
		select {
		case <-ctx.Done():
			logger.Infof("Signal received, shutting down")
		case <-application.Done():
		}
		shutdown()
		return nil
	}

	t := tray.New(application.IsEnabled())
	t.OnToggle(application.SetEnabled)
	t.OnFullscreen(application.SetFullscreen)
	t.OnSettings(func() { openBrowser("http://" + cfg.Server.Addr) })
	t.OnQuit(application.RequestQuit)
	application.AddSink(t)
	application.AddStatusListener(t)

	go func() {
		select {
		case <-ctx.Done():
		case <-application.Done():
		}
		systray.Quit()
	}()

	// systray owns the main thread until Quit.
	t.Run()
	shutdown()
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and dataDir/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
