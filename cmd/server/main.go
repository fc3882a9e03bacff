// Command server runs the Noupe2API proxy: an OpenAI-compatible HTTP facade
// over the Noupe AI agent backend. Configuration comes from an optional YAML
// file plus environment variables, and the config file is watched for changes
// so key rotation does not require a restart.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/lzA6/noupe2api/internal/api"
	"github.com/lzA6/noupe2api/internal/buildinfo"
	"github.com/lzA6/noupe2api/internal/config"
	"github.com/lzA6/noupe2api/internal/logging"
)

func init() {
	logging.SetupBaseLogger()
}

func main() {
	var (
		configPath  string
		port        int
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	flag.IntVar(&port, "port", 0, "listen port (overrides config and PORT)")
	flag.BoolVar(&showVersion, "v", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("noupe2api %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	// .env mirrors the original environment-only deployment style. A missing
	// file is fine.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if port > 0 {
		cfg.Port = port
	}

	logging.ConfigureLogOutput(cfg.Logging.Level, cfg.Logging.File)

	if err = cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.OpenAccess() {
		log.Warn("no API keys configured; the proxy accepts unauthenticated requests")
	}

	srv := api.NewServer(cfg)

	watcherDone := watchConfig(configPath, port, srv)
	defer close(watcherDone)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-quit:
		log.Infof("received signal %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err = srv.Stop(ctx); err != nil {
			log.Errorf("graceful shutdown failed: %v", err)
		}
	}
}

// watchConfig reloads the server configuration whenever the config file
// changes. Editors often replace files via rename, so the watch is on the
// directory and filtered by name. Returns a channel the caller closes to stop
// the watcher.
func watchConfig(configPath string, portOverride int, srv *api.Server) chan struct{} {
	done := make(chan struct{})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnf("config watcher unavailable: %v", err)
		return done
	}

	dir := filepath.Dir(configPath)
	if err = watcher.Add(dir); err != nil {
		log.Warnf("cannot watch %s: %v", dir, err)
		_ = watcher.Close()
		return done
	}
	target := filepath.Clean(configPath)

	go func() {
		defer func() { _ = watcher.Close() }()

		// Coalesce bursts of write events into one reload.
		var pending *time.Timer
		reload := func() {
			cfg, errLoad := config.LoadConfig(target)
			if errLoad != nil {
				log.Errorf("config reload failed: %v", errLoad)
				return
			}
			if portOverride > 0 {
				cfg.Port = portOverride
			}
			if errValidate := cfg.Validate(); errValidate != nil {
				log.Errorf("config reload rejected: %v", errValidate)
				return
			}
			srv.ReloadConfig(cfg)
		}

		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(300*time.Millisecond, reload)
			case errWatch, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if errWatch != nil && !strings.Contains(errWatch.Error(), "overflow") {
					log.Warnf("config watcher error: %v", errWatch)
				}
			}
		}
	}()

	return done
}
