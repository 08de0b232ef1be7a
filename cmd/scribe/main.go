package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/boltstore"
	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/db"
	"github.com/hpungsan/scribe/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// appEnv holds what a command needs once the base directory is known.
// It is populated lazily so that --help and --version never touch disk.
type appEnv struct {
	cfg   *config.Config
	store store.Store
	az    *auth.Authorizer
}

// open loads and validates configuration, then opens the configured store.
// A missing admin email fails here, before anything is served.
func (env *appEnv) open(baseDir string) error {
	if env.store != nil {
		return nil
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	az, err := auth.NewAuthorizer(cfg.AdminEmail)
	if err != nil {
		return err
	}

	st, err := openStore(baseDir, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}

	env.cfg, env.az, env.store = cfg, az, st
	return nil
}

func (env *appEnv) close() error {
	if env.store == nil {
		return nil
	}
	err := env.store.Close()
	env.store = nil
	return err
}

// openStore opens the post store selected by cfg.Backend.
func openStore(baseDir string, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		return boltstore.Open(baseDir)
	default:
		st, err := db.Open(baseDir)
		if err != nil {
			return nil, err
		}
		db.ConfigurePool(st.DB(), cfg)
		return st, nil
	}
}

// defaultBaseDir returns ~/.scribe, or "" if the home directory is unknown.
func defaultBaseDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".scribe")
}

func main() {
	app := newCLIApp(&appEnv{})
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
