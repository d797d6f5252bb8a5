package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/semcore/semmem/internal/config"
	"github.com/semcore/semmem/internal/engine"
	"github.com/semcore/semmem/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "semmem",
	Short: "Semantic memory engine",
	Long:  "Semmem compresses text into semantic kernels and stores them in a local associative memory. Single Go binary, local SQLite storage.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(forgetCmd)
}

// resolveDBPath picks the database location: SEMMEM_DB env wins, then the
// config file, then the per-user default.
func resolveDBPath(cfg config.Config) (string, error) {
	if p := os.Getenv("SEMMEM_DB"); p != "" {
		return p, nil
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	return store.DefaultDBPath()
}

// openMemory loads config, opens the store, and builds the engine. The
// caller closes the returned db and stops the memory.
func openMemory() (*store.DB, *engine.Memory, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, cfg, err
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("resolve db path: %w", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("open database: %w", err)
	}

	mem, err := engine.New(db, engine.Options{
		Language:          cfg.Memory.Language,
		AutoConnect:       engine.AutoConnectMode(cfg.Memory.AutoConnect),
		CacheEntries:      cfg.Memory.CacheEntries,
		RetentionMaxAge:   cfg.Memory.RetentionMaxAge,
		RetentionMinScore: cfg.Memory.RetentionMinScore,
		RetentionInterval: cfg.RetentionInterval(),
	})
	if err != nil {
		db.Close()
		return nil, nil, cfg, err
	}
	return db, mem, cfg, nil
}
