package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/config"
	"github.com/personapro/enrich/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "personapro",
	Short: "Company and client enrichment service",
	Long:  "Enriches companies and clients from LLM and structured providers, compares sources, and answers questions over the gathered data.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newStore opens the configured database backend.
func newStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
