package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/agent"
	"github.com/personapro/enrich/internal/credentials"
	"github.com/personapro/enrich/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := newStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		creds := credentials.NewResolver(st, map[string]string{
			credentials.ProviderOpenAI:     cfg.OpenAI.Key,
			credentials.ProviderPerplexity: cfg.Perplexity.Key,
			credentials.ProviderGemini:     cfg.Gemini.Key,
			credentials.ProviderApollo:     cfg.Apollo.Key,
		})

		var search agent.SemanticSearcher
		if cfg.Search.BaseURL != "" {
			search = agent.NewHTTPSearcher(cfg.Search.BaseURL)
		}

		handler := server.New(st, creds, server.DefaultProviders(cfg), search).Router()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
