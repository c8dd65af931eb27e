package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/api"
	"github.com/storymap/storymap/internal/chapter"
)

var (
	serveAddr    string
	serveOrigins []string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "Allowed CORS origins (default: any)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the story API and visualization over HTTP",
	Long: `Serve the repository over HTTP.

Routes:
  GET  /health
  GET  /viz?layout=&select=     interactive story graph
  POST /api/stories             upload a story's chapters
  GET  /api/chapters?owner=     list chapters (format=text for title: summary lines)
  GET  /api/graph               assembled graph as JSON
  GET  /api/selection           highlighted owner
  POST /api/selection           highlight an owner's chain

The server holds one selection shared by every client. /viz?select= highlights an
owner on that page only and leaves the shared selection alone. Uploaded chapters
are copied into the search cache as they are stored.

Examples:
  smap serve
  smap serve --addr 127.0.0.1:9000 -v`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	srv := api.NewServer(newService(repoRoot, cfg),
		api.WithLogger(logger),
		api.WithLayout(cfg.Layout),
		api.WithAllowedOrigins(serveOrigins...),
		api.WithOnStored(func(chapters []chapter.Chapter) {
			syncCache(repoRoot, chapters)
		}),
	)

	server := &http.Server{
		Addr:              serveAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", serveAddr).Str("repo", repoRoot).Msg("Listening")
		if humanOutput {
			outputHuman("Serving %s on %s\n", repoRoot, serveAddr)
		}
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			exitWithError(ExitError, "server failed: %v", err)
		}
		return nil
	case <-cmd.Context().Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		exitWithError(ExitError, "shutdown failed: %v", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
