package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gigjournal/internal/app/artists"
	"gigjournal/internal/app/concerts"
	"gigjournal/internal/app/genres"
	"gigjournal/internal/app/users"
	"gigjournal/internal/config"
	"gigjournal/internal/http/middleware"
	"gigjournal/internal/httpapi"
	"gigjournal/internal/musicapi"
	"gigjournal/internal/store"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if serveMigrate {
		if err := migrateUp(db); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newHTTPHandler(cfg, db),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Artist resolution may wait on Spotify for several lookups.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Bool("spotify_enabled", cfg.Spotify.Enabled()).
			Msg("API listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newHTTPHandler(cfg *config.Config, db *sql.DB) http.Handler {
	dataStore := store.New(db)

	spotifyCfg := musicapi.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     cfg.Spotify.TokenURL,
		APIURL:       cfg.Spotify.APIURL,
		Timeout:      cfg.Spotify.Timeout,
	}
	if !cfg.Spotify.Enabled() {
		log.Warn().Msg("Spotify credentials not provided, artist import disabled")
	}
	tokens := musicapi.NewTokenCache(dataStore, spotifyCfg)
	spotify := musicapi.NewSpotifyClient(tokens, spotifyCfg)

	// Base services
	genreSvc := genres.New(dataStore)
	userSvc := users.New(dataStore, users.NewTokenManager(cfg.Security.JWTSecret), users.Options{
		SessionTTL: cfg.Security.SessionTTL,
	})

	// Derived services
	resolver := artists.NewResolver(dataStore, spotify, artists.NewLinker(dataStore))
	artistSvc := artists.New(dataStore, resolver)
	concertSvc := concerts.New(dataStore, artistSvc, concerts.Options{
		ResolveConcurrency: cfg.Artists.ResolveConcurrency,
	})

	api := httpapi.New(genreSvc, artistSvc, concertSvc, userSvc)
	return middleware.Chain(api.Routes(),
		middleware.RequestLogging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
}
