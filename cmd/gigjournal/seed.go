package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gigjournal/internal/app/artists"
	"gigjournal/internal/app/users"
	"gigjournal/internal/models"
	"gigjournal/internal/store"
)

var (
	seedDemoEmail    string
	seedDemoPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load default genres, sample artists and an optional demo user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		db, err := openDatabase(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		dataStore := store.New(db)
		if err := seedCatalog(cmd.Context(), dataStore); err != nil {
			return err
		}

		if seedDemoEmail == "" {
			return nil
		}
		userSvc := users.New(dataStore, users.NewTokenManager(cfg.Security.JWTSecret), users.Options{
			SessionTTL: cfg.Security.SessionTTL,
		})
		return seedDemoUser(cmd.Context(), userSvc, seedDemoEmail, seedDemoPassword)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedDemoEmail, "demo-email", "", "Create a demo user with this email")
	seedCmd.Flags().StringVar(&seedDemoPassword, "demo-password", "demo-password", "Password for the demo user")
}

var defaultGenres = []string{"rock", "pop", "jazz", "hip hop", "electronic", "country", "metal", "indie"}

// Spotify ids of the sample artists.
var sampleArtists = []struct {
	id     string
	name   string
	genres []string
}{
	{id: "1dfeR4HaWDbWqFHLkxsg1d", name: "Queen", genres: []string{"rock"}},
	{id: "3WrFJ7ztbogyGnTHbHJFl2", name: "The Beatles", genres: []string{"rock", "pop"}},
	{id: "0kbYTNQb4Pb1rPbbaF0pT4", name: "Miles Davis", genres: []string{"jazz"}},
	{id: "06HL4z0CvFAxyc27GXpf02", name: "Taylor Swift", genres: []string{"pop", "country"}},
	{id: "4tZwfgrHOc3mvqYlEYSvVi", name: "Daft Punk", genres: []string{"electronic"}},
}

// catalogStore is what seedCatalog writes through.
type catalogStore interface {
	artists.GenreStore
	CreateArtist(ctx context.Context, artist models.Artist) error
}

// seedCatalog is idempotent: existing genres, artists and links are kept.
func seedCatalog(ctx context.Context, st catalogStore) error {
	linker := artists.NewLinker(st)

	for _, name := range defaultGenres {
		if _, err := st.CreateGenre(ctx, name); err != nil && !errors.Is(err, store.ErrGenreExists) {
			return fmt.Errorf("seed genre %q: %w", name, err)
		}
	}

	for _, a := range sampleArtists {
		err := st.CreateArtist(ctx, models.Artist{ID: a.id, Name: a.name})
		if err != nil && !errors.Is(err, store.ErrArtistExists) {
			return fmt.Errorf("seed artist %q: %w", a.name, err)
		}
		for _, g := range a.genres {
			if res := linker.Link(ctx, g, a.id); res.Err != nil {
				return fmt.Errorf("seed artist %q genre %q: %w", a.name, g, res.Err)
			}
		}
	}

	log.Info().
		Int("genres", len(defaultGenres)).
		Int("artists", len(sampleArtists)).
		Msg("Catalog seeded")
	return nil
}

func seedDemoUser(ctx context.Context, userSvc users.Service, email, password string) error {
	_, err := userSvc.Register(ctx, users.RegisterInput{
		Email:       email,
		Password:    password,
		DisplayName: "Demo",
	})
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		log.Info().Str("email", email).Msg("Demo user already exists")
		return nil
	case err != nil:
		return fmt.Errorf("seed demo user: %w", err)
	}
	log.Info().Str("email", email).Msg("Demo user created")
	return nil
}
