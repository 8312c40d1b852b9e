package genres

import (
	"context"
	"errors"
	"strings"

	"gigjournal/internal/apperr"
	"gigjournal/internal/models"
	"gigjournal/internal/store"
)

// Store defines persistence operations for genres.
type Store interface {
	ListGenres(ctx context.Context) ([]models.Genre, error)
	GetGenre(ctx context.Context, id int64) (models.GenreDetail, error)
	FindGenreByName(ctx context.Context, name string) (models.Genre, error)
	CreateGenre(ctx context.Context, name string) (models.Genre, error)
	RenameGenre(ctx context.Context, id int64, name string) (models.Genre, error)
	DeleteGenre(ctx context.Context, id int64) error
}

// Service coordinates genre operations.
type Service interface {
	List(ctx context.Context) ([]models.Genre, error)
	Get(ctx context.Context, id int64) (models.GenreDetail, error)
	Create(ctx context.Context, name string) (models.Genre, error)
	Rename(ctx context.Context, id int64, name string) (models.Genre, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	store Store
}

// New constructs a genres Service.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context) ([]models.Genre, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListGenres(ctx)
}

func (s *service) Get(ctx context.Context, id int64) (models.GenreDetail, error) {
	if err := ctx.Err(); err != nil {
		return models.GenreDetail{}, err
	}
	return s.store.GetGenre(ctx, id)
}

// Create stores a new genre. Names are unique ignoring case and stored lowercase.
func (s *service) Create(ctx context.Context, name string) (models.Genre, error) {
	if err := ctx.Err(); err != nil {
		return models.Genre{}, err
	}

	name, err := validName(name)
	if err != nil {
		return models.Genre{}, err
	}

	_, err = s.store.FindGenreByName(ctx, name)
	switch {
	case err == nil:
		return models.Genre{}, store.ErrGenreExists
	case !errors.Is(err, apperr.ErrNotFound):
		return models.Genre{}, err
	}
	return s.store.CreateGenre(ctx, name)
}

func (s *service) Rename(ctx context.Context, id int64, name string) (models.Genre, error) {
	if err := ctx.Err(); err != nil {
		return models.Genre{}, err
	}

	name, err := validName(name)
	if err != nil {
		return models.Genre{}, err
	}

	existing, err := s.store.FindGenreByName(ctx, name)
	switch {
	case err == nil && existing.ID != id:
		return models.Genre{}, store.ErrGenreExists
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return models.Genre{}, err
	}
	return s.store.RenameGenre(ctx, id, name)
}

// Delete removes a genre that no artist is linked to.
func (s *service) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteGenre(ctx, id)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("name", "genre name is required")
	}
	if len(name) > 100 {
		return "", apperr.Invalid("name", "genre name must be at most 100 characters")
	}
	return name, nil
}
