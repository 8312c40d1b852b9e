package genres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gigjournal/internal/apperr"
	"gigjournal/internal/models"
	"gigjournal/internal/store"
)

type stubStore struct {
	genres []models.Genre
	inUse  map[int64]bool
	calls  []string
}

func (s *stubStore) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return s.genres, nil
}

func (s *stubStore) GetGenre(ctx context.Context, id int64) (models.GenreDetail, error) {
	for _, g := range s.genres {
		if g.ID == id {
			return models.GenreDetail{Genre: g, Artists: []models.ArtistRef{}}, nil
		}
	}
	return models.GenreDetail{}, store.ErrGenreNotFound
}

func (s *stubStore) FindGenreByName(ctx context.Context, name string) (models.Genre, error) {
	for _, g := range s.genres {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return models.Genre{}, store.ErrGenreNotFound
}

func (s *stubStore) CreateGenre(ctx context.Context, name string) (models.Genre, error) {
	s.calls = append(s.calls, "create")
	g := models.Genre{ID: int64(len(s.genres) + 1), Name: strings.ToLower(name)}
	s.genres = append(s.genres, g)
	return g, nil
}

func (s *stubStore) RenameGenre(ctx context.Context, id int64, name string) (models.Genre, error) {
	s.calls = append(s.calls, "rename")
	for i, g := range s.genres {
		if g.ID == id {
			s.genres[i].Name = strings.ToLower(name)
			return s.genres[i], nil
		}
	}
	return models.Genre{}, store.ErrGenreNotFound
}

func (s *stubStore) DeleteGenre(ctx context.Context, id int64) error {
	if s.inUse[id] {
		return store.ErrGenreInUse
	}
	for i, g := range s.genres {
		if g.ID == id {
			s.genres = append(s.genres[:i], s.genres[i+1:]...)
			return nil
		}
	}
	return store.ErrGenreNotFound
}

func TestCreate(t *testing.T) {
	st := &stubStore{genres: []models.Genre{{ID: 1, Name: "rock"}}}
	svc := New(st)
	ctx := context.Background()

	g, err := svc.Create(ctx, "  Jazz  ")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if g.Name != "jazz" {
		t.Fatalf("expected lowercase name, got %q", g.Name)
	}

	if _, err := svc.Create(ctx, "ROCK"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for case-insensitive duplicate, got %v", err)
	}
	if _, err := svc.Create(ctx, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(st.genres) != 2 {
		t.Fatalf("expected 2 genres, got %#v", st.genres)
	}
}

func TestRename(t *testing.T) {
	st := &stubStore{genres: []models.Genre{{ID: 1, Name: "rock"}, {ID: 2, Name: "jazz"}}}
	svc := New(st)
	ctx := context.Background()

	if _, err := svc.Rename(ctx, 2, "Rock"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if g, err := svc.Rename(ctx, 1, "ROCK"); err != nil || g.Name != "rock" {
		t.Fatalf("renaming to own name should succeed, got %#v, %v", g, err)
	}
	if _, err := svc.Rename(ctx, 9, "blues"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	st := &stubStore{
		genres: []models.Genre{{ID: 1, Name: "rock"}, {ID: 2, Name: "jazz"}},
		inUse:  map[int64]bool{1: true},
	}
	svc := New(st)
	ctx := context.Background()

	if err := svc.Delete(ctx, 1); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for linked genre, got %v", err)
	}
	if err := svc.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := svc.Delete(ctx, 2); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(&stubStore{}).List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
