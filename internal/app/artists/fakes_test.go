package artists

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"gigjournal/internal/models"
	"gigjournal/internal/musicapi"
	"gigjournal/internal/store"
)

// memStore is an in-memory stand-in for the Postgres store.
type memStore struct {
	mu          sync.Mutex
	artists     map[string]models.Artist
	genres      []models.Genre
	links       map[string]map[int64]bool
	concertRefs map[string]int

	// beforeCreateArtist and beforeCreateGenre run inside the create
	// calls, letting tests simulate a concurrent writer.
	beforeCreateArtist func(models.Artist)
	beforeCreateGenre  func(name string)
	createGenreErr     map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		artists:     map[string]models.Artist{},
		links:       map[string]map[int64]bool{},
		concertRefs: map[string]int{},
	}
}

func (m *memStore) withGenres(a models.Artist) models.Artist {
	a.Genres = []models.Genre{}
	for _, g := range m.genres {
		if m.links[a.ID][g.ID] {
			a.Genres = append(a.Genres, g)
		}
	}
	sort.Slice(a.Genres, func(i, j int) bool { return a.Genres[i].Name < a.Genres[j].Name })
	return a
}

func (m *memStore) ListArtists(ctx context.Context) ([]models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Artist{}
	for _, a := range m.artists {
		out = append(out, m.withGenres(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetArtist(ctx context.Context, id string) (models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artists[id]
	if !ok {
		return models.Artist{}, store.ErrArtistNotFound
	}
	return m.withGenres(a), nil
}

func (m *memStore) FindArtistByName(ctx context.Context, name string) (models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []models.Artist
	for _, a := range m.artists {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(name)) {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return models.Artist{}, store.ErrArtistNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID < matches[j].ID
	})
	return m.withGenres(matches[0]), nil
}

func (m *memStore) CreateArtist(ctx context.Context, artist models.Artist) error {
	if m.beforeCreateArtist != nil {
		m.beforeCreateArtist(artist)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artists[artist.ID]; ok {
		return store.ErrArtistExists
	}
	artist.Genres = nil
	m.artists[artist.ID] = artist
	return nil
}

func (m *memStore) DeleteArtist(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artists[id]; !ok {
		return store.ErrArtistNotFound
	}
	if m.concertRefs[id] > 0 {
		return store.ErrArtistInUse
	}
	delete(m.artists, id)
	delete(m.links, id)
	return nil
}

func (m *memStore) FindGenreByName(ctx context.Context, name string) (models.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.genres {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return models.Genre{}, store.ErrGenreNotFound
}

func (m *memStore) CreateGenre(ctx context.Context, name string) (models.Genre, error) {
	if m.beforeCreateGenre != nil {
		m.beforeCreateGenre(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createGenreErr[strings.ToLower(name)]; err != nil {
		return models.Genre{}, err
	}
	for _, g := range m.genres {
		if strings.EqualFold(g.Name, name) {
			return models.Genre{}, store.ErrGenreExists
		}
	}
	g := models.Genre{ID: int64(len(m.genres) + 1), Name: strings.ToLower(name)}
	m.genres = append(m.genres, g)
	return g, nil
}

func (m *memStore) ArtistGenreExists(ctx context.Context, artistID string, genreID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[artistID][genreID], nil
}

func (m *memStore) LinkArtistGenre(ctx context.Context, artistID string, genreID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[artistID] == nil {
		m.links[artistID] = map[int64]bool{}
	}
	if m.links[artistID][genreID] {
		return false, nil
	}
	m.links[artistID][genreID] = true
	return true, nil
}

func (m *memStore) linkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, genres := range m.links {
		n += len(genres)
	}
	return n
}

// fakeSearcher answers searches from a fixed catalogue keyed by lowercase name.
type fakeSearcher struct {
	mu      sync.Mutex
	catalog map[string]musicapi.Artist
	err     error
	calls   int
}

func (f *fakeSearcher) SearchArtist(ctx context.Context, query string) (musicapi.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return musicapi.Artist{}, f.err
	}
	a, ok := f.catalog[strings.ToLower(query)]
	if !ok {
		return musicapi.Artist{}, musicapi.ErrNotFound
	}
	return a, nil
}

var errBoom = errors.New("boom")

func queenCatalog() *fakeSearcher {
	return &fakeSearcher{catalog: map[string]musicapi.Artist{
		"queen": {
			ExternalID: "1dfeR4HaWDbWqFHLkxsg1d",
			Name:       "Queen",
			ImageURL:   "https://i.scdn.co/queen.jpg",
			Genres:     []string{"classic rock", "glam rock", "Rock"},
		},
		"queen band": {
			ExternalID: "1dfeR4HaWDbWqFHLkxsg1d",
			Name:       "Queen",
			Genres:     []string{"rock"},
		},
		"miles davis": {
			ExternalID: "0kbYTNQb4Pb1rPbbaF0pT4",
			Name:       "Miles Davis",
			Genres:     []string{"jazz", "bebop", "cool jazz"},
		},
	}}
}
