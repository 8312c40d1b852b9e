package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gigjournal/internal/app/artists"
	"gigjournal/internal/app/concerts"
	"gigjournal/internal/app/users"
	"gigjournal/internal/apperr"
	"gigjournal/internal/logging"
	"gigjournal/internal/models"
)

const maxBodyBytes = 1 << 20

// GenreService describes genre catalogue workflows.
type GenreService interface {
	List(ctx context.Context) ([]models.Genre, error)
	Get(ctx context.Context, id int64) (models.GenreDetail, error)
	Create(ctx context.Context, name string) (models.Genre, error)
	Rename(ctx context.Context, id int64, name string) (models.Genre, error)
	Delete(ctx context.Context, id int64) error
}

// ArtistService describes artist catalogue workflows.
type ArtistService interface {
	List(ctx context.Context) ([]models.Artist, error)
	Get(ctx context.Context, id string) (models.Artist, error)
	FindOrCreate(ctx context.Context, name string) (artists.Resolution, error)
	Delete(ctx context.Context, id string) error
}

// ConcertService coordinates concert-related operations.
type ConcertService interface {
	List(ctx context.Context, filter models.ConcertFilter) ([]models.Concert, error)
	Get(ctx context.Context, id int64) (models.Concert, error)
	Create(ctx context.Context, userID string, in concerts.Input) (models.Concert, error)
	Update(ctx context.Context, userID string, id int64, in concerts.Input) (models.Concert, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (models.UserProfile, error)
	Login(ctx context.Context, email, password string) (users.LoginResult, error)
	Authenticate(ctx context.Context, token string) (models.UserProfile, error)
	Logout(ctx context.Context, token string) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	genres   GenreService
	artists  ArtistService
	concerts ConcertService
	users    UserService
}

// New configures a Server.
func New(genres GenreService, artists ArtistService, concerts ConcertService, users UserService) *Server {
	return &Server{
		genres:   genres,
		artists:  artists,
		concerts: concerts,
		users:    users,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Genre routes
	mux.HandleFunc("GET /api/v1/genres", s.handleListGenres)
	mux.HandleFunc("POST /api/v1/genres", s.authenticated(s.handleCreateGenre))
	mux.HandleFunc("GET /api/v1/genres/{id}", s.handleGetGenre)
	mux.HandleFunc("PUT /api/v1/genres/{id}", s.authenticated(s.handleRenameGenre))
	mux.HandleFunc("DELETE /api/v1/genres/{id}", s.authenticated(s.handleDeleteGenre))

	// Artist routes
	mux.HandleFunc("GET /api/v1/artists", s.handleListArtists)
	mux.HandleFunc("POST /api/v1/artists", s.authenticated(s.handleFindOrCreateArtist))
	mux.HandleFunc("GET /api/v1/artists/{id}", s.handleGetArtist)
	mux.HandleFunc("DELETE /api/v1/artists/{id}", s.authenticated(s.handleDeleteArtist))

	// Concert routes
	mux.HandleFunc("GET /api/v1/concerts", s.handleListConcerts)
	mux.HandleFunc("POST /api/v1/concerts", s.authenticated(s.handleCreateConcert))
	mux.HandleFunc("GET /api/v1/concerts/{id}", s.handleGetConcert)
	mux.HandleFunc("PUT /api/v1/concerts/{id}", s.authenticated(s.handleUpdateConcert))
	mux.HandleFunc("DELETE /api/v1/concerts/{id}", s.authenticated(s.handleDeleteConcert))

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", s.authenticated(s.handleMe))

	return mux
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Count: &n})
}

func writeNoContent(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// writeError maps err onto a status code. Internal errors are logged and
// reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	msg := err.Error()

	var verr apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		msg = verr.Error()
	case status == http.StatusInternalServerError:
		logging.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		msg = "internal server error"
	case status == http.StatusServiceUnavailable:
		logging.WithContext(r.Context()).Warn().Err(err).Msg("upstream unavailable")
		msg = "music catalogue unavailable"
	}

	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Invalid("", "request body is required")
		case errors.As(err, &maxErr):
			return apperr.Invalid("", "request body too large")
		default:
			return apperr.Invalid("", fmt.Sprintf("invalid JSON payload: %v", err))
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Invalid("", "request body must contain a single JSON object")
	}
	return nil
}

func parseBearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", apperr.ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: invalid authorization header", apperr.ErrUnauthorized)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", apperr.ErrUnauthorized)
	}
	return token, nil
}

type userKey struct{}

// authenticated resolves the bearer token to a user before calling next.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := parseBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := logging.WithUserID(r.Context(), user.ID)
		ctx = context.WithValue(ctx, userKey{}, user)
		next(w, r.WithContext(ctx))
	}
}

func currentUser(ctx context.Context) models.UserProfile {
	user, _ := ctx.Value(userKey{}).(models.UserProfile)
	return user
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("id", "invalid id")
	}
	return id, nil
}
