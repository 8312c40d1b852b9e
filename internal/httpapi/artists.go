package httpapi

import (
	"net/http"
	"strings"

	"gigjournal/internal/app/artists"
	"gigjournal/internal/apperr"
	"gigjournal/internal/models"
)

type artistRequest struct {
	Name string `json:"name"`
}

// artistResponse is the stored artist plus how it was resolved.
type artistResponse struct {
	models.Artist
	Source       artists.Source `json:"source"`
	FailedGenres []string       `json:"failedGenres,omitempty"`
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	list, err := s.artists.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, list)
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, apperr.Invalid("id", "invalid id"))
		return
	}

	artist, err := s.artists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, artist)
}

// handleFindOrCreateArtist answers 201 when the artist was imported and 200
// when it was already stored.
func (s *Server) handleFindOrCreateArtist(w http.ResponseWriter, r *http.Request) {
	var req artistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.artists.FindOrCreate(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Source == artists.SourceCreated {
		status = http.StatusCreated
	}
	writeData(w, status, artistResponse{
		Artist:       res.Artist,
		Source:       res.Source,
		FailedGenres: res.GenreFailures(),
	})
}

func (s *Server) handleDeleteArtist(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, apperr.Invalid("id", "invalid id"))
		return
	}

	if err := s.artists.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
