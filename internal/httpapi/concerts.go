package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gigjournal/internal/app/concerts"
	"gigjournal/internal/apperr"
	"gigjournal/internal/models"
)

// Accepted date layouts, most specific first. Layouts without a zone,
// including the browser's datetime-local form, are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type concertArtistRequest struct {
	Name     string `json:"name"`
	ArtistID string `json:"artistId"`
	Role     string `json:"role"`
}

type concertRequest struct {
	Date          string                  `json:"date"`
	Venue         string                  `json:"venue"`
	City          string                  `json:"city"`
	Rating        *int                    `json:"rating"`
	Notes         *string                 `json:"notes"`
	UserProfileID string                  `json:"userProfileId"`
	Artists       *[]concertArtistRequest `json:"artists"`
}

// input converts the request for the session user. An absent artists key
// maps to a nil slice; an explicit [] clears the lineup.
func (req concertRequest) input(userID string) (concerts.Input, error) {
	if req.UserProfileID != "" && req.UserProfileID != userID {
		return concerts.Input{}, fmt.Errorf("%w: userProfileId does not match the signed-in user", apperr.ErrForbidden)
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return concerts.Input{}, err
	}

	in := concerts.Input{
		Date:   date,
		Venue:  req.Venue,
		City:   req.City,
		Rating: req.Rating,
		Notes:  req.Notes,
	}
	if req.Artists != nil {
		in.Artists = make([]concerts.ArtistInput, 0, len(*req.Artists))
		for _, a := range *req.Artists {
			in.Artists = append(in.Artists, concerts.ArtistInput{
				Name:     a.Name,
				ArtistID: a.ArtistID,
				Role:     a.Role,
			})
		}
	}
	return in, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperr.Invalid("date", "date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Invalid("date", "date must be RFC 3339, YYYY-MM-DDTHH:MM[:SS] or YYYY-MM-DD")
}

func (s *Server) handleListConcerts(w http.ResponseWriter, r *http.Request) {
	filter := models.ConcertFilter{
		UserProfileID: strings.TrimSpace(r.URL.Query().Get("userProfileId")),
	}
	if filter.UserProfileID != "" {
		if _, err := uuid.Parse(filter.UserProfileID); err != nil {
			writeError(w, r, apperr.Invalid("userProfileId", "userProfileId must be a UUID"))
			return
		}
	}

	list, err := s.concerts.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, list)
}

func (s *Server) handleGetConcert(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	concert, err := s.concerts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, concert)
}

func (s *Server) handleCreateConcert(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req concertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	concert, err := s.concerts.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, concert)
}

func (s *Server) handleUpdateConcert(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req concertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	concert, err := s.concerts.Update(r.Context(), user.ID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, concert)
}

func (s *Server) handleDeleteConcert(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.concerts.Delete(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
