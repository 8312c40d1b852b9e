package models

import "time"

// Concert is a show a user attended.
type Concert struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	Venue         string    `json:"venue"`
	City          string    `json:"city"`
	Rating        *int      `json:"rating"` // 1-5 when set
	Notes         *string   `json:"notes"`
	UserProfileID string    `json:"userProfileId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Populated via JOIN queries
	UserProfile *UserProfile    `json:"userProfile,omitempty"`
	Artists     []ConcertArtist `json:"concertArtists"`
}

// ConcertArtist links an artist to a concert with the role they played.
type ConcertArtist struct {
	ConcertID int64   `json:"concertId"`
	ArtistID  string  `json:"artistId"`
	Role      string  `json:"role"`
	Artist    *Artist `json:"artist,omitempty"`
}

// ConcertFilter narrows concert listings.
type ConcertFilter struct {
	UserProfileID string
}
