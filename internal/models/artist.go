package models

// Artist is a performer keyed by its Spotify id.
type Artist struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
	Genres   []Genre `json:"genres"`
}
