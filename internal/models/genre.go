package models

// Genre is a lowercase music genre tag.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ArtistRef is the short artist form embedded in genre details.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GenreDetail is a genre together with the artists tagged with it.
type GenreDetail struct {
	Genre
	Artists []ArtistRef `json:"artists"`
}
