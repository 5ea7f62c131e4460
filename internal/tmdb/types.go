// Package tmdb provides a client for The Movie Database API.
package tmdb

import "strconv"

// Movie represents TMDB movie metadata.
type Movie struct {
	ID          int64  `json:"id"`
	IMDBID      string `json:"imdb_id,omitempty"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"` // "2024-03-01"
	PosterPath  string `json:"poster_path"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	return yearOf(m.ReleaseDate)
}

// TV represents TMDB series metadata.
type TV struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Overview        string `json:"overview"`
	FirstAirDate    string `json:"first_air_date"`
	NumberOfSeasons int    `json:"number_of_seasons"`
	PosterPath      string `json:"poster_path"`
}

// Year extracts the year from FirstAirDate.
func (t *TV) Year() int {
	return yearOf(t.FirstAirDate)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
