package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MediaKind discriminates movies from TV shows
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindTV     MediaKind = "tv"
	KindPerson MediaKind = "person"
)

// ParseMediaKind accepts the API spellings of a kind
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, nil
	case "tv", "show", "shows", "series":
		return KindTV, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// IsTitle reports whether the kind is a displayable movie or show
func (k MediaKind) IsTitle() bool {
	return k == KindMovie || k == KindTV
}

// MediaItem is a movie or TV show normalized for display
type MediaItem struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	PosterPath   string    `json:"poster_path,omitempty"`
	BackdropPath string    `json:"backdrop_path,omitempty"`
	Rating       float64   `json:"rating"`
	VoteCount    int64     `json:"vote_count,omitempty"`
	Popularity   float64   `json:"popularity,omitempty"`
	Date         string    `json:"date,omitempty"`
	Overview     string    `json:"overview"`
	GenreIDs     []int64   `json:"genre_ids,omitempty"`
	Kind         MediaKind `json:"kind"`
}

// Key identifies an item across kinds; TMDB movie and TV ids share a number space.
func (m *MediaItem) Key() string {
	return string(m.Kind) + ":" + strconv.FormatInt(m.ID, 10)
}

// Year returns the year part of Date, or 0 when unknown
func (m *MediaItem) Year() int {
	if len(m.Date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.Date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Page is one page of a listing or search
type Page struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Items        []MediaItem `json:"items"`
}

// Titles drops non-title entries such as people from a multi search page
func (p *Page) Titles() []MediaItem {
	items := make([]MediaItem, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Kind.IsTitle() {
			items = append(items, item)
		}
	}
	return items
}

// Genre is a TMDB genre
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GenreNames returns the genre names in order
func GenreNames(genres []Genre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}
