package tmdb

import (
	"strings"

	"github.com/amaumene/cinesift/pkg/models"
)

// rawItem covers both result shapes: movies carry title/release_date,
// shows carry name/first_air_date. media_type is only set by multi search
// and trending "all".
type rawItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	GenreIDs     []int64 `json:"genre_ids"`
	MediaType    string  `json:"media_type"`
}

// kind resolves the item kind, trusting media_type over the endpoint hint
func (r *rawItem) kind(hint models.MediaKind) models.MediaKind {
	switch strings.ToLower(r.MediaType) {
	case "movie":
		return models.KindMovie
	case "tv":
		return models.KindTV
	case "person":
		return models.KindPerson
	case "":
		return hint
	default:
		return models.MediaKind(r.MediaType)
	}
}

// toMediaItem normalizes either shape into a MediaItem
func (r *rawItem) toMediaItem(hint models.MediaKind) models.MediaItem {
	item := models.MediaItem{
		ID:           r.ID,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		Rating:       clampRating(r.VoteAverage),
		VoteCount:    r.VoteCount,
		Popularity:   r.Popularity,
		Overview:     r.Overview,
		GenreIDs:     r.GenreIDs,
		Kind:         r.kind(hint),
	}

	if item.Kind == models.KindTV {
		item.Title = firstNonEmpty(r.Name, r.Title)
		item.Date = firstNonEmpty(r.FirstAirDate, r.ReleaseDate)
	} else {
		item.Title = firstNonEmpty(r.Title, r.Name)
		item.Date = firstNonEmpty(r.ReleaseDate, r.FirstAirDate)
	}
	return item
}

type pageResponse struct {
	Page         int       `json:"page"`
	Results      []rawItem `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}

func (p *pageResponse) toPage(hint models.MediaKind) *models.Page {
	page := &models.Page{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Items:        make([]models.MediaItem, 0, len(p.Results)),
	}
	for i := range p.Results {
		page.Items = append(page.Items, p.Results[i].toMediaItem(hint))
	}
	return page
}

type movieDetailsResponse struct {
	rawItem
	Runtime             int                        `json:"runtime"`
	Budget              int64                      `json:"budget"`
	Revenue             int64                      `json:"revenue"`
	Status              string                     `json:"status"`
	Tagline             string                     `json:"tagline"`
	Genres              []models.Genre             `json:"genres"`
	SpokenLanguages     []models.SpokenLanguage    `json:"spoken_languages"`
	ProductionCompanies []models.ProductionCompany `json:"production_companies"`
	ProductionCountries []models.ProductionCountry `json:"production_countries"`
}

func (r *movieDetailsResponse) toModel() *models.MovieDetails {
	details := &models.MovieDetails{
		MediaItem:           r.rawItem.toMediaItem(models.KindMovie),
		Runtime:             r.Runtime,
		Budget:              r.Budget,
		Revenue:             r.Revenue,
		Status:              r.Status,
		Tagline:             r.Tagline,
		Genres:              r.Genres,
		SpokenLanguages:     r.SpokenLanguages,
		ProductionCompanies: r.ProductionCompanies,
		ProductionCountries: r.ProductionCountries,
	}
	details.Kind = models.KindMovie
	details.GenreIDs = genreIDs(r.Genres)
	return details
}

type tvDetailsResponse struct {
	rawItem
	NumberOfSeasons     int                        `json:"number_of_seasons"`
	NumberOfEpisodes    int                        `json:"number_of_episodes"`
	EpisodeRunTime      []int                      `json:"episode_run_time"`
	Status              string                     `json:"status"`
	Tagline             string                     `json:"tagline"`
	Type                string                     `json:"type"`
	LastAirDate         string                     `json:"last_air_date"`
	InProduction        bool                       `json:"in_production"`
	Genres              []models.Genre             `json:"genres"`
	CreatedBy           []models.Creator           `json:"created_by"`
	SpokenLanguages     []models.SpokenLanguage    `json:"spoken_languages"`
	ProductionCompanies []models.ProductionCompany `json:"production_companies"`
	ProductionCountries []models.ProductionCountry `json:"production_countries"`
}

func (r *tvDetailsResponse) toModel() *models.TVDetails {
	details := &models.TVDetails{
		MediaItem:           r.rawItem.toMediaItem(models.KindTV),
		NumberOfSeasons:     r.NumberOfSeasons,
		NumberOfEpisodes:    r.NumberOfEpisodes,
		EpisodeRunTime:      r.EpisodeRunTime,
		Status:              r.Status,
		Tagline:             r.Tagline,
		Type:                r.Type,
		LastAirDate:         r.LastAirDate,
		InProduction:        r.InProduction,
		Genres:              r.Genres,
		CreatedBy:           r.CreatedBy,
		SpokenLanguages:     r.SpokenLanguages,
		ProductionCompanies: r.ProductionCompanies,
		ProductionCountries: r.ProductionCountries,
	}
	details.Kind = models.KindTV
	details.GenreIDs = genreIDs(r.Genres)
	return details
}

type genreListResponse struct {
	Genres []models.Genre `json:"genres"`
}

type videosResponse struct {
	ID      int64          `json:"id"`
	Results []models.Video `json:"results"`
}

func genreIDs(genres []models.Genre) []int64 {
	ids := make([]int64, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}

func clampRating(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
