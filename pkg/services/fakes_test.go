package services

import (
	"context"
	"sync"

	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/models"
)

// fakeMetadata is an in-memory MetadataClient. Errors set in errs are
// returned by the method of the same name.
type fakeMetadata struct {
	mu         sync.Mutex
	configured bool
	errs       map[string]error
	// failures makes a method fail this many times before succeeding
	failures map[string]int
	calls    map[string]int

	page     *models.Page
	movie    *models.MovieDetails
	show     *models.TVDetails
	credits  *models.Credits
	videos   []models.Video
	genres   []models.Genre
	imageURL string
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{
		configured: true,
		errs:       map[string]error{},
		failures:   map[string]int{},
		calls:      map[string]int{},
		page:       &models.Page{Page: 1, TotalPages: 1},
	}
}

func (f *fakeMetadata) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if !f.configured {
		return errors.NotConfigured("tmdb")
	}
	if n := f.failures[method]; n > 0 {
		f.failures[method] = n - 1
		return errors.ErrNetworkOperation
	}
	return f.errs[method]
}

func (f *fakeMetadata) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeMetadata) copyPage() *models.Page {
	page := *f.page
	page.Items = append([]models.MediaItem(nil), f.page.Items...)
	return &page
}

func (f *fakeMetadata) pageFor(method string) (*models.Page, error) {
	if err := f.record(method); err != nil {
		return nil, err
	}
	return f.copyPage(), nil
}

func (f *fakeMetadata) IsConfigured() bool { return f.configured }

func (f *fakeMetadata) SearchMovies(ctx context.Context, query string, page int) (*models.Page, error) {
	return f.pageFor("SearchMovies")
}

func (f *fakeMetadata) SearchTV(ctx context.Context, query string, page int) (*models.Page, error) {
	return f.pageFor("SearchTV")
}

func (f *fakeMetadata) SearchMulti(ctx context.Context, query string, page int) (*models.Page, error) {
	return f.pageFor("SearchMulti")
}

func (f *fakeMetadata) Trending(ctx context.Context, kind models.MediaKind, window string) (*models.Page, error) {
	return f.pageFor("Trending")
}

func (f *fakeMetadata) Movies(ctx context.Context, list string, page int) (*models.Page, error) {
	return f.pageFor("Movies")
}

func (f *fakeMetadata) TV(ctx context.Context, list string, page int) (*models.Page, error) {
	return f.pageFor("TV")
}

func (f *fakeMetadata) Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error) {
	if err := f.record("Genres"); err != nil {
		return nil, err
	}
	return f.genres, nil
}

func (f *fakeMetadata) MovieDetails(ctx context.Context, id int64) (*models.MovieDetails, error) {
	if err := f.record("MovieDetails"); err != nil {
		return nil, err
	}
	return f.movie, nil
}

func (f *fakeMetadata) TVDetails(ctx context.Context, id int64) (*models.TVDetails, error) {
	if err := f.record("TVDetails"); err != nil {
		return nil, err
	}
	return f.show, nil
}

func (f *fakeMetadata) Credits(ctx context.Context, id int64, kind models.MediaKind) (*models.Credits, error) {
	if err := f.record("Credits"); err != nil {
		return nil, err
	}
	return f.credits, nil
}

func (f *fakeMetadata) Videos(ctx context.Context, id int64, kind models.MediaKind) ([]models.Video, error) {
	if err := f.record("Videos"); err != nil {
		return nil, err
	}
	return f.videos, nil
}

func (f *fakeMetadata) Recommendations(ctx context.Context, id int64, kind models.MediaKind, page int) (*models.Page, error) {
	return f.pageFor("Recommendations")
}

func (f *fakeMetadata) Similar(ctx context.Context, id int64, kind models.MediaKind, page int) (*models.Page, error) {
	return f.pageFor("Similar")
}

func (f *fakeMetadata) ImageURL(path, size string) string {
	if path == "" {
		return "/placeholder-movie.png"
	}
	if f.imageURL != "" {
		return f.imageURL + "/" + size + path
	}
	return "https://image.example/" + size + path
}

// fakeCompleter replies with reply, or err, and remembers the last prompt
type fakeCompleter struct {
	mu         sync.Mutex
	reply      string
	err        error
	configured bool
	prompts    []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if !f.configured {
		return "", errors.NotConfigured("fake")
	}
	return f.reply, f.err
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeCompleter) Provider() string   { return "fake" }
func (f *fakeCompleter) IsConfigured() bool { return f.configured }
