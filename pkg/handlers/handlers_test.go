package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/cinesift/pkg/discovery"
	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/metrics"
	"github.com/amaumene/cinesift/pkg/services"
	"github.com/amaumene/cinesift/pkg/tmdb"
)

type stubCompleter struct {
	mu         sync.Mutex
	reply      string
	err        error
	configured bool
	prompts    []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if !s.configured {
		return "", errors.NotConfigured("stub")
	}
	return s.reply, s.err
}

func (s *stubCompleter) Provider() string   { return "stub" }
func (s *stubCompleter) IsConfigured() bool { return s.configured }

func fakeTMDB(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/multi":
			if r.URL.Query().Get("query") == "Inception" {
				w.Write([]byte(`{"page":1,"results":[{"id":27205,"media_type":"movie","title":"Inception","release_date":"2010-07-15","vote_average":8.4,"overview":"Dreams."}]}`))
				return
			}
			w.Write([]byte(`{"page":1,"results":[]}`))
		case "/search/movie":
			w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Found"}]}`))
		case "/trending/all/week":
			w.Write([]byte(`{"page":1,"results":[{"id":1,"media_type":"person","name":"P"},{"id":2,"media_type":"tv","name":"Show"}]}`))
		case "/movie/popular":
			w.Write([]byte(`{"page":2,"total_pages":9,"results":[{"id":3,"title":"Popular"}]}`))
		case "/tv/popular":
			w.Write([]byte(`{"page":1,"total_pages":3,"results":[
				{"id":10,"name":"Severance","vote_average":8.4,"popularity":90,"first_air_date":"2022-02-18","genre_ids":[18,9648]},
				{"id":11,"name":"Abbott Elementary","vote_average":7.9,"popularity":40,"first_air_date":"2021-12-07","genre_ids":[35]},
				{"id":12,"name":"Dark","vote_average":8.4,"popularity":55,"first_air_date":"2017-12-01","genre_ids":[18,10765]}
			]}`))
		case "/genre/movie/list":
			w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comedy"}]}`))
		case "/movie/603":
			w.Write([]byte(`{"id":603,"title":"The Matrix","overview":"A hacker learns the truth.","genres":[{"id":28,"name":"Action"}]}`))
		case "/movie/603/credits":
			w.Write([]byte(`{"cast":[],"crew":[]}`))
		case "/movie/603/videos":
			w.Write([]byte(`{"results":[]}`))
		case "/movie/603/recommendations":
			w.Write([]byte(`{"page":1,"results":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestRouter(t *testing.T, completer *stubCompleter, tmdbKey, apiKey string) http.Handler {
	t.Helper()
	server := fakeTMDB(t)
	m := metrics.New()

	client := tmdb.NewClient(&tmdb.Config{APIKey: tmdbKey, BaseURL: server.URL, RatePerSecond: 1000, Client: server.Client(), Metrics: m})
	resolver := discovery.NewResolver(client, 0, m)
	app := services.NewAppService(
		client,
		completer,
		services.NewCatalogService(client, 1),
		services.NewInsightService(completer, resolver),
		discovery.NewService(completer, resolver, m),
		discovery.NewSessions(0),
		server.Client(),
	)
	return NewHandler(app, m, apiKey).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name       string
		completer  *stubCompleter
		tmdbKey    string
		body       string
		wantStatus int
		wantCode   string
		wantItems  int
	}{
		{
			name:       "found",
			completer:  &stubCompleter{configured: true, reply: "Inception\nUnknown"},
			tmdbKey:    "k",
			body:       `{"query":"A mind-bending sci-fi movie"}`,
			wantStatus: http.StatusOK,
			wantItems:  1,
		},
		{
			name:       "no matches",
			completer:  &stubCompleter{configured: true, reply: "Unknown\nAlso Unknown"},
			tmdbKey:    "k",
			body:       `{"query":"something obscure"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty query",
			completer:  &stubCompleter{configured: true},
			tmdbKey:    "k",
			body:       `{"query":"   "}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(discovery.ConditionInvalid),
		},
		{
			name:       "completion not configured",
			completer:  &stubCompleter{},
			tmdbKey:    "k",
			body:       `{"query":"heist"}`,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   string(discovery.ConditionConfig),
		},
		{
			name:       "metadata not configured",
			completer:  &stubCompleter{configured: true, reply: "Inception\nHeat"},
			body:       `{"query":"heist"}`,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   string(discovery.ConditionConfig),
		},
		{
			name:       "completion failure",
			completer:  &stubCompleter{configured: true, err: &errors.APIError{Service: "stub", StatusCode: 500, Message: "overloaded"}},
			tmdbKey:    "k",
			body:       `{"query":"heist"}`,
			wantStatus: http.StatusBadGateway,
			wantCode:   string(discovery.ConditionFailed),
		},
		{
			name:       "bad json",
			completer:  &stubCompleter{configured: true},
			tmdbKey:    "k",
			body:       `{"query":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.completer, tt.tmdbKey, "")
			rec, body := do(t, router, http.MethodPost, "/api/discover", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
				assert.NotEmpty(t, body["error"])
				assert.NotEmpty(t, rec.Header().Get(sessionHeader))
			}
			if rec.Code == http.StatusOK {
				data := body["data"].(map[string]interface{})
				assert.NotEmpty(t, data["session"])
				items := data["items"].([]interface{})
				assert.Len(t, items, tt.wantItems)
				if tt.wantItems == 0 {
					assert.Equal(t, "no_matches", data["outcome"])
				} else {
					first := items[0].(map[string]interface{})
					assert.Equal(t, "Inception", first["title"])
					assert.Equal(t, "movie", first["kind"])
					assert.Equal(t, "found", data["outcome"])
				}
			}
		})
	}
}

func TestDiscoverEmptyQueryMakesNoCompletion(t *testing.T) {
	completer := &stubCompleter{configured: true}
	router := newTestRouter(t, completer, "k", "")
	rec, _ := do(t, router, http.MethodPost, "/api/discover", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, completer.prompts)
}

func TestCatalogRoutes(t *testing.T) {
	router := newTestRouter(t, &stubCompleter{configured: true}, "k", "")

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "search", path: "/api/search?q=found&kind=movie", wantStatus: http.StatusOK},
		{name: "search needs q", path: "/api/search?q=%20", wantStatus: http.StatusBadRequest},
		{name: "search bad kind", path: "/api/search?q=x&kind=person", wantStatus: http.StatusBadRequest},
		{name: "search bad page", path: "/api/search?q=x&page=0", wantStatus: http.StatusBadRequest},
		{name: "trending", path: "/api/trending/all", wantStatus: http.StatusOK},
		{name: "trending bad window", path: "/api/trending/all?window=month", wantStatus: http.StatusBadRequest},
		{name: "movie list", path: "/api/movies/popular?page=2", wantStatus: http.StatusOK},
		{name: "unknown movie list", path: "/api/movies/favourites", wantStatus: http.StatusBadRequest},
		{name: "movie list bad genre", path: "/api/movies/popular?genre=action", wantStatus: http.StatusBadRequest},
		{name: "movie list bad rating", path: "/api/movies/popular?min_rating=11", wantStatus: http.StatusBadRequest},
		{name: "tv list bad sort", path: "/api/tv/popular?sort=budget", wantStatus: http.StatusBadRequest},
		{name: "genres", path: "/api/genres/movie", wantStatus: http.StatusOK},
		{name: "genres bad kind", path: "/api/genres/person", wantStatus: http.StatusBadRequest},
		{name: "details", path: "/api/movie/603", wantStatus: http.StatusOK},
		{name: "details not found", path: "/api/movie/604", wantStatus: http.StatusNotFound},
		{name: "non numeric id", path: "/api/movie/abc", wantStatus: http.StatusNotFound},
		{name: "unknown route", path: "/api/nothing", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, router, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestListFilters(t *testing.T) {
	router := newTestRouter(t, &stubCompleter{configured: true}, "k", "")

	tests := []struct {
		name  string
		query string
		want  []float64
	}{
		{name: "upstream order", query: "", want: []float64{10, 11, 12}},
		{name: "genre", query: "?genre=18", want: []float64{10, 12}},
		{name: "repeated and comma separated genres", query: "?genre=35&genre=9648,10765", want: []float64{10, 11, 12}},
		{name: "minimum rating", query: "?min_rating=8", want: []float64{10, 12}},
		{name: "newest first", query: "?sort=release_date.desc", want: []float64{10, 11, 12}},
		{name: "title", query: "?sort=title", want: []float64{11, 12, 10}},
		{name: "combined", query: "?genre=18&min_rating=8.4&sort=popularity.desc", want: []float64{10, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, router, http.MethodGet, "/api/tv/popular"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			data := body["data"].(map[string]interface{})
			assert.Equal(t, float64(3), data["total_pages"])
			got := []float64{}
			for _, item := range data["items"].([]interface{}) {
				got = append(got, item.(map[string]interface{})["id"].(float64))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenresRoute(t *testing.T) {
	router := newTestRouter(t, &stubCompleter{configured: true}, "k", "")
	rec, body := do(t, router, http.MethodGet, "/api/genres/movie", "")
	require.Equal(t, http.StatusOK, rec.Code)

	genres := body["data"].(map[string]interface{})["genres"].([]interface{})
	require.Len(t, genres, 2)
	assert.Equal(t, "Action", genres[0].(map[string]interface{})["name"])

	noKey := newTestRouter(t, &stubCompleter{configured: true}, "", "")
	rec, _ = do(t, noKey, http.MethodGet, "/api/genres/tv", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTrendingDropsPeople(t *testing.T) {
	router := newTestRouter(t, &stubCompleter{configured: true}, "k", "")
	rec, body := do(t, router, http.MethodGet, "/api/trending/all?window=week", "")
	require.Equal(t, http.StatusOK, rec.Code)

	items := body["data"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "tv", items[0].(map[string]interface{})["kind"])
}

func TestInsightFillsTitleFromCatalog(t *testing.T) {
	completer := &stubCompleter{configured: true, reply: "A hacker wakes up."}
	router := newTestRouter(t, completer, "k", "")

	rec, body := do(t, router, http.MethodPost, "/api/movie/603/summary", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "A hacker wakes up.", body["data"].(map[string]interface{})["summary"])
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], `"The Matrix"`)
	assert.Contains(t, completer.prompts[0], "A hacker learns the truth.")
}

func TestChatValidation(t *testing.T) {
	completer := &stubCompleter{configured: true, reply: "Yes."}
	router := newTestRouter(t, completer, "k", "")

	rec, _ := do(t, router, http.MethodPost, "/api/movie/603/chat", `{"title":"The Matrix","question":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/movie/603/chat", `{"title":"The Matrix","question":"Sequel?","history":[{"role":"user"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := do(t, router, http.MethodPost, "/api/movie/603/chat",
		`{"title":"The Matrix","question":"Sequel?","history":[{"role":"user","text":"Hi"},{"role":"assistant","text":"Hello"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Yes.", body["data"].(map[string]interface{})["text"])
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(t, &stubCompleter{configured: true}, "k", "secret")

	tests := []struct {
		name       string
		path       string
		headers    []string
		wantStatus int
	}{
		{name: "health is open", path: "/health", wantStatus: http.StatusOK},
		{name: "missing key", path: "/api/movies/popular", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", path: "/api/movies/popular", headers: []string{"X-API-Key", "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "bearer", path: "/api/movies/popular", headers: []string{"Authorization", "Bearer secret"}, wantStatus: http.StatusOK},
		{name: "header", path: "/api/movies/popular", headers: []string{"X-API-Key", "secret"}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, router, http.MethodGet, tt.path, "", tt.headers...)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	router := newTestRouter(t, &stubCompleter{configured: true}, "k", "")

	rec, _ := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec, _ = do(t, router, http.MethodGet, "/health", "", requestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec, _ = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubCompleter{}, "", "")
	rec, body := do(t, router, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["healthy"])
	assert.Len(t, data["checks"], 3)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.ErrInvalidInput, http.StatusBadRequest},
		{errors.NotConfigured("tmdb"), http.StatusServiceUnavailable},
		{&errors.APIError{StatusCode: 404}, http.StatusNotFound},
		{&errors.APIError{StatusCode: 401}, http.StatusBadGateway},
		{&errors.APIError{StatusCode: 504}, http.StatusGatewayTimeout},
		{errors.ErrStale, http.StatusConflict},
		{errors.ErrNetworkOperation, http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
