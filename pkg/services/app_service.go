package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/cinesift/pkg/completion"
	"github.com/amaumene/cinesift/pkg/discovery"
	"github.com/amaumene/cinesift/pkg/errors"
	"github.com/amaumene/cinesift/pkg/models"
	log "github.com/sirupsen/logrus"
)

const imageProbeTimeout = 8 * time.Second

// Check states reported by Status
const (
	CheckOK            = "ok"
	CheckError         = "error"
	CheckNotConfigured = "not_configured"
)

// AppService coordinates all application services
type AppService struct {
	metadata   MetadataClient
	completion completion.Client
	catalog    *CatalogService
	insight    *InsightService
	discovery  *discovery.Service
	sessions   *discovery.Sessions
	httpClient *http.Client
}

func NewAppService(
	metadata MetadataClient,
	completionClient completion.Client,
	catalog *CatalogService,
	insight *InsightService,
	discoveryService *discovery.Service,
	sessions *discovery.Sessions,
	httpClient *http.Client,
) *AppService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: imageProbeTimeout}
	}
	return &AppService{
		metadata:   metadata,
		completion: completionClient,
		catalog:    catalog,
		insight:    insight,
		discovery:  discoveryService,
		sessions:   sessions,
		httpClient: httpClient,
	}
}

func (s *AppService) Catalog() *CatalogService {
	return s.catalog
}

func (s *AppService) Insight() *InsightService {
	return s.insight
}

// Discover runs a description search in the caller's session so that only
// the latest search of that session is delivered. It returns the session id,
// which is freshly generated when sessionID is empty.
func (s *AppService) Discover(ctx context.Context, sessionID, query string) (*models.Resolution, string, error) {
	id, session := s.sessions.Get(sessionID)
	res, err := session.Resolve(ctx, s.discovery, query)
	return res, id, err
}

// RunMaintenance drops idle discovery sessions
func (s *AppService) RunMaintenance() {
	if removed := s.sessions.Prune(); removed > 0 {
		log.WithFields(log.Fields{
			"removed":   removed,
			"remaining": s.sessions.Len(),
		}).Debug("Pruned idle discovery sessions")
	}
}

// Check is the result of one self-test
type Check struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration_ns"`
}

// StatusReport is the outcome of the self-test
type StatusReport struct {
	Healthy bool     `json:"healthy"`
	Checks  []*Check `json:"checks"`
}

// Status tests the metadata API, the completion API and the image CDN in
// turn. Failures are reported per check; Status itself never fails.
func (s *AppService) Status(ctx context.Context) *StatusReport {
	report := &StatusReport{}

	metadataCheck, trending := s.checkMetadata(ctx)
	report.Checks = append(report.Checks, metadataCheck, s.checkCompletion(ctx), s.checkImageCDN(ctx, trending))

	report.Healthy = true
	for _, check := range report.Checks {
		if check.Status != CheckOK {
			report.Healthy = false
		}
	}

	log.WithField("healthy", report.Healthy).Info("Completed status self-test")
	return report
}

func (s *AppService) checkMetadata(ctx context.Context) (*Check, *models.Page) {
	check := &Check{Name: "metadata"}
	if !s.metadata.IsConfigured() {
		check.Status = CheckNotConfigured
		check.Message = "TMDB API key is missing. Set TMDB_API_KEY."
		return check, nil
	}

	start := time.Now()
	page, err := s.catalog.Trending(ctx, "", "week")
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = statusOf(err)
		check.Message = fmt.Sprintf("TMDB API key is missing or invalid: %v", err)
		return check, nil
	}

	check.Status = CheckOK
	check.Message = "TMDB API is configured and working correctly"
	return check, page
}

func (s *AppService) checkCompletion(ctx context.Context) *Check {
	check := &Check{Name: "completion"}
	if !s.completion.IsConfigured() {
		check.Status = CheckNotConfigured
		check.Message = fmt.Sprintf("%s API key is missing. Set COMPLETION_API_KEY.", s.completion.Provider())
		return check
	}

	start := time.Now()
	_, err := s.insight.Summarize(ctx, "Test Movie", "This is a test description")
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = statusOf(err)
		check.Message = fmt.Sprintf("%s API error: %v", s.completion.Provider(), err)
		return check
	}

	check.Status = CheckOK
	check.Message = fmt.Sprintf("%s API is configured and working correctly", s.completion.Provider())
	return check
}

// checkImageCDN loads a real poster from the trending list
func (s *AppService) checkImageCDN(ctx context.Context, trending *models.Page) *Check {
	check := &Check{Name: "image_cdn"}
	if !s.metadata.IsConfigured() {
		check.Status = CheckNotConfigured
		check.Message = "Image CDN test needs a TMDB API key"
		return check
	}

	var posterPath string
	if trending != nil {
		for _, item := range trending.Items {
			if item.PosterPath != "" {
				posterPath = item.PosterPath
				break
			}
		}
	}
	if posterPath == "" {
		check.Status = CheckError
		check.Message = "Unable to test image CDN (no poster path available)"
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, imageProbeTimeout)
	defer cancel()

	start := time.Now()
	err := s.probeImage(ctx, s.metadata.ImageURL(posterPath, "w92"))
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = CheckError
		check.Message = fmt.Sprintf("Unable to load images from TMDB CDN: %v", err)
		return check
	}

	check.Status = CheckOK
	check.Message = "TMDB image CDN is accessible and images load successfully"
	return check
}

func (s *AppService) probeImage(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrNetworkOperation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &errors.APIError{Service: "image_cdn", StatusCode: resp.StatusCode}
	}
	return nil
}

func statusOf(err error) string {
	if errors.IsNotConfigured(err) {
		return CheckNotConfigured
	}
	return CheckError
}

func (s *AppService) Close() error {
	log.Info("Shutting down application service")
	s.httpClient.CloseIdleConnections()
	return nil
}
