package rawg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"catalog_syncer/internal/domain"
	"catalog_syncer/internal/retry"
)

const (
	SourceID   = "rawg"
	SourceName = "RAWG Video Games Database"
)

// errPermanentStatus marks non-404 client errors that retrying cannot fix.
var errPermanentStatus = errors.New("permanent upstream status")

// Config holds RAWG source configuration.
type Config struct {
	BaseURL        string
	Key            string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches one catalog page at a time from the RAWG API.
type Source struct {
	httpClient *http.Client
	baseURL    string
	key        string
	retryOpts  retry.Options
	logger     *slog.Logger
}

// New creates a new RAWG source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		key:     cfg.Key,
		retryOpts: retry.Options{
			MaxAttempts:     cfg.MaxAttempts,
			InitialInterval: cfg.InitialBackoff,
			MaxInterval:     cfg.MaxBackoff,
			Multiplier:      2.0,
			Jitter:          0.2,
			Classifier:      isTransient,
		},
		logger: logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchPage fetches and maps a single catalog page. Transient errors are
// retried with backoff; a page past the end of the catalog returns
// domain.ErrNoMorePages.
func (s *Source) FetchPage(ctx context.Context, page, pageSize int) (*domain.PageResult, error) {
	url := fmt.Sprintf("%s/games?key=%s&page=%d&page_size=%d", s.baseURL, s.key, page, pageSize)

	var apiResp *APIResponse
	err := retry.Do(ctx, func() error {
		resp, err := s.doRequest(ctx, url)
		if err != nil {
			s.logger.Warn("request failed", "page", page, "error", err)
			return err
		}
		apiResp = resp
		return nil
	}, s.retryOpts)
	if err != nil {
		if errors.Is(err, domain.ErrNoMorePages) {
			return nil, domain.ErrNoMorePages
		}
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}

	entries, rejected := MapAll(apiResp.Results)
	for _, r := range rejected {
		s.logger.Warn("rejected record",
			"page", page,
			"external_id", r.ExternalID,
			"slug", r.Slug,
			"reason", r.Reason,
		)
	}

	s.logger.Debug("fetched page",
		"page", page,
		"results", len(apiResp.Results),
		"rejected", len(rejected),
		"has_next", apiResp.Next != nil,
	)

	return &domain.PageResult{
		Entries:  entries,
		Rejected: rejected,
		HasNext:  apiResp.Next != nil,
	}, nil
}

func (s *Source) doRequest(ctx context.Context, url string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CatalogSyncer/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNoMorePages
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, errPermanentStatus)
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &apiResp, nil
}

func isTransient(err error) bool {
	return !errors.Is(err, domain.ErrNoMorePages) && !errors.Is(err, errPermanentStatus)
}
