package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/geohistory/internal/platform/apperr"
	"github.com/taibuivan/geohistory/internal/platform/upstreamerr"
)

// maxResponseBytes bounds a single backend payload.
const maxResponseBytes = 8 << 20

// HTTPRepository reads the catalog from the events backend over HTTP.
//
// Every call is paced by a shared token bucket so a burst of renderers
// cannot flood the backend, and is bounded by the configured timeout.
type HTTPRepository struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPRepository builds a repository for the backend at baseURL.
// A non-positive requestsPerSecond disables pacing.
func NewHTTPRepository(baseURL string, timeout time.Duration, requestsPerSecond float64) *HTTPRepository {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = int(math.Max(1, math.Ceil(requestsPerSecond)))
	}

	return &HTTPRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// ListEvents fetches GET /api/events for the given filters.
func (repository *HTTPRepository) ListEvents(context context.Context, filters Filters) (*EventPage, error) {
	var page EventPage
	if err := repository.get(context, "/api/events", filters.Values(), &page, "Events"); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListOptions fetches GET /api/events/options for the given filters.
func (repository *HTTPRepository) ListOptions(context context.Context, filters Filters) (*Options, error) {
	var options Options
	if err := repository.get(context, "/api/events/options", filters.Values(), &options, "Options"); err != nil {
		return nil, err
	}
	normalized := options.Normalized()
	return &normalized, nil
}

// GetEvent fetches GET /api/events/{id}.
func (repository *HTTPRepository) GetEvent(context context.Context, id string) (*EventDetail, error) {
	var detail EventDetail
	if err := repository.get(context, "/api/events/"+url.PathEscape(id), nil, &detail, "Event"); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (repository *HTTPRepository) get(ctx context.Context, path string, query url.Values, target any, resource string) error {
	if err := repository.limiter.Wait(ctx); err != nil {
		return upstreamerr.Wrap(err, resource)
	}

	endpoint := repository.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperr.Internal(fmt.Errorf("catalog: build request: %w", err))
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Cache-Control", "no-store")

	response, err := repository.client.Do(request)
	if err != nil {
		return upstreamerr.Wrap(err, resource)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBytes))
		return upstreamerr.Wrap(&upstreamerr.StatusError{Status: response.StatusCode}, resource)
	}

	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBytes)).Decode(target); err != nil {
		if upstreamerr.IsCanceled(err) {
			return err
		}
		return apperr.BadGateway("Malformed backend response", fmt.Errorf("catalog: decode %s: %w", path, err))
	}

	return nil
}
