// Package routing supplies road distances from the Google Distance
// Matrix API. It is strictly best-effort: every failure mode (missing
// key, HTTP error, bad payload, timeout, open circuit) produces an empty
// result, and the comparison engine falls back to geodesic estimates.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketpadi/compare-service/internal/engine"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// Config holds the routing client configuration.
type Config struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GoogleClient implements engine.DistanceProvider against the Distance
// Matrix API.
type GoogleClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *breaker
	logger  zerolog.Logger
}

// NewGoogleClient creates a routing client. An empty API key is allowed;
// the client then always returns empty results.
func NewGoogleClient(cfg Config) *GoogleClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := log.With().Str("component", "routing").Logger()
	return &GoogleClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker(nil, logger),
		logger:  logger,
	}
}

// matrixResponse mirrors the subset of the Distance Matrix payload we use.
type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value int64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// BatchDistances returns road distance/duration per destination index for
// a single origin. Any failure returns an empty map; it never returns an
// error because the caller's geodesic fallback is always available.
func (g *GoogleClient) BatchDistances(ctx context.Context, origin engine.Location, dests []engine.Location, mode engine.TransportMode) map[int]engine.RouteEstimate {
	empty := map[int]engine.RouteEstimate{}
	if g.apiKey == "" || len(dests) == 0 {
		return empty
	}
	if !g.breaker.allow() {
		return empty
	}

	destParts := make([]string, len(dests))
	for i, d := range dests {
		destParts[i] = fmt.Sprintf("%f,%f", d.Latitude, d.Longitude)
	}

	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	params.Set("destinations", strings.Join(destParts, "|"))
	params.Set("mode", strings.ToLower(string(mode)))
	params.Set("units", "metric")
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		g.breaker.recordFailure(err)
		return empty
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.breaker.recordFailure(err)
		g.logger.Warn().Err(err).Msg("Distance matrix request failed, falling back to geodesic estimates")
		return empty
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("distance matrix returned status %d", resp.StatusCode)
		g.breaker.recordFailure(err)
		g.logger.Warn().Int("status", resp.StatusCode).Msg("Distance matrix request rejected, falling back to geodesic estimates")
		return empty
	}

	var payload matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.breaker.recordFailure(err)
		g.logger.Warn().Err(err).Msg("Distance matrix payload unreadable, falling back to geodesic estimates")
		return empty
	}
	if payload.Status != "OK" || len(payload.Rows) == 0 {
		g.breaker.recordFailure(fmt.Errorf("distance matrix status %q", payload.Status))
		return empty
	}

	g.breaker.recordSuccess()

	results := make(map[int]engine.RouteEstimate)
	for i, element := range payload.Rows[0].Elements {
		if element.Status != "OK" {
			continue
		}
		results[i] = engine.RouteEstimate{
			DistanceKm:  float64(element.Distance.Value) / 1000.0,
			DurationMin: float64(element.Duration.Value) / 60.0,
		}
	}
	return results
}

// Healthy reports whether the routing circuit is currently closed.
func (g *GoogleClient) Healthy() bool {
	return g.breaker.currentState() == breakerClosed
}
