package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/arso-weather-bridge/internal/metrics"
	"github.com/i474232898/arso-weather-bridge/internal/weather"
)

const (
	DefaultAPIURL       = "https://vreme.arso.gov.si/api/1.0/location/"
	DefaultLocationsURL = "https://vreme.arso.gov.si/api/1.0/locations/"
)

// ClientConfig configures an ARSOClient. Empty URLs fall back to the
// public ARSO endpoints.
type ClientConfig struct {
	APIURL       string
	LocationsURL string
	Logger       *slog.Logger
	Metrics      *metrics.Collector
}

// ARSOClient talks to the ARSO weather API. It implements both
// weather.DocumentFetcher and weather.LocationResolver.
type ARSOClient struct {
	apiURL       string
	locationsURL string
	client       *http.Client
	logger       *slog.Logger
	metrics      *metrics.Collector

	// Only the polled forecast path sits behind a breaker. The locations
	// list is fetched on demand by the setup flow, one call per request.
	forecastCircuit *gobreaker.CircuitBreaker
}

func NewARSOClient(client *http.Client, cfg ClientConfig) *ARSOClient {
	c := &ARSOClient{
		apiURL:          cfg.APIURL,
		locationsURL:    cfg.LocationsURL,
		client:          client,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		forecastCircuit: newBreaker("arso-forecast"),
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.locationsURL == "" {
		c.locationsURL = DefaultLocationsURL
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// FetchDocument downloads the forecast document for a location.
func (c *ARSOClient) FetchDocument(ctx context.Context, location string) (*weather.Document, error) {
	values := url.Values{}
	values.Set("location", location)
	u := fmt.Sprintf("%s?%s", c.apiURL, values.Encode())

	start := time.Now()
	resp, err := doRequest(ctx, c.client, c.forecastCircuit, u)
	c.metrics.ObserveFetch("forecast", time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordFetchFailure("forecast")
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close ARSO response body", "error", closeErr)
		}
	}()

	var doc weather.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		c.metrics.RecordFetchFailure("forecast")
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	c.logger.Debug("fetched ARSO document",
		"location", location,
		"observation", doc.Observation != nil,
		"forecast3h", doc.Forecast3h != nil,
		"forecast24h", doc.Forecast24h != nil,
	)
	return &doc, nil
}
