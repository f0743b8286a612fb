package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/i474232898/arso-weather-bridge/internal/common"
)

// Placeholder entries returned instead of an error so the setup form can
// still render.
const (
	NoLocationsFound  = "No locations found"
	ErrorDecodingJSON = "Error decoding JSON"
	errorPrefix       = "Error: "
)

type locationsPayload struct {
	Features []struct {
		Properties struct {
			Title any `json:"title"`
		} `json:"properties"`
	} `json:"features"`
}

// ResolveLocations fetches the location names ARSO publishes, in upstream
// order. It never fails: transport and decoding problems come back as a
// one-element placeholder list.
func (c *ARSOClient) ResolveLocations(ctx context.Context) []string {
	start := time.Now()
	resp, err := doRequest(ctx, c.client, nil, c.locationsURL)
	c.metrics.ObserveFetch("locations", time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordFetchFailure("locations")
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return c.statusPlaceholder(statusErr.Code)
		}
		c.logger.Error("locations request failed", "error", err)
		return []string{errorPrefix + err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp)
		c.metrics.RecordFetchFailure("locations")
		return c.statusPlaceholder(resp.StatusCode)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close ARSO response body", "error", closeErr)
		}
	}()

	var payload locationsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.RecordFetchFailure("locations")
		c.logger.Error("failed to decode locations", "error", err)
		return []string{ErrorDecodingJSON}
	}

	locations := make([]string, 0, len(payload.Features))
	for _, f := range payload.Features {
		title, ok := f.Properties.Title.(string)
		if !ok {
			continue
		}
		locations = append(locations, title)
	}
	if len(locations) == 0 {
		return []string{NoLocationsFound}
	}
	return locations
}

func (c *ARSOClient) statusPlaceholder(code int) []string {
	c.logger.Error("locations endpoint returned an error", "status", code)
	return []string{fmt.Sprintf("%sReceived status code %d", errorPrefix, code)}
}

// IsPlaceholder reports whether a list returned by ResolveLocations carries
// an error or empty-result marker instead of real locations.
func IsPlaceholder(locations []string) bool {
	if len(locations) != 1 {
		return false
	}
	return common.HasAnyPrefix(locations[0], NoLocationsFound, ErrorDecodingJSON, errorPrefix)
}
