// Package places finds candidate activities near a location. It talks to the
// Places API (New) first, falls back to the legacy text search when that
// fails, and finally serves static fallback activities so the pipeline
// always has candidates to work with.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/sidequest-dev/sidequest/pkg/activity"
)

const (
	searchNearbyURL = "https://places.googleapis.com/v1/places:searchNearby"

	// Fields requested from the new API. Anything not listed here comes
	// back empty, so keep this in sync with the normalizer.
	fieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.rating,places.types,places.priceLevel"

	defaultRadiusMeters = 5000.0
	defaultMaxResults   = 10
)

// HTTPClient is the transport used for API calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client searches for places near a coordinate.
type Client struct {
	apiKey     string
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient creates a place search client.
func NewClient(apiKey string, httpClient HTTPClient, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{apiKey: apiKey, httpClient: httpClient, logger: logger}
}

type nearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type nearbyResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Rating     float64  `json:"rating"`
		Types      []string `json:"types"`
		PriceLevel string   `json:"priceLevel"`
	} `json:"places"`
}

// SearchNearby finds activities of one place type around a coordinate,
// normalized into canonical records. The new API is tried first; on failure
// the legacy text search takes over. A non-positive radius uses the 5km
// default.
func (c *Client) SearchNearby(ctx context.Context, lat, lon, radiusKM float64, placeType string, maxResults int) ([]activity.Activity, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	radiusMeters := radiusKM * 1000
	if radiusMeters <= 0 {
		radiusMeters = defaultRadiusMeters
	}

	acts, err := c.searchNearbyNew(ctx, lat, lon, radiusMeters, placeType, maxResults)
	if err == nil {
		return acts, nil
	}
	c.logger.Warn("nearby search failed, trying legacy text search",
		"type", placeType, "error", err)

	acts, legacyErr := c.legacyTextSearch(ctx, lat, lon, radiusMeters, placeType, maxResults)
	if legacyErr != nil {
		return nil, fmt.Errorf("nearby search: %w (legacy fallback: %v)", err, legacyErr)
	}
	return acts, nil
}

func (c *Client) searchNearbyNew(ctx context.Context, lat, lon, radiusMeters float64, placeType string, maxResults int) ([]activity.Activity, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places API key not configured")
	}

	var reqBody nearbyRequest
	reqBody.IncludedTypes = []string{placeType}
	reqBody.MaxResultCount = maxResults
	reqBody.LocationRestriction.Circle.Center.Latitude = lat
	reqBody.LocationRestriction.Circle.Center.Longitude = lon
	reqBody.LocationRestriction.Circle.Radius = radiusMeters

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding nearby request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchNearbyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	body, err := c.doWithRetry(ctx, req, payload)
	if err != nil {
		return nil, err
	}

	var result nearbyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing nearby response: %w", err)
	}

	acts := make([]activity.Activity, 0, len(result.Places))
	for i, p := range result.Places {
		plat, plon := p.Location.Latitude, p.Location.Longitude
		if plat == 0 && plon == 0 {
			plat, plon = activity.FallbackCoordinates(lat, lon, i)
		}

		cat := activity.CategoryFromTags(p.Types)
		acts = append(acts, activity.Activity{
			PlaceID:       p.ID,
			Title:         p.DisplayName.Text,
			Lat:           plat,
			Lon:           plon,
			Address:       p.FormattedAddress,
			Type:          cat,
			DurationHours: activity.DefaultDuration(cat),
			Cost:          activity.CostFromPriceLevel(p.PriceLevel),
			IndoorOutdoor: activity.IndoorOutdoorFromTags(p.Types),
			EnergyLevel:   activity.DefaultEnergy(cat),
			Confidence:    activity.DefaultConfidence(p.Rating),
			Rating:        p.Rating,
			Tags:          p.Types,
		})
	}

	c.logger.Debug("nearby search complete", "type", placeType, "results", len(acts))
	return acts, nil
}

// doWithRetry issues the request with backoff, rebuilding the body for each
// attempt since a consumed reader cannot be resent.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, payload []byte) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			if payload != nil {
				req.Body = io.NopCloser(bytes.NewReader(payload))
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Debug("failed to close response body", "error", closeErr)
				}
			}()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("place search returned %d: %s", resp.StatusCode, truncate(data, 200))
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return retry.Unrecoverable(err)
				}
				return err
			}

			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(100*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying place search", "attempt", n+1, "url", req.URL.String(), "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
