// Package geocode resolves free-form location strings to coordinates and
// coordinates back to a city name, using the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// DefaultCity is used when reverse geocoding cannot name a locality. Event
// searches need some city to query against.
const DefaultCity = "Waterloo"

// Location is a resolved geographic point.
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
}

// HTTPClient is the transport used for API calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Google Geocoding API.
type Client struct {
	apiKey     string
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient creates a geocoding client.
func NewClient(apiKey string, httpClient HTTPClient, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{apiKey: apiKey, httpClient: httpClient, logger: logger}
}

type geocodeResponse struct {
	Results []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"`
}

// Forward resolves a free-form location string to coordinates.
func (c *Client) Forward(ctx context.Context, location string) (*Location, error) {
	if c.apiKey == "" {
		return nil, errors.New("geocoding API key not configured")
	}

	apiURL := fmt.Sprintf("https://maps.googleapis.com/maps/api/geocode/json?address=%s&key=%s",
		url.QueryEscape(location), c.apiKey)

	result, err := c.fetch(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	if result.Status != "OK" || len(result.Results) == 0 {
		return nil, fmt.Errorf("geocoding failed for %s: %s", location, result.Status)
	}

	first := result.Results[0]
	return &Location{
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
		City:      cityFromComponents(result, DefaultCity),
	}, nil
}

// CityFor names the city containing the coordinates. It never fails: when
// the API is unavailable or returns no locality the default city is used so
// downstream event searches still have a query.
func (c *Client) CityFor(ctx context.Context, lat, lon float64) string {
	if c.apiKey == "" {
		return DefaultCity
	}

	apiURL := fmt.Sprintf("https://maps.googleapis.com/maps/api/geocode/json?latlng=%f,%f&key=%s",
		lat, lon, c.apiKey)

	result, err := c.fetch(ctx, apiURL)
	if err != nil {
		c.logger.Debug("reverse geocoding failed, using default city", "error", err)
		return DefaultCity
	}
	if result.Status != "OK" {
		c.logger.Debug("reverse geocoding returned no result", "status", result.Status)
		return DefaultCity
	}
	return cityFromComponents(result, DefaultCity)
}

func (c *Client) fetch(ctx context.Context, apiURL string) (*geocodeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result geocodeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing geocoding response: %w", err)
	}
	return &result, nil
}

func cityFromComponents(resp *geocodeResponse, fallback string) string {
	for _, r := range resp.Results {
		for _, comp := range r.AddressComponents {
			for _, t := range comp.Types {
				if t == "locality" {
					return comp.LongName
				}
			}
		}
	}
	// Some regions have no locality component; fall back to the broader
	// administrative area before giving up.
	for _, r := range resp.Results {
		for _, comp := range r.AddressComponents {
			for _, t := range comp.Types {
				if t == "administrative_area_level_2" || t == "administrative_area_level_1" {
					return comp.LongName
				}
			}
		}
	}
	return fallback
}
