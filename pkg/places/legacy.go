package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sidequest-dev/sidequest/pkg/activity"
)

const legacyTextSearchURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"

type legacyResponse struct {
	Results []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Rating     float64  `json:"rating"`
		Types      []string `json:"types"`
		PriceLevel *int     `json:"price_level"`
		Vicinity   string   `json:"vicinity"`
	} `json:"results"`
	Status string `json:"status"`
}

// legacyTextSearch queries the older text search endpoint. It survives as a
// fallback because the newer endpoint is unavailable on some billing tiers.
func (c *Client) legacyTextSearch(ctx context.Context, lat, lon, radiusMeters float64, placeType string, maxResults int) ([]activity.Activity, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places API key not configured")
	}

	query := url.Values{}
	query.Set("query", placeType)
	query.Set("location", fmt.Sprintf("%f,%f", lat, lon))
	query.Set("radius", fmt.Sprintf("%.0f", radiusMeters))
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		legacyTextSearchURL+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}

	body, err := c.doWithRetry(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	var result legacyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing legacy search response: %w", err)
	}
	if result.Status != "OK" && result.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("legacy search failed: %s", result.Status)
	}

	acts := make([]activity.Activity, 0, len(result.Results))
	for i, r := range result.Results {
		if i >= maxResults {
			break
		}
		plat, plon := r.Geometry.Location.Lat, r.Geometry.Location.Lng
		if plat == 0 && plon == 0 {
			plat, plon = activity.FallbackCoordinates(lat, lon, i)
		}

		cost := activity.CostFromLegacyLevel(-1)
		if r.PriceLevel != nil {
			cost = activity.CostFromLegacyLevel(*r.PriceLevel)
		}

		cat := activity.CategoryFromTags(r.Types)
		acts = append(acts, activity.Activity{
			PlaceID:       r.PlaceID,
			Title:         r.Name,
			Lat:           plat,
			Lon:           plon,
			Address:       r.Vicinity,
			Type:          cat,
			DurationHours: activity.DefaultDuration(cat),
			Cost:          cost,
			IndoorOutdoor: activity.IndoorOutdoorFromTags(r.Types),
			EnergyLevel:   activity.DefaultEnergy(cat),
			Confidence:    activity.DefaultConfidence(r.Rating),
			Rating:        r.Rating,
			Tags:          r.Types,
		})
	}

	c.logger.Debug("legacy text search complete", "type", placeType, "results", len(acts))
	return acts, nil
}
