// Package events discovers upcoming local events by scraping public event
// listing pages, converting them to markdown, and letting Gemini pull out
// structured events that are normalized into candidate activities.
package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/sidequest-dev/sidequest/pkg/activity"
	"github.com/sidequest-dev/sidequest/pkg/gemini"
	"google.golang.org/genai"
)

// Listing pages tried per city. Each is best-effort; a city with no usable
// page simply contributes no events.
var listingURLs = []string{
	"https://www.eventbrite.com/d/%s/events/",
	"https://allevents.in/%s",
}

// markdown beyond this length is truncated before prompting; listing pages
// front-load upcoming events so the tail is mostly navigation.
const maxMarkdownLen = 12000

// HTTPClient is the transport used to fetch listing pages.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Interpreter extracts structured data from a prompt. *gemini.Client
// satisfies it.
type Interpreter interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema, out any) error
}

// Source discovers events near a city.
type Source struct {
	httpClient  HTTPClient
	interpreter Interpreter
	logger      *slog.Logger
}

// NewSource creates an event source.
func NewSource(httpClient HTTPClient, interpreter Interpreter, logger *slog.Logger) *Source {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{httpClient: httpClient, interpreter: interpreter, logger: logger}
}

// Search scrapes event listings for a city and returns them as candidate
// activities anchored near the given coordinates. Scraping is best-effort:
// an empty slice with no error means nothing was found.
func (s *Source) Search(ctx context.Context, city string, lat, lon float64) ([]activity.Activity, error) {
	if s.interpreter == nil {
		return nil, nil
	}

	slug := citySlug(city)
	var all []activity.Activity

	for _, pattern := range listingURLs {
		pageURL := fmt.Sprintf(pattern, slug)

		markdown, err := s.fetchAsMarkdown(ctx, pageURL)
		if err != nil {
			s.logger.Debug("event page fetch failed", "url", pageURL, "error", err)
			continue
		}
		if strings.TrimSpace(markdown) == "" {
			continue
		}

		var page gemini.PageEvents
		if err := s.interpreter.Generate(ctx, gemini.EventsPrompt(city, markdown), gemini.EventsSchema(), &page); err != nil {
			s.logger.Debug("event interpretation failed", "url", pageURL, "error", err)
			continue
		}

		for i, ev := range page.Events {
			if ev.Title == "" {
				continue
			}
			all = append(all, eventActivity(ev, lat, lon, len(all)+i))
		}
	}

	s.logger.Debug("event search complete", "city", city, "events", len(all))
	return all, nil
}

func (s *Source) fetchAsMarkdown(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; sidequest/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listing page returned %d", resp.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}

	markdown, err := htmltomarkdown.ConvertString(string(html))
	if err != nil {
		return "", fmt.Errorf("converting page to markdown: %w", err)
	}
	if len(markdown) > maxMarkdownLen {
		markdown = markdown[:maxMarkdownLen]
	}
	return markdown, nil
}

// eventActivity converts an extracted event into a candidate activity.
// Listing pages rarely carry geometry, so events anchor near the search
// origin with the usual deterministic spread.
func eventActivity(ev gemini.PageEvent, lat, lon float64, index int) activity.Activity {
	evLat, evLon := activity.FallbackCoordinates(lat, lon, index)
	cat := eventCategory(ev.Category)
	return activity.Activity{
		Title:         ev.Title,
		Lat:           evLat,
		Lon:           evLon,
		Address:       ev.Location,
		Type:          cat,
		DurationHours: activity.DefaultDuration(cat),
		Cost:          ev.Cost,
		IndoorOutdoor: activity.Mixed,
		EnergyLevel:   activity.DefaultEnergy(cat),
		Confidence:    0.6,
		Description:   ev.Description,
		StartTime:     "",
	}
}

func eventCategory(raw string) activity.Category {
	c := strings.ToLower(raw)
	switch {
	case strings.Contains(c, "market"):
		return activity.Shopping
	case strings.Contains(c, "food"), strings.Contains(c, "dining"):
		return activity.Meals
	case strings.Contains(c, "show"), strings.Contains(c, "comedy"),
		strings.Contains(c, "film"), strings.Contains(c, "theater"):
		return activity.Entertainment
	case strings.Contains(c, "sport"), strings.Contains(c, "run"), strings.Contains(c, "fitness"):
		return activity.PhysicalActivity
	default:
		return activity.Events
	}
}

func citySlug(city string) string {
	slug := strings.ToLower(strings.TrimSpace(city))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
