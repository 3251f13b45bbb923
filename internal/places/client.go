// Package places talks to the maps vendors behind place search: Google
// Places autocomplete, Google Geocoding, the OpenStreetMap Overpass API and
// Open-Meteo.
package places

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNotFound      = errors.New("places: no results")
	ErrNotConfigured = errors.New("places: Google Maps API key is not configured")
)

const userAgent = "HangOutGuide/1.0"

type Config struct {
	APIKey           string
	PlacesBaseURL    string
	GeocodingBaseURL string
	OverpassURL      string
	OpenMeteoURL     string
	Language         string
	Timeout          time.Duration
}

type Client struct {
	places      *resty.Client
	geocoding   *resty.Client
	weather     *resty.Client
	overpass    *resty.Client
	overpassURL string
	apiKey      string
	language    string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	language := cfg.Language
	if language == "" {
		language = "es"
	}

	newResty := func(baseURL string) *resty.Client {
		c := resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent)
		if baseURL != "" {
			c.SetBaseURL(baseURL)
		}
		return c
	}

	return &Client{
		places:      newResty(cfg.PlacesBaseURL),
		geocoding:   newResty(cfg.GeocodingBaseURL),
		weather:     newResty(cfg.OpenMeteoURL),
		overpass:    newResty(""),
		overpassURL: cfg.OverpassURL,
		apiKey:      cfg.APIKey,
		language:    language,
	}
}

// vendorError logs a non-2xx answer and turns it into an error.
func vendorError(vendor string, res *resty.Response) error {
	slog.Error("places vendor returned error", "vendor", vendor, "status_code", res.StatusCode(), "body", truncate(res.String(), 512))
	return fmt.Errorf("%s returned status %d", vendor, res.StatusCode())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValidCoordinates reports whether lat/lng are inside the WGS84 range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
