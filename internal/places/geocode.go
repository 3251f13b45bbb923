package places

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"hangout-backend/internal/models"
)

// Geocode resolves a place name to coordinates and address fields. Only the
// best match is returned.
func (c *Client) Geocode(ctx context.Context, name string) (*models.GeocodeResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	res, err := c.geocoding.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address":  name,
			"language": c.language,
			"key":      c.apiKey,
		}).
		Get("/maps/api/geocode/json")
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, vendorError("geocoding", res)
	}

	return parseGeocode(res.Body())
}

func parseGeocode(body []byte) (*models.GeocodeResult, error) {
	parsed := gjson.ParseBytes(body)
	switch status := parsed.Get("status").String(); status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("geocoding status %s: %s", status, parsed.Get("error_message").String())
	}

	first := parsed.Get("results.0")
	if !first.Exists() {
		return nil, ErrNotFound
	}

	result := &models.GeocodeResult{
		Latitude:  first.Get("geometry.location.lat").Float(),
		Longitude: first.Get("geometry.location.lng").Float(),
		Address:   first.Get("formatted_address").String(),
	}

	components := first.Get("address_components").Array()
	if len(components) > 0 {
		result.FeatureName = components[0].Get("long_name").String()
	}
	for _, comp := range components {
		for _, t := range comp.Get("types").Array() {
			switch t.String() {
			case "country":
				result.Country = comp.Get("long_name").String()
			case "postal_code":
				result.PostalCode = comp.Get("long_name").String()
			}
		}
	}
	return result, nil
}
