package places

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"hangout-backend/internal/models"
)

// CurrentWeather returns the temperature and WMO weather code at a point.
func (c *Client) CurrentWeather(ctx context.Context, lat, lng float64) (*models.Weather, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("invalid coordinates %v,%v", lat, lng)
	}

	res, err := c.weather.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":        formatFloat(lat),
			"longitude":       formatFloat(lng),
			"current_weather": "true",
		}).
		Get("/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, vendorError("open-meteo", res)
	}

	current := gjson.GetBytes(res.Body(), "current_weather")
	if !current.Get("temperature").Exists() || !current.Get("weathercode").Exists() {
		return nil, fmt.Errorf("open-meteo response has no current weather")
	}
	return &models.Weather{
		Temperature: current.Get("temperature").Float(),
		Code:        int(current.Get("weathercode").Int()),
	}, nil
}
