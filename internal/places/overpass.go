package places

import (
	"context"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"hangout-backend/internal/models"
)

const (
	DefaultRadiusKm = 5.0
	MaxRadiusKm     = 50.0
)

func overpassQuery(lat, lng, radiusKm float64) string {
	around := fmt.Sprintf("around:%s,%s,%s", formatFloat(radiusKm*1000), formatFloat(lat), formatFloat(lng))
	return fmt.Sprintf(`[out:json];
(
  node["tourism"](%[1]s);
  way["tourism"](%[1]s);
  relation["tourism"](%[1]s);
);
out center;`, around)
}

// Nearby lists named tourism features within radiusKm of the point. Ways and
// relations are reported at their center.
func (c *Client) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyPlace, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("invalid coordinates %v,%v", lat, lng)
	}
	if !(radiusKm > 0) || math.IsInf(radiusKm, 0) {
		radiusKm = DefaultRadiusKm
	}
	if radiusKm > MaxRadiusKm {
		radiusKm = MaxRadiusKm
	}

	res, err := c.overpass.R().
		SetContext(ctx).
		SetQueryParam("data", overpassQuery(lat, lng, radiusKm)).
		Get(c.overpassURL)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, vendorError("overpass", res)
	}

	return parseOverpass(res.Body()), nil
}

func parseOverpass(body []byte) []models.NearbyPlace {
	places := []models.NearbyPlace{}
	gjson.GetBytes(body, "elements").ForEach(func(_, el gjson.Result) bool {
		name := el.Get("tags.name").String()
		if name == "" {
			return true
		}

		var lat, lon gjson.Result
		if el.Get("lat").Exists() && el.Get("lon").Exists() {
			lat, lon = el.Get("lat"), el.Get("lon")
		} else if el.Get("center").Exists() {
			lat, lon = el.Get("center.lat"), el.Get("center.lon")
		} else {
			return true
		}

		places = append(places, models.NearbyPlace{
			Name:      name,
			Kind:      el.Get("tags.tourism").String(),
			Latitude:  lat.Float(),
			Longitude: lon.Float(),
		})
		return true
	})
	return places
}
