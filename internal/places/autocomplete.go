package places

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"hangout-backend/internal/models"
)

type autocompleteLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type autocompleteRectangle struct {
	Low  autocompleteLatLng `json:"low"`
	High autocompleteLatLng `json:"high"`
}

type autocompleteBias struct {
	Rectangle autocompleteRectangle `json:"rectangle"`
}

type autocompleteRequest struct {
	Input        string            `json:"input"`
	LanguageCode string            `json:"languageCode,omitempty"`
	LocationBias *autocompleteBias `json:"locationBias,omitempty"`
}

// Autocomplete returns place predictions for query, biased towards bounds
// when given. An empty query returns no predictions without calling out.
func (c *Client) Autocomplete(ctx context.Context, query string, bounds *models.Bounds) ([]models.Prediction, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Prediction{}, nil
	}
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body := autocompleteRequest{Input: query, LanguageCode: c.language}
	if bounds != nil {
		body.LocationBias = &autocompleteBias{Rectangle: autocompleteRectangle{
			Low:  autocompleteLatLng(bounds.SouthWest),
			High: autocompleteLatLng(bounds.NorthEast),
		}}
	}

	res, err := c.places.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Goog-Api-Key", c.apiKey).
		SetBody(body).
		Post("/v1/places:autocomplete")
	if err != nil {
		return nil, fmt.Errorf("places autocomplete request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, vendorError("places autocomplete", res)
	}

	return parsePredictions(res.Body()), nil
}

func parsePredictions(body []byte) []models.Prediction {
	predictions := []models.Prediction{}
	gjson.GetBytes(body, "suggestions").ForEach(func(_, s gjson.Result) bool {
		p := s.Get("placePrediction")
		if !p.Exists() {
			return true
		}
		predictions = append(predictions, models.Prediction{
			PlaceID:       p.Get("placeId").String(),
			PrimaryText:   p.Get("structuredFormat.mainText.text").String(),
			SecondaryText: p.Get("structuredFormat.secondaryText.text").String(),
			FullText:      p.Get("text.text").String(),
		})
		return true
	})
	return predictions
}
