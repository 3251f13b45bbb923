package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"hangout-backend/internal/models"
	"hangout-backend/internal/places"
)

type placesClient interface {
	Autocomplete(ctx context.Context, query string, bounds *models.Bounds) ([]models.Prediction, error)
	Geocode(ctx context.Context, name string) (*models.GeocodeResult, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyPlace, error)
	CurrentWeather(ctx context.Context, lat, lng float64) (*models.Weather, error)
}

type PlacesHandler struct {
	client placesClient
}

func NewPlacesHandler(client placesClient) *PlacesHandler {
	return &PlacesHandler{client: client}
}

func validCoordinates(lat, lng float64) bool {
	return places.ValidCoordinates(lat, lng)
}

// parseFloatParam only accepts finite numbers; ParseFloat alone lets
// "NaN" and "Inf" through.
func parseFloatParam(r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseLocation reads lat/lng query params and reports a field error map
// when they are missing or out of range.
func parseLocation(r *http.Request) (float64, float64, map[string]string) {
	lat, okLat := parseFloatParam(r, "lat")
	lng, okLng := parseFloatParam(r, "lng")
	if !okLat || !okLng {
		return 0, 0, map[string]string{"lat": "lat and lng are required numbers"}
	}
	if !validCoordinates(lat, lng) {
		return 0, 0, map[string]string{"lat": "Coordinates are out of range"}
	}
	return lat, lng, nil
}

func parseBounds(r *http.Request) *models.Bounds {
	swLat, ok1 := parseFloatParam(r, "sw_lat")
	swLng, ok2 := parseFloatParam(r, "sw_lng")
	neLat, ok3 := parseFloatParam(r, "ne_lat")
	neLng, ok4 := parseFloatParam(r, "ne_lng")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}
	return &models.Bounds{
		SouthWest: models.LatLng{Latitude: swLat, Longitude: swLng},
		NorthEast: models.LatLng{Latitude: neLat, Longitude: neLng},
	}
}

// Autocomplete never fails the request on vendor errors: the search box just
// shows no suggestions.
func (h *PlacesHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	predictions, err := h.client.Autocomplete(r.Context(), query, parseBounds(r))
	if err != nil {
		log.Printf("Autocomplete failed for %q: %v", query, err)
		predictions = []models.Prediction{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
}

func (h *PlacesHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"q": "Query is required"}, r))
		return
	}

	result, err := h.client.Geocode(r.Context(), query)
	if err != nil {
		h.vendorFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result.PlaceAddress(true))
}

func (h *PlacesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, lng, fields := parseLocation(r)
	if fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}
	radius := places.DefaultRadiusKm
	if r.URL.Query().Has("radius_km") {
		var ok bool
		if radius, ok = parseFloatParam(r, "radius_km"); !ok {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"radius_km": "radius_km must be a finite number"}, r))
			return
		}
	}

	nearby, err := h.client.Nearby(r.Context(), lat, lng, radius)
	if err != nil {
		h.vendorFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"places": nearby})
}

func (h *PlacesHandler) Weather(w http.ResponseWriter, r *http.Request) {
	lat, lng, fields := parseLocation(r)
	if fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	weather, err := h.client.CurrentWeather(r.Context(), lat, lng)
	if err != nil {
		h.vendorFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"temperature":  weather.Temperature,
		"weather_code": weather.Code,
		"outdoor":      weather.Outdoor(),
	})
}

func (h *PlacesHandler) vendorFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, places.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No results for that place", r))
	case errors.Is(err, places.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("NOT_CONFIGURED", "Place search is not configured", r))
	default:
		log.Printf("Places vendor error on %s: %v", r.URL.Path, err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "The place service is unavailable", r))
	}
}
