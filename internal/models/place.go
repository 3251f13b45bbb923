package models

// PlaceAddress is the point a user picked on the map. It only lives for the
// duration of a recommendation request.
type PlaceAddress struct {
	Search      bool     `json:"search"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Country     string   `json:"country"`
	FeatureName string   `json:"feature_name"`
	Address     string   `json:"address"`
	PostalCode  string   `json:"postal_code"`
}

// HasLocation reports whether both coordinates are present.
func (p *PlaceAddress) HasLocation() bool {
	return p != nil && p.Latitude != nil && p.Longitude != nil
}

// Bounds is a rectangular viewport used to bias autocomplete results.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID       string `json:"place_id"`
	PrimaryText   string `json:"primary_text"`
	SecondaryText string `json:"secondary_text"`
	FullText      string `json:"full_text"`
}

type GeocodeResult struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	FeatureName string  `json:"feature_name"`
	Address     string  `json:"address"`
	Country     string  `json:"country"`
	PostalCode  string  `json:"postal_code"`
}

// PlaceAddress converts a geocoding hit into a selection ready for the chat.
func (g GeocodeResult) PlaceAddress(search bool) PlaceAddress {
	lat, lng := g.Latitude, g.Longitude
	return PlaceAddress{
		Search:      search,
		Latitude:    &lat,
		Longitude:   &lng,
		Country:     g.Country,
		FeatureName: g.FeatureName,
		Address:     g.Address,
		PostalCode:  g.PostalCode,
	}
}

// NearbyPlace is a named tourism feature from OpenStreetMap.
type NearbyPlace struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Weather is the current weather at a point. Code follows the WMO codes
// used by Open-Meteo.
type Weather struct {
	Temperature float64 `json:"temperature"`
	Code        int     `json:"weather_code"`
}

// Outdoor reports whether the weather favors open-air places
// (clear to overcast sky, WMO codes 1-3).
func (w Weather) Outdoor() bool {
	return w.Code >= 1 && w.Code <= 3
}
