// Package prompt renders the instructions sent to the generative model when a
// user asks for places around a location.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"hangout-backend/internal/models"
)

// NoResultsReply is the exact sentence the model must answer with when
// nothing is nearby.
const NoResultsReply = "No se encontraron lugares cercanos."

const placesTemplate = "Dame una lista de puntos de interes para socializar o turistear cercanos a la ubicación con latitud: " +
	"%s y longitud: %s, teniendo en cuenta esta información " +
	"%s, %s, %s, postalCode: %s.\n" +
	"Ademas tienes que tener en cuenta estas preferencias %s. Cada lugar debe tener solo su nombre y una descripción muy breve (máximo una línea). " +
	"No agregues información extra como horarios o reseñas, solo el nombre y una descripción corta." +
	"Responde de manera concisa, solo con los lugares cercanos, si no hay, responde con '" + NoResultsReply + "'. Si puedes dar detalles de los sitios, mejor"

const noLocationTemplate = "No se ha indicado ninguna ubicación. Responde únicamente con '" + NoResultsReply + "'"

const (
	outdoorHint = "\nEl clima actual es de %s °C y favorable para actividades al aire libre: prioriza parques, miradores, atracciones, zonas de picnic y parques temáticos."
	indoorHint  = "\nEl clima actual es de %s °C y poco favorable para estar al aire libre: prioriza museos, galerías, restaurantes y centros comerciales."
)

// Build renders the recommendation prompt for place. A nil place or one
// without coordinates yields the canned no-location instruction.
func Build(place *models.PlaceAddress, prefs models.UserPreferences) string {
	if !place.HasLocation() {
		return noLocationTemplate
	}
	return fmt.Sprintf(placesTemplate,
		formatCoord(*place.Latitude),
		formatCoord(*place.Longitude),
		place.Country,
		place.FeatureName,
		place.Address,
		place.PostalCode,
		Preferences(prefs),
	)
}

// BuildWithWeather is Build plus an indoor/outdoor hint derived from the
// current weather. A nil weather behaves like Build.
func BuildWithWeather(place *models.PlaceAddress, prefs models.UserPreferences, weather *models.Weather) string {
	base := Build(place, prefs)
	if weather == nil || !place.HasLocation() {
		return base
	}
	hint := indoorHint
	if weather.Outdoor() {
		hint = outdoorHint
	}
	return base + fmt.Sprintf(hint, formatCoord(weather.Temperature))
}

// Preferences lists the enabled categories in a fixed order, comma separated.
func Preferences(prefs models.UserPreferences) string {
	var parts []string
	if isSet(prefs.Bars) {
		parts = append(parts, "bares")
	}
	if isSet(prefs.Museums) {
		parts = append(parts, "museos")
	}
	if isSet(prefs.Parks) {
		parts = append(parts, "parques")
	}
	if isSet(prefs.Restaurants) {
		parts = append(parts, "restaurantes")
	}
	return strings.Join(parts, ", ")
}

func isSet(b *bool) bool {
	return b != nil && *b
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
