package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"hangout-backend/internal/chat"
	"hangout-backend/internal/models"
	"hangout-backend/internal/prompt"
)

const weatherLookupTimeout = 5 * time.Second

type preferenceSource interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (models.UserPreferences, error)
}

type weatherSource interface {
	CurrentWeather(ctx context.Context, lat, lng float64) (*models.Weather, error)
}

type conversationSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*chat.Controller, error)
}

// RecommendationService turns a place selection into a chat prompt.
type RecommendationService struct {
	prefs   preferenceSource
	weather weatherSource
	chats   conversationSource
}

// NewRecommendationService wires the flow. weather may be nil, in which case
// prompts carry no indoor/outdoor hint.
func NewRecommendationService(prefs preferenceSource, weather weatherSource, chats conversationSource) *RecommendationService {
	return &RecommendationService{prefs: prefs, weather: weather, chats: chats}
}

type Recommendation struct {
	Sent   bool
	Prompt string
	Chat   *chat.Controller
}

// Recommend sends the place prompt to the user's conversation. Nothing is
// sent unless place.Search is set. Missing preferences or weather degrade
// the prompt instead of failing the request.
func (s *RecommendationService) Recommend(ctx context.Context, userID uuid.UUID, place models.PlaceAddress) (*Recommendation, error) {
	conv, err := s.chats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !place.Search {
		return &Recommendation{Chat: conv}, nil
	}

	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		log.Printf("Recommendation for %s: preferences unavailable: %v", userID, err)
		prefs = models.UserPreferences{}
	}

	var weather *models.Weather
	if s.weather != nil && place.HasLocation() {
		wctx, cancel := context.WithTimeout(ctx, weatherLookupTimeout)
		weather, err = s.weather.CurrentWeather(wctx, *place.Latitude, *place.Longitude)
		cancel()
		if err != nil {
			log.Printf("Recommendation for %s: weather unavailable: %v", userID, err)
			weather = nil
		}
	}

	text := prompt.BuildWithWeather(&place, prefs, weather)
	if err := conv.SendMessage(text); err != nil {
		return nil, err
	}
	return &Recommendation{Sent: true, Prompt: text, Chat: conv}, nil
}
