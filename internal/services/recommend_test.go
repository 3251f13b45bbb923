package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"hangout-backend/internal/chat"
	"hangout-backend/internal/models"
)

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "Museo del Prado: pinacoteca.", nil
}

type stubPrefs struct {
	prefs models.UserPreferences
	err   error
}

func (s stubPrefs) GetPreferences(ctx context.Context, userID uuid.UUID) (models.UserPreferences, error) {
	return s.prefs, s.err
}

type stubWeather struct {
	weather *models.Weather
	err     error
}

func (s stubWeather) CurrentWeather(ctx context.Context, lat, lng float64) (*models.Weather, error) {
	return s.weather, s.err
}

func madridSelection(search bool) models.PlaceAddress {
	lat, lng := 40.4168, -3.7038
	return models.PlaceAddress{
		Search: search, Latitude: &lat, Longitude: &lng,
		Country: "España", FeatureName: "Sol", Address: "Madrid", PostalCode: "28013",
	}
}

func waitChat(t *testing.T, c *chat.Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("chat did not settle: %v", err)
	}
}

func TestRecommend_SendsPromptWithPreferencesAndWeather(t *testing.T) {
	manager := chat.NewManager(echoGenerator{}, nil, nil, chat.ManagerConfig{})
	defer manager.CloseAll()

	svc := NewRecommendationService(
		stubPrefs{prefs: models.UserPreferences{Museums: models.Bool(true), Bars: models.Bool(true)}},
		stubWeather{weather: &models.Weather{Temperature: 12, Code: 63}},
		manager,
	)

	rec, err := svc.Recommend(context.Background(), uuid.New(), madridSelection(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Sent {
		t.Fatal("expected prompt to be sent")
	}
	if !strings.Contains(rec.Prompt, "estas preferencias bares, museos.") {
		t.Fatalf("prompt missing preferences: %q", rec.Prompt)
	}
	if !strings.Contains(rec.Prompt, "prioriza museos") {
		t.Fatalf("prompt missing indoor hint: %q", rec.Prompt)
	}

	waitChat(t, rec.Chat)
	msgs := rec.Chat.Messages()
	if len(msgs) != 2 || msgs[0].Text != rec.Prompt || msgs[1].Participant != models.ParticipantModel {
		t.Fatalf("unexpected conversation %+v", msgs)
	}
}

func TestRecommend_SkipsWhenSearchUnset(t *testing.T) {
	manager := chat.NewManager(echoGenerator{}, nil, nil, chat.ManagerConfig{})
	defer manager.CloseAll()
	svc := NewRecommendationService(stubPrefs{}, nil, manager)

	rec, err := svc.Recommend(context.Background(), uuid.New(), madridSelection(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Sent || len(rec.Chat.Messages()) != 0 {
		t.Fatal("expected nothing to be sent")
	}
}

func TestRecommend_DegradesWithoutPreferencesOrWeather(t *testing.T) {
	manager := chat.NewManager(echoGenerator{}, nil, nil, chat.ManagerConfig{})
	defer manager.CloseAll()
	svc := NewRecommendationService(
		stubPrefs{err: errors.New("db down")},
		stubWeather{err: errors.New("timeout")},
		manager,
	)

	rec, err := svc.Recommend(context.Background(), uuid.New(), madridSelection(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(rec.Prompt, "El clima actual") {
		t.Fatalf("expected no weather hint: %q", rec.Prompt)
	}
	waitChat(t, rec.Chat)
}

func TestRecommend_PendingConversation(t *testing.T) {
	manager := chat.NewManager(blockingGenerator{}, nil, nil, chat.ManagerConfig{})
	defer manager.CloseAll()
	svc := NewRecommendationService(stubPrefs{}, nil, manager)
	userID := uuid.New()

	if _, err := svc.Recommend(context.Background(), userID, madridSelection(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Recommend(context.Background(), userID, madridSelection(true))
	if !errors.Is(err, chat.ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
