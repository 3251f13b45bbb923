package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hangout-backend/internal/models"
)

type stubProfileStore struct {
	profiles map[uuid.UUID]*models.UserProfile
	err       error
	updateErr error
	prefCall  int
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{profiles: make(map[uuid.UUID]*models.UserProfile)}
}

func (s *stubProfileStore) Create(ctx context.Context, p *models.UserProfile) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.profiles[p.UserID]; !ok {
		cp := *p
		s.profiles[p.UserID] = &cp
	}
	return nil
}

func (s *stubProfileStore) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *stubProfileStore) Update(ctx context.Context, userID uuid.UUID, name, email string, image *string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Name, p.Email = name, email
	if image != nil {
		p.ProfileImage = *image
	}
	return nil
}

func (s *stubProfileStore) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &p.Preferences, nil
}

func (s *stubProfileStore) UpdatePreferences(ctx context.Context, userID uuid.UUID, update models.UserPreferences) (*models.UserPreferences, error) {
	s.prefCall++
	p, ok := s.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p.Preferences = applyPreferences(p.Preferences, update)
	prefs := p.Preferences
	return &prefs, nil
}

type stubObjectStore struct {
	keys    []string
	deleted []string
	err     error
}

func (s *stubObjectStore) PutObject(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	io.Copy(io.Discard, data)
	s.keys = append(s.keys, key)
	return "https://cdn.example/" + key, nil
}

func (s *stubObjectStore) DeleteObject(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

// applyPreferences overlays the set flags of update the way the
// preferences column is updated in SQL.
func applyPreferences(p, update models.UserPreferences) models.UserPreferences {
	for _, f := range []struct{ dst, src **bool }{
		{&p.Museums, &update.Museums},
		{&p.Restaurants, &update.Restaurants},
		{&p.Parks, &update.Parks},
		{&p.Bars, &update.Bars},
	} {
		if *f.src != nil {
			*f.dst = *f.src
		}
	}
	return p
}

func TestProfileService_PreferencesPartialUpdate(t *testing.T) {
	store := newStubProfileStore()
	svc := NewProfileService(store, &stubObjectStore{})
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.CreateProfile(ctx, userID, "Ana", "ana@example.com", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.UpdatePreferences(ctx, userID, models.UserPreferences{Museums: models.Bool(true)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.UpdatePreferences(ctx, userID, models.UserPreferences{Parks: models.Bool(true)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prefs, err := svc.GetPreferences(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefs.Museums == nil || !*prefs.Museums {
		t.Fatal("expected museums to survive a later partial update")
	}
	if prefs.Parks == nil || !*prefs.Parks {
		t.Fatal("expected parks to be set")
	}
	if prefs.Bars != nil || prefs.Restaurants != nil {
		t.Fatal("expected untouched flags to stay unset")
	}
}

func TestProfileService_EmptyPreferenceUpdateIsNoOp(t *testing.T) {
	store := newStubProfileStore()
	svc := NewProfileService(store, &stubObjectStore{})
	userID := uuid.New()
	svc.CreateProfile(context.Background(), userID, "Ana", "ana@example.com", nil)

	if _, err := svc.UpdatePreferences(context.Background(), userID, models.UserPreferences{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.prefCall != 0 {
		t.Fatalf("expected no store write, got %d", store.prefCall)
	}
}

func TestProfileService_MissingProfile(t *testing.T) {
	svc := NewProfileService(newStubProfileStore(), &stubObjectStore{})

	_, err := svc.GetProfile(context.Background(), uuid.New())
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestProfileService_StoreFailureIsProfileError(t *testing.T) {
	store := newStubProfileStore()
	store.err = errors.New("connection refused")
	svc := NewProfileService(store, &stubObjectStore{})

	_, err := svc.GetProfile(context.Background(), uuid.New())
	var pe *ProfileError
	if !errors.As(err, &pe) || pe.Op != "load" {
		t.Fatalf("expected load ProfileError, got %v", err)
	}
}

func TestProfileService_UpdateProfileKeepsImageUnlessGiven(t *testing.T) {
	store := newStubProfileStore()
	svc := NewProfileService(store, &stubObjectStore{})
	userID := uuid.New()
	img := "https://cdn.example/old"
	svc.CreateProfile(context.Background(), userID, "Ana", "ana@example.com", &img)

	p, err := svc.UpdateProfile(context.Background(), userID, models.UpdateProfileRequest{Name: "Ana María", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Ana María" || p.ProfileImage != img {
		t.Fatalf("unexpected profile %+v", p)
	}

	_, err = svc.UpdateProfile(context.Background(), userID, models.UpdateProfileRequest{Name: "", Email: "bad"})
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestProfileService_UploadImage(t *testing.T) {
	store := newStubProfileStore()
	objects := &stubObjectStore{}
	svc := NewProfileService(store, objects)
	userID := uuid.New()
	svc.CreateProfile(context.Background(), userID, "Ana", "ana@example.com", nil)

	url, err := svc.UploadImage(context.Background(), userID, strings.NewReader("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects.keys) != 1 || !strings.HasPrefix(objects.keys[0], "profile_images/"+userID.String()+"/") {
		t.Fatalf("unexpected object keys %v", objects.keys)
	}
	p, _ := svc.GetProfile(context.Background(), userID)
	if p.ProfileImage != url {
		t.Fatalf("expected profile image %q, got %q", url, p.ProfileImage)
	}

	_, err = svc.UploadImage(context.Background(), userID, strings.NewReader("x"), "text/plain")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for non-image, got %v", err)
	}

	objects.err = errors.New("bucket missing")
	_, err = svc.UploadImage(context.Background(), userID, strings.NewReader("img"), "image/png")
	var pe *ProfileError
	if !errors.As(err, &pe) || pe.Op != "upload" {
		t.Fatalf("expected upload ProfileError, got %v", err)
	}
}

func TestProfileService_UploadImageReplacesPrevious(t *testing.T) {
	store := newStubProfileStore()
	objects := &stubObjectStore{}
	svc := NewProfileService(store, objects)
	userID := uuid.New()
	ctx := context.Background()
	svc.CreateProfile(ctx, userID, "Ana", "ana@example.com", nil)

	first, err := svc.UploadImage(ctx, userID, strings.NewReader("one"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects.deleted) != 0 {
		t.Fatalf("nothing to replace on first upload, deleted %v", objects.deleted)
	}

	second, err := svc.UploadImage(ctx, userID, strings.NewReader("two"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatal("expected a fresh object key per upload")
	}
	if len(objects.deleted) != 1 || objects.deleted[0] != objects.keys[0] {
		t.Fatalf("expected previous image %q deleted, got %v", objects.keys[0], objects.deleted)
	}
}

func TestProfileService_UploadImageCleansUpWhenSaveFails(t *testing.T) {
	store := newStubProfileStore()
	objects := &stubObjectStore{}
	svc := NewProfileService(store, objects)
	userID := uuid.New()
	ctx := context.Background()
	svc.CreateProfile(ctx, userID, "Ana", "ana@example.com", nil)

	store.updateErr = errors.New("connection reset")
	_, err := svc.UploadImage(ctx, userID, strings.NewReader("img"), "image/png")
	var pe *ProfileError
	if !errors.As(err, &pe) || pe.Op != "save" {
		t.Fatalf("expected save ProfileError, got %v", err)
	}
	if len(objects.keys) != 1 || len(objects.deleted) != 1 || objects.deleted[0] != objects.keys[0] {
		t.Fatalf("expected uploaded object %v to be deleted, got %v", objects.keys, objects.deleted)
	}
}

func TestProfileService_UploadImageKeepsForeignImage(t *testing.T) {
	store := newStubProfileStore()
	objects := &stubObjectStore{}
	svc := NewProfileService(store, objects)
	userID := uuid.New()
	ctx := context.Background()
	svc.CreateProfile(ctx, userID, "Ana", "ana@example.com", nil)

	other := "https://cdn.example/profile_images/" + uuid.New().String() + "/x"
	store.profiles[userID].ProfileImage = other

	if _, err := svc.UploadImage(ctx, userID, strings.NewReader("img"), "image/png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects.deleted) != 0 {
		t.Fatalf("another user's image must not be deleted, got %v", objects.deleted)
	}
}
