package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hangout-backend/internal/models"
	"hangout-backend/internal/storage"
)

type profileStore interface {
	Create(ctx context.Context, p *models.UserProfile) error
	Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Update(ctx context.Context, userID uuid.UUID, name, email string, image *string) error
	GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, update models.UserPreferences) (*models.UserPreferences, error)
}

// ProfileService manages the per-user profile document and its preference
// flags.
type ProfileService struct {
	store   profileStore
	objects storage.ObjectStore
}

func NewProfileService(store profileStore, objects storage.ObjectStore) *ProfileService {
	return &ProfileService{store: store, objects: objects}
}

func profileErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: "Profile not found"}
	}
	return &ProfileError{Op: op, Err: err}
}

// CreateProfile stores a new profile with unset preferences. image is the
// URL of an already uploaded picture, if any.
func (s *ProfileService) CreateProfile(ctx context.Context, userID uuid.UUID, name, email string, image *string) (*models.UserProfile, error) {
	p := &models.UserProfile{
		UserID: userID,
		Name:   name,
		Email:  email,
	}
	if image != nil {
		p.ProfileImage = *image
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, profileErr("save", err)
	}
	return p, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, profileErr("load", err)
	}
	return p, nil
}

// UpdateProfile replaces name and email. The image URL only changes when a
// new one is given.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	fieldErrors := make(map[string]string)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if req.ProfileImage != nil && *req.ProfileImage == "" {
		fieldErrors["profile_image"] = "Profile image URL cannot be empty"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if err := s.store.Update(ctx, userID, req.Name, req.Email, req.ProfileImage); err != nil {
		return nil, profileErr("save", err)
	}
	return s.GetProfile(ctx, userID)
}

// UploadImage stores a new profile picture and points the profile at it.
func (s *ProfileService) UploadImage(ctx context.Context, userID uuid.UUID, data io.Reader, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", &ValidationError{Fields: map[string]string{"image": "File must be an image"}}
	}

	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	key := storage.ProfileImageKey(userID)
	url, err := s.objects.PutObject(ctx, key, data, contentType)
	if err != nil {
		return "", &ProfileError{Op: "upload", Err: err}
	}

	if err := s.store.Update(ctx, userID, current.Name, current.Email, &url); err != nil {
		s.deleteObject(ctx, key)
		return "", profileErr("save", err)
	}
	log.Printf("Profile image updated for %s", userID)

	if oldKey, ok := storage.ProfileImageKeyFromURL(userID, current.ProfileImage); ok && oldKey != key {
		s.deleteObject(ctx, oldKey)
	}
	return url, nil
}

// deleteObject removes an image nothing points at any more. Failures only
// leave an orphaned object behind, so they are logged.
func (s *ProfileService) deleteObject(ctx context.Context, key string) {
	if err := s.objects.DeleteObject(context.WithoutCancel(ctx), key); err != nil {
		log.Printf("Failed to delete profile image %s: %v", key, err)
	}
}

func (s *ProfileService) GetPreferences(ctx context.Context, userID uuid.UUID) (models.UserPreferences, error) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return models.UserPreferences{}, profileErr("load", err)
	}
	return *prefs, nil
}

// UpdatePreferences merges the non-nil flags of update into the stored ones
// and returns the result. An update with no flags set changes nothing.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID uuid.UUID, update models.UserPreferences) (models.UserPreferences, error) {
	if update.IsEmpty() {
		return s.GetPreferences(ctx, userID)
	}
	prefs, err := s.store.UpdatePreferences(ctx, userID, update)
	if err != nil {
		return models.UserPreferences{}, profileErr("save", err)
	}
	return *prefs, nil
}
