package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"hangout-backend/internal/middleware"
	"hangout-backend/internal/models"
)

const maxImageSize = 5 << 20

type profileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.UserProfile, error)
	UploadImage(ctx context.Context, userID uuid.UUID, data io.Reader, contentType string) (string, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (models.UserPreferences, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, update models.UserPreferences) (models.UserPreferences, error)
}

type ProfileHandler struct {
	profiles profileService
}

func NewProfileHandler(profiles profileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, r)
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UploadImage accepts a multipart form with an "image" file part. The
// content type is sniffed from the payload, not taken from the client.
func (h *ProfileHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+(1<<20))
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Image must be 5 MB or smaller", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Expected multipart form data", r))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"image": "Image file is required"}, r))
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Image must be 5 MB or smaller", r))
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read image", r))
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"image": "File must be an image"}, r))
		return
	}

	url, err := h.profiles.UploadImage(r.Context(), userID, io.MultiReader(bytes.NewReader(head), file), contentType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"profile_image": url})
}

func (h *ProfileHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	prefs, err := h.profiles.GetPreferences(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences merges the flags present in the body. Absent flags keep
// their stored value.
func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var update models.UserPreferences
	if err := decodeJSON(w, r, &update); err != nil {
		invalidBody(w, r)
		return
	}

	prefs, err := h.profiles.UpdatePreferences(r.Context(), userID, update)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
