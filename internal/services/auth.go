package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"hangout-backend/internal/middleware"
	"hangout-backend/internal/models"
)

const (
	refreshTTL      = 7 * 24 * time.Hour
	resetTokenTTL   = time.Hour
	resetRateWindow = 60 * time.Second
)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// resetMailer hands reset links to the mail queue.
type resetMailer interface {
	QueuePasswordReset(ctx context.Context, to, token string) error
}

type AuthService struct {
	userRepo userStore
	profiles *ProfileService
	redis    *redis.Client
	jwt      *middleware.JWTAuth
	mailer   resetMailer
}

func NewAuthService(userRepo userStore, profiles *ProfileService, redisClient *redis.Client, jwt *middleware.JWTAuth, mailer resetMailer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		profiles: profiles,
		redis:    redisClient,
		jwt:      jwt,
		mailer:   mailer,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateRegistration(req models.RegisterRequest) error {
	fieldErrors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	} else if req.Password != req.ConfirmPassword {
		fieldErrors["confirm_password"] = "Passwords do not match"
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}

// Register creates the account and its profile with unset preferences, then
// signs the user in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.AuthTokens, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validateRegistration(req); err != nil {
		return nil, nil, err
	}

	_, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, nil, &ConflictError{Message: "Email already in use"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	// Hash password (bcrypt cost 12)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	// An account without a profile cannot be used, so roll the user back.
	if _, err := s.profiles.CreateProfile(ctx, user.ID, strings.TrimSpace(req.Name), user.Email, nil); err != nil {
		if delErr := s.userRepo.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			log.Printf("Failed to roll back user %s after profile error: %v", user.ID, delErr)
		}
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, &ValidationError{Fields: map[string]string{"email": "Email and password are required"}}
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	s.userRepo.UpdateLastLogin(ctx, user.ID)

	return s.issueTokens(ctx, user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	userIDStr, err := s.redis.Get(ctx, "refresh:"+refreshToken).Result()
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	// Delete old token (rotation)
	s.redis.Del(ctx, "refresh:"+refreshToken)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, "refresh:"+refreshToken).Err()
}

// ForgotPassword mails a reset link. Unknown addresses get the same answer
// as known ones.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegex.MatchString(email) {
		return &ValidationError{Fields: map[string]string{"email": "Invalid email format"}}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	rateLimitKey := fmt.Sprintf("reset_limit:%s", user.ID.String())
	exists, _ := s.redis.Exists(ctx, rateLimitKey).Result()
	if exists > 0 {
		return &RateLimitError{Message: "Please wait 60 seconds before requesting another reset email"}
	}

	token, err := generateToken(32)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, "password_reset:"+token, user.ID.String(), resetTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	s.redis.Set(ctx, rateLimitKey, "1", resetRateWindow)

	if err := s.mailer.QueuePasswordReset(ctx, user.Email, token); err != nil {
		log.Printf("Password reset email for %s not queued: %v", user.ID, err)
	}

	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := validatePassword(req.Password); err != nil {
		return &ValidationError{Fields: map[string]string{"password": err.Error()}}
	}

	userIDStr, err := s.redis.Get(ctx, "password_reset:"+req.Token).Result()
	if err != nil {
		return &NotFoundError{Message: "Invalid or expired reset token"}
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("invalid user ID in token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	s.redis.Del(ctx, "password_reset:"+req.Token)
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	err = s.redis.Set(ctx, "refresh:"+refreshToken, user.ID.String(), refreshTTL).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
