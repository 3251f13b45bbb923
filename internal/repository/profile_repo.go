package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hangout-backend/internal/models"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// Create inserts a profile with every preference unset. Creating a profile
// that already exists is a no-op.
func (r *ProfileRepo) Create(ctx context.Context, p *models.UserProfile) error {
	query := `INSERT INTO profiles (user_id, name, email, profile_image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, p.UserID, p.Name, p.Email, p.ProfileImage)
	return err
}

func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	query := `SELECT user_id, name, email, profile_image,
		pref_museums, pref_restaurants, pref_parks, pref_bars, updated_at
		FROM profiles WHERE user_id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Name, &p.Email, &p.ProfileImage,
		&p.Preferences.Museums, &p.Preferences.Restaurants, &p.Preferences.Parks, &p.Preferences.Bars,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces name and email. The image URL is only replaced when image
// is non-nil.
func (r *ProfileRepo) Update(ctx context.Context, userID uuid.UUID, name, email string, image *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET name = $1, email = $2, profile_image = COALESCE($3, profile_image), updated_at = NOW()
		WHERE user_id = $4`,
		name, email, image, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ProfileRepo) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	prefs := &models.UserPreferences{}
	err := r.pool.QueryRow(ctx,
		`SELECT pref_museums, pref_restaurants, pref_parks, pref_bars FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&prefs.Museums, &prefs.Restaurants, &prefs.Parks, &prefs.Bars)
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// UpdatePreferences applies the non-nil flags of update and returns the
// merged preferences.
func (r *ProfileRepo) UpdatePreferences(ctx context.Context, userID uuid.UUID, update models.UserPreferences) (*models.UserPreferences, error) {
	prefs := &models.UserPreferences{}
	err := r.pool.QueryRow(ctx,
		`UPDATE profiles SET
			pref_museums = COALESCE($1, pref_museums),
			pref_restaurants = COALESCE($2, pref_restaurants),
			pref_parks = COALESCE($3, pref_parks),
			pref_bars = COALESCE($4, pref_bars),
			updated_at = NOW()
		WHERE user_id = $5
		RETURNING pref_museums, pref_restaurants, pref_parks, pref_bars`,
		update.Museums, update.Restaurants, update.Parks, update.Bars, userID,
	).Scan(&prefs.Museums, &prefs.Restaurants, &prefs.Parks, &prefs.Bars)
	if err != nil {
		return nil, err
	}
	return prefs, nil
}
