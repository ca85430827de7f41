package repositories

import (
	"context"
	"errors"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TOTPRepository struct {
	DB *pgxpool.Pool
}

func NewTOTPRepository(db *pgxpool.Pool) *TOTPRepository {
	return &TOTPRepository{DB: db}
}

// Upsert replaces any existing secret for the user. Re-enrolling resets
// enabled, so the new secret must be verified before it counts.
func (r *TOTPRepository) Upsert(ctx context.Context, userID int, secret string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO totp_secrets(user_id, secret, enabled)
         VALUES($1, $2, FALSE)
         ON CONFLICT (user_id) DO UPDATE SET secret=EXCLUDED.secret, enabled=FALSE`,
		userID, secret)
	return err
}

// GetByUser returns nil when the user has never enrolled
func (r *TOTPRepository) GetByUser(ctx context.Context, userID int) (*models.TOTPSecret, error) {
	var t models.TOTPSecret
	err := r.DB.QueryRow(ctx,
		`SELECT id, user_id, secret, enabled, created_at FROM totp_secrets WHERE user_id=$1`,
		userID).Scan(&t.ID, &t.UserID, &t.Secret, &t.Enabled, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TOTPRepository) Enable(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE totp_secrets SET enabled=TRUE WHERE user_id=$1`, userID)
	return err
}

func (r *TOTPRepository) Delete(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		`DELETE FROM totp_secrets WHERE user_id=$1`, userID)
	return err
}
