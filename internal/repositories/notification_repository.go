package repositories

import (
	"context"
	"time"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	DB *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO notifications(user_id, title, body, status, attempts, next_attempt_at)
         VALUES($1, $2, $3, $4, 0, CURRENT_TIMESTAMP)
         RETURNING id, created_at`,
		n.UserID, n.Title, n.Body, models.NotificationStatusPending,
	).Scan(&n.ID, &n.CreatedAt)
}

// ListDue returns notifications ready for a delivery attempt: pending or
// retryable, with their backoff deadline passed. Oldest first so a burst
// drains in enqueue order.
func (r *NotificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Notification, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, title, body, status, attempts, last_error, next_attempt_at, send_at, created_at
         FROM notifications
         WHERE status IN ($1, $2) AND next_attempt_at <= $3
         ORDER BY created_at ASC
         LIMIT $4`,
		models.NotificationStatusPending, models.NotificationStatusError, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Status,
			&n.Attempts, &n.LastError, &n.NextAttemptAt, &n.SendAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		due = append(due, &n)
	}
	return due, rows.Err()
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE notifications SET status=$1, send_at=CURRENT_TIMESTAMP WHERE id=$2`,
		models.NotificationStatusSent, id)
	return err
}

// MarkTerminal parks a notification in a final state the dispatcher will
// never pick up again (failed, or the user has no device token).
func (r *NotificationRepository) MarkTerminal(ctx context.Context, id int, status, lastError string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE notifications SET status=$1, last_error=$2, send_at=CURRENT_TIMESTAMP WHERE id=$3`,
		status, lastError, id)
	return err
}

// MarkRetry records a failed attempt and schedules the next one
func (r *NotificationRepository) MarkRetry(ctx context.Context, id, attempts int, next time.Time, lastError string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE notifications SET status=$1, attempts=$2, next_attempt_at=$3, last_error=$4 WHERE id=$5`,
		models.NotificationStatusError, attempts, next, lastError, id)
	return err
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, title, body, status, attempts, last_error, next_attempt_at, send_at, created_at
         FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Status,
			&n.Attempts, &n.LastError, &n.NextAttemptAt, &n.SendAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}
