package repositories

import (
	"context"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SMSLogRepository struct {
	DB *pgxpool.Pool
}

func NewSMSLogRepository(db *pgxpool.Pool) *SMSLogRepository {
	return &SMSLogRepository{DB: db}
}

func (r *SMSLogRepository) Create(ctx context.Context, l *models.SMSLog) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO sms_logs(user_id, mobile, message, message_type, status, error_message)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at`,
		l.UserID, l.Mobile, l.Message, l.MessageType, l.Status, l.ErrorMessage,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *SMSLogRepository) List(ctx context.Context, limit int) ([]*models.SMSLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, mobile, message, message_type, status, error_message, created_at
         FROM sms_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.SMSLog
	for rows.Next() {
		var l models.SMSLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Mobile, &l.Message, &l.MessageType,
			&l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
