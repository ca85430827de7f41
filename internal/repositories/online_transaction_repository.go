package repositories

import (
	"context"
	"errors"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

func (r *OnlineTransactionRepository) Create(ctx context.Context, t *models.OnlineTransaction) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO online_transactions(service_request_id, razorpay_order_id, amount, status)
         VALUES($1, $2, $3, $4)
         RETURNING id, created_at, updated_at`,
		t.ServiceRequestID, t.OrderID, t.Amount, models.TransactionStatusCreated,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	var t models.OnlineTransaction
	err := r.DB.QueryRow(ctx,
		`SELECT id, service_request_id, razorpay_order_id, razorpay_payment_id, amount, status, created_at, updated_at
         FROM online_transactions WHERE razorpay_order_id=$1`, orderID,
	).Scan(&t.ID, &t.ServiceRequestID, &t.OrderID, &t.PaymentID, &t.Amount,
		&t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkPaid records the payment id once the checkout signature has verified.
// The status guard keeps a replayed callback from rewriting a settled row.
func (r *OnlineTransactionRepository) MarkPaid(ctx context.Context, orderID, paymentID string) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET status=$1, razorpay_payment_id=$2, updated_at=CURRENT_TIMESTAMP
         WHERE razorpay_order_id=$3 AND status=$4`,
		models.TransactionStatusPaid, paymentID, orderID, models.TransactionStatusCreated)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, orderID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET status=$1, updated_at=CURRENT_TIMESTAMP
         WHERE razorpay_order_id=$2`,
		models.TransactionStatusFailed, orderID)
	return err
}
