package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServiceRequestRepository struct {
	DB *pgxpool.Pool
}

func NewServiceRequestRepository(db *pgxpool.Pool) *ServiceRequestRepository {
	return &ServiceRequestRepository{DB: db}
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func marshalAssets(assets []models.Asset) ([]byte, error) {
	if assets == nil {
		assets = []models.Asset{}
	}
	return json.Marshal(assets)
}

// CreateWithProblem inserts the service request and its problem report in one
// transaction, so a failure between the two writes cannot leave an orphaned
// request. Retries the date-sequence request code on a concurrent collision.
func (r *ServiceRequestRepository) CreateWithProblem(ctx context.Context, sr *models.ServiceRequest, p *models.Problem) error {
	for attempt := 0; attempt < 3; attempt++ {
		err := r.createWithProblemOnce(ctx, sr, p)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			// Another request grabbed the same code; re-count and retry
			prefix := timeutil.Now().Format(timeutil.CodeDateLayout) + "-"
			count, countErr := r.CountByCodePrefix(ctx, prefix)
			if countErr != nil {
				return countErr
			}
			sr.RequestCode = fmt.Sprintf("%s%04d", prefix, count+1)
			continue
		}
		return err
	}
	return errors.New("could not allocate a unique request code")
}

func (r *ServiceRequestRepository) createWithProblemOnce(ctx context.Context, sr *models.ServiceRequest, p *models.Problem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO service_requests(request_code, product_id, status, payable_amount, created_by)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		sr.RequestCode, sr.ProductID, models.StatusProblemLogged, sr.PayableAmount, sr.CreatedByID,
	).Scan(&sr.ID, &sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return err
	}
	sr.Status = models.StatusProblemLogged

	photosJSON, err := marshalAssets(p.Photos)
	if err != nil {
		return err
	}
	videosJSON, err := marshalAssets(p.Videos)
	if err != nil {
		return err
	}

	p.ServiceRequestID = sr.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO problems(service_request_id, product_id, description, photos, videos, created_by)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at`,
		p.ServiceRequestID, p.ProductID, p.Description, photosJSON, videosJSON, p.CreatedByID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const requestColumns = `id, request_code, product_id, status, assigned_engineer_id, closed_by,
         happy_code, payable_amount, paid_amount, payment_mode, payment_date,
         approved_on, closed_on, created_by, updated_by, created_at, updated_at`

func scanRequest(row interface{ Scan(dest ...any) error }) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := row.Scan(&sr.ID, &sr.RequestCode, &sr.ProductID, &sr.Status,
		&sr.AssignedEngineerID, &sr.ClosedByID, &sr.HappyCode,
		&sr.PayableAmount, &sr.PaidAmount, &sr.PaymentMode, &sr.PaymentDate,
		&sr.ApprovedOn, &sr.ClosedOn, &sr.CreatedByID, &sr.UpdatedByID,
		&sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

func (r *ServiceRequestRepository) Get(ctx context.Context, id int) (*models.ServiceRequest, error) {
	return scanRequest(r.DB.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM service_requests WHERE id=$1`, id))
}

// CountByCodePrefix counts requests whose code starts with the given date
// prefix, used to pick the next counter suffix.
func (r *ServiceRequestRepository) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE request_code LIKE $1`, prefix+"%").Scan(&count)
	return count, err
}

// AssignEngineer moves problem_logged -> engineer_assigned. The status guard
// in the WHERE clause makes concurrent assigns lose cleanly instead of
// overwriting each other.
func (r *ServiceRequestRepository) AssignEngineer(ctx context.Context, id, engineerID, updatedBy int) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE service_requests
         SET status=$1, assigned_engineer_id=$2, approved_on=CURRENT_TIMESTAMP,
             updated_by=$3, updated_at=CURRENT_TIMESTAMP
         WHERE id=$4 AND status=$5`,
		models.StatusEngineerAssigned, engineerID, updatedBy, id, models.StatusProblemLogged)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AttachSolution inserts the solution and moves the request to
// solution_attached with a fresh happy code, in one transaction. Returns
// false when the request is not in an attachable state (already solved or
// closed), which also covers two engineers racing to handle the same request.
func (r *ServiceRequestRepository) AttachSolution(ctx context.Context, sol *models.Solution, happyCode string, updatedBy int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE service_requests
         SET status=$1, happy_code=$2, updated_by=$3, updated_at=CURRENT_TIMESTAMP
         WHERE id=$4 AND status IN ($5, $6)`,
		models.StatusSolutionAttached, happyCode, updatedBy, sol.ServiceRequestID,
		models.StatusProblemLogged, models.StatusEngineerAssigned)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	photosJSON, err := marshalAssets(sol.Photos)
	if err != nil {
		return false, err
	}
	videosJSON, err := marshalAssets(sol.Videos)
	if err != nil {
		return false, err
	}
	if sol.SparePartIDs == nil {
		sol.SparePartIDs = []int{}
	}
	partsJSON, err := json.Marshal(sol.SparePartIDs)
	if err != nil {
		return false, err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO solutions(service_request_id, product_id, description, photos, videos,
             spare_part_ids, created_by)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at`,
		sol.ServiceRequestID, sol.ProductID, sol.Description, photosJSON, videosJSON,
		partsJSON, sol.CreatedByID,
	).Scan(&sol.ID, &sol.CreatedAt)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Close consumes the happy code: the conditional UPDATE matches only a
// solution_attached request holding exactly this code, so two close attempts
// cannot both succeed and a wrong code changes nothing.
func (r *ServiceRequestRepository) Close(ctx context.Context, id int, code string, payment *models.ClosePayment, closedBy int) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE service_requests
         SET status=$1, happy_code=NULL, closed_by=$2, closed_on=CURRENT_TIMESTAMP,
             paid_amount=$3, payable_amount=$4, payment_mode=$5, payment_date=$6,
             updated_by=$2, updated_at=CURRENT_TIMESTAMP
         WHERE id=$7 AND status=$8 AND happy_code=$9`,
		models.StatusClosed, closedBy, payment.PaidAmount, payment.PayableAmount,
		payment.PaymentMode, payment.PaymentDate, id, models.StatusSolutionAttached, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RecordOnlinePayment stamps a verified online payment on the request
func (r *ServiceRequestRepository) RecordOnlinePayment(ctx context.Context, id int, amount float64) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE service_requests
         SET paid_amount=$1, payment_mode='online', payment_date=CURRENT_TIMESTAMP,
             updated_at=CURRENT_TIMESTAMP
         WHERE id=$2`,
		amount, id)
	return err
}

const summarySelect = `
    SELECT sr.id, sr.request_code, sr.status, sr.product_id, rp.sl_no, m.name,
           c.id, c.name, eng.name, clo.name,
           sr.payable_amount, sr.paid_amount, sr.created_at, sr.closed_on
    FROM service_requests sr
    JOIN registered_products rp ON rp.id = sr.product_id
    JOIN machines m ON m.id = rp.machine_id
    JOIN customers c ON c.id = rp.customer_id
    LEFT JOIN users eng ON eng.id = sr.assigned_engineer_id
    LEFT JOIN users clo ON clo.id = sr.closed_by`

func scanSummary(row interface{ Scan(dest ...any) error }, s *models.ServiceRequestSummary) error {
	return row.Scan(&s.ID, &s.RequestCode, &s.Status, &s.ProductID, &s.SerialNumber,
		&s.MachineName, &s.CustomerID, &s.CustomerName, &s.EngineerName, &s.ClosedByName,
		&s.PayableAmount, &s.PaidAmount, &s.CreatedAt, &s.ClosedOn)
}

func (r *ServiceRequestRepository) List(ctx context.Context) ([]*models.ServiceRequestSummary, error) {
	rows, err := r.DB.Query(ctx, summarySelect+` ORDER BY sr.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.ServiceRequestSummary
	for rows.Next() {
		var s models.ServiceRequestSummary
		if err := scanSummary(rows, &s); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// ListByCustomer scopes the request list to a tenant
func (r *ServiceRequestRepository) ListByCustomer(ctx context.Context, customerID int) ([]*models.ServiceRequestSummary, error) {
	rows, err := r.DB.Query(ctx, summarySelect+` WHERE c.id=$1 ORDER BY sr.created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.ServiceRequestSummary
	for rows.Next() {
		var s models.ServiceRequestSummary
		if err := scanSummary(rows, &s); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// GetDetailed returns the joined projection plus problem and solution reports
func (r *ServiceRequestRepository) GetDetailed(ctx context.Context, id int) (*models.ServiceRequestDetail, error) {
	var d models.ServiceRequestDetail
	row := r.DB.QueryRow(ctx, `
        SELECT sr.id, sr.request_code, sr.status, sr.product_id, rp.sl_no, m.name,
               c.id, c.name, eng.name, clo.name,
               sr.payable_amount, sr.paid_amount, sr.created_at, sr.closed_on,
               c.mobile, sr.payment_mode, sr.payment_date
        FROM service_requests sr
        JOIN registered_products rp ON rp.id = sr.product_id
        JOIN machines m ON m.id = rp.machine_id
        JOIN customers c ON c.id = rp.customer_id
        LEFT JOIN users eng ON eng.id = sr.assigned_engineer_id
        LEFT JOIN users clo ON clo.id = sr.closed_by
        WHERE sr.id=$1`, id)
	err := row.Scan(&d.ID, &d.RequestCode, &d.Status, &d.ProductID, &d.SerialNumber,
		&d.MachineName, &d.CustomerID, &d.CustomerName, &d.EngineerName, &d.ClosedByName,
		&d.PayableAmount, &d.PaidAmount, &d.CreatedAt, &d.ClosedOn,
		&d.CustomerMobile, &d.PaymentMode, &d.PaymentDate)
	if err != nil {
		return nil, err
	}

	if d.Problem, err = r.GetProblem(ctx, id); err != nil {
		return nil, err
	}
	if d.Solution, err = r.GetSolution(ctx, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetProblem returns the request's problem report, or nil when none exists
func (r *ServiceRequestRepository) GetProblem(ctx context.Context, requestID int) (*models.Problem, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, service_request_id, product_id, description, photos, videos, created_by, created_at
         FROM problems WHERE service_request_id=$1`, requestID)

	var p models.Problem
	var photosJSON, videosJSON []byte
	err := row.Scan(&p.ID, &p.ServiceRequestID, &p.ProductID, &p.Description,
		&photosJSON, &videosJSON, &p.CreatedByID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photosJSON, &p.Photos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(videosJSON, &p.Videos); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSolution returns the request's solution, or nil when none exists
func (r *ServiceRequestRepository) GetSolution(ctx context.Context, requestID int) (*models.Solution, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, service_request_id, product_id, description, photos, videos, spare_part_ids, created_by, created_at
         FROM solutions WHERE service_request_id=$1`, requestID)

	var s models.Solution
	var photosJSON, videosJSON, partsJSON []byte
	err := row.Scan(&s.ID, &s.ServiceRequestID, &s.ProductID, &s.Description,
		&photosJSON, &videosJSON, &partsJSON, &s.CreatedByID, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photosJSON, &s.Photos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(videosJSON, &s.Videos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(partsJSON, &s.SparePartIDs); err != nil {
		return nil, err
	}
	return &s, nil
}
