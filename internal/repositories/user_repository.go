package repositories

import (
	"context"
	"time"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, mobile, role, customer_id, password_hash,
         otp_code, otp_expires_at, fcm_token, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.Role, &u.CustomerID,
		&u.PasswordHash, &u.OTPCode, &u.OTPExpiresAt, &u.FCMToken, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO users(name, email, mobile, role, customer_id, password_hash, is_active)
         VALUES($1, $2, $3, $4, $5, $6, TRUE)
         RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.Mobile, u.Role, u.CustomerID, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE mobile=$1`, mobile))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *UserRepository) ListByRole(ctx context.Context, roles ...string) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ANY($1) ORDER BY created_at DESC`, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET name=$1, email=$2, mobile=$3, role=$4, password_hash=$5,
             is_active=$6, updated_at=CURRENT_TIMESTAMP
         WHERE id=$7`,
		u.Name, u.Email, u.Mobile, u.Role, u.PasswordHash, u.IsActive, u.ID)
	return err
}

// SetOTP stores a login OTP and its expiry on the user record
func (r *UserRepository) SetOTP(ctx context.Context, id int, code string, expiresAt time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET otp_code=$1, otp_expires_at=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$3`,
		code, expiresAt, id)
	return err
}

// ClearOTP erases the OTP pair after a successful login
func (r *UserRepository) ClearOTP(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET otp_code='', otp_expires_at=NULL, updated_at=CURRENT_TIMESTAMP WHERE id=$1`,
		id)
	return err
}

func (r *UserRepository) UpdateFCMToken(ctx context.Context, id int, token string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET fcm_token=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		token, id)
	return err
}

// GetFCMToken returns the user's push token, or "" when none is registered
func (r *UserRepository) GetFCMToken(ctx context.Context, userID int) (string, error) {
	var token *string
	err := r.DB.QueryRow(ctx,
		`SELECT fcm_token FROM users WHERE id=$1`, userID).Scan(&token)
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

// GetCustomerContact returns the contact user of a customer organization:
// the tenant's owner-role member, falling back to its earliest member.
func (r *UserRepository) GetCustomerContact(ctx context.Context, customerID int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
         WHERE customer_id=$1 AND is_active
         ORDER BY (role = 'owner') DESC, created_at ASC
         LIMIT 1`, customerID))
}

// CountByCustomer returns how many active members a customer organization has
func (r *UserRepository) CountByCustomer(ctx context.Context, customerID int) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE customer_id=$1 AND is_active`, customerID).Scan(&count)
	return count, err
}

// Dropdown returns {id, label} pairs for users of the given roles
func (r *UserRepository) Dropdown(ctx context.Context, roles ...string) ([]*models.DropdownItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name FROM users WHERE role = ANY($1) AND is_active ORDER BY name`, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.DropdownItem
	for rows.Next() {
		var item models.DropdownItem
		if err := rows.Scan(&item.ID, &item.Label); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
