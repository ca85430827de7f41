package repositories

import (
	"context"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type RegisteredProductRepository struct {
	DB *pgxpool.Pool
}

func NewRegisteredProductRepository(db *pgxpool.Pool) *RegisteredProductRepository {
	return &RegisteredProductRepository{DB: db}
}

func (r *RegisteredProductRepository) Create(ctx context.Context, p *models.RegisteredProduct) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO registered_products(machine_id, customer_id, sl_no, installation_date,
             warranty_expiry, is_active, created_by)
         VALUES($1, $2, $3, $4, $5, TRUE, $6)
         RETURNING id, created_at, updated_at`,
		p.MachineID, p.CustomerID, p.SerialNumber, p.InstallationDate,
		p.WarrantyExpiry, p.CreatedByID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *RegisteredProductRepository) Get(ctx context.Context, id int) (*models.RegisteredProduct, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, machine_id, customer_id, sl_no, installation_date, warranty_expiry,
             is_active, created_by, created_at, updated_at
         FROM registered_products WHERE id=$1`, id)

	var p models.RegisteredProduct
	err := row.Scan(&p.ID, &p.MachineID, &p.CustomerID, &p.SerialNumber,
		&p.InstallationDate, &p.WarrantyExpiry, &p.IsActive, &p.CreatedByID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySerialNumber is the duplicate pre-check used before registration
func (r *RegisteredProductRepository) GetBySerialNumber(ctx context.Context, slNo string) (*models.RegisteredProduct, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, machine_id, customer_id, sl_no, installation_date, warranty_expiry,
             is_active, created_by, created_at, updated_at
         FROM registered_products WHERE sl_no=$1`, slNo)

	var p models.RegisteredProduct
	err := row.Scan(&p.ID, &p.MachineID, &p.CustomerID, &p.SerialNumber,
		&p.InstallationDate, &p.WarrantyExpiry, &p.IsActive, &p.CreatedByID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RegisteredProductRepository) List(ctx context.Context) ([]*models.RegisteredProduct, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, machine_id, customer_id, sl_no, installation_date, warranty_expiry,
             is_active, created_by, created_at, updated_at
         FROM registered_products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.RegisteredProduct
	for rows.Next() {
		var p models.RegisteredProduct
		err := rows.Scan(&p.ID, &p.MachineID, &p.CustomerID, &p.SerialNumber,
			&p.InstallationDate, &p.WarrantyExpiry, &p.IsActive, &p.CreatedByID,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// ListByCustomer scopes products to a tenant for customer-side callers
func (r *RegisteredProductRepository) ListByCustomer(ctx context.Context, customerID int) ([]*models.RegisteredProduct, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, machine_id, customer_id, sl_no, installation_date, warranty_expiry,
             is_active, created_by, created_at, updated_at
         FROM registered_products WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.RegisteredProduct
	for rows.Next() {
		var p models.RegisteredProduct
		err := rows.Scan(&p.ID, &p.MachineID, &p.CustomerID, &p.SerialNumber,
			&p.InstallationDate, &p.WarrantyExpiry, &p.IsActive, &p.CreatedByID,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (r *RegisteredProductRepository) Update(ctx context.Context, p *models.RegisteredProduct) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE registered_products SET sl_no=$1, installation_date=$2, warranty_expiry=$3,
             is_active=$4, updated_at=CURRENT_TIMESTAMP
         WHERE id=$5`,
		p.SerialNumber, p.InstallationDate, p.WarrantyExpiry, p.IsActive, p.ID)
	return err
}

// Dropdown labels products "<machine> (<sl_no>)" so pickers can tell two
// installs of the same model apart.
func (r *RegisteredProductRepository) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT rp.id, m.name || ' (' || rp.sl_no || ')'
         FROM registered_products rp
         JOIN machines m ON m.id = rp.machine_id
         WHERE rp.is_active
         ORDER BY m.name`)
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
