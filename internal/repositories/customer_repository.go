package repositories

import (
	"context"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO customers(name, email, mobile, address, city, is_active)
         VALUES($1, $2, $3, $4, $5, TRUE)
         RETURNING id, created_at, updated_at`,
		c.Name, c.Email, c.Mobile, c.Address, c.City,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CustomerRepository) Get(ctx context.Context, id int) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, mobile, address, city, is_active, created_at, updated_at
         FROM customers WHERE id=$1`, id)

	var customer models.Customer
	err := row.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Mobile,
		&customer.Address, &customer.City, &customer.IsActive, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByMobile(ctx context.Context, mobile string) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, mobile, address, city, is_active, created_at, updated_at
         FROM customers WHERE mobile=$1`, mobile)

	var customer models.Customer
	err := row.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Mobile,
		&customer.Address, &customer.City, &customer.IsActive, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, mobile, address, city, is_active, created_at, updated_at
         FROM customers WHERE email=$1`, email)

	var customer models.Customer
	err := row.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Mobile,
		&customer.Address, &customer.City, &customer.IsActive, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]*models.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, email, mobile, address, city, is_active, created_at, updated_at
         FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		var customer models.Customer
		err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Mobile,
			&customer.Address, &customer.City, &customer.IsActive, &customer.CreatedAt, &customer.UpdatedAt)
		if err != nil {
			return nil, err
		}
		customers = append(customers, &customer)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE customers SET name=$1, email=$2, mobile=$3, address=$4, city=$5,
             is_active=$6, updated_at=CURRENT_TIMESTAMP
         WHERE id=$7`,
		c.Name, c.Email, c.Mobile, c.Address, c.City, c.IsActive, c.ID)
	return err
}

func (r *CustomerRepository) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name FROM customers WHERE is_active ORDER BY name`)
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
