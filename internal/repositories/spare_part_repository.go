package repositories

import (
	"context"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SparePartRepository struct {
	DB *pgxpool.Pool
}

func NewSparePartRepository(db *pgxpool.Pool) *SparePartRepository {
	return &SparePartRepository{DB: db}
}

func (r *SparePartRepository) Create(ctx context.Context, p *models.SparePart) error {
	photoJSON, err := marshalPhoto(p.Photo)
	if err != nil {
		return err
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO spare_parts(name, part_number, description, photo, created_by)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		p.Name, p.PartNumber, p.Description, photoJSON, p.CreatedByID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *SparePartRepository) Get(ctx context.Context, id int) (*models.SparePart, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, part_number, description, photo, created_by, created_at, updated_at
         FROM spare_parts WHERE id=$1`, id)

	var p models.SparePart
	var photoJSON []byte
	err := row.Scan(&p.ID, &p.Name, &p.PartNumber, &p.Description, &photoJSON,
		&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Photo, err = unmarshalPhoto(photoJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SparePartRepository) List(ctx context.Context) ([]*models.SparePart, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, part_number, description, photo, created_by, created_at, updated_at
         FROM spare_parts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []*models.SparePart
	for rows.Next() {
		var p models.SparePart
		var photoJSON []byte
		err := rows.Scan(&p.ID, &p.Name, &p.PartNumber, &p.Description, &photoJSON,
			&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if p.Photo, err = unmarshalPhoto(photoJSON); err != nil {
			return nil, err
		}
		parts = append(parts, &p)
	}
	return parts, rows.Err()
}

func (r *SparePartRepository) Update(ctx context.Context, p *models.SparePart) error {
	photoJSON, err := marshalPhoto(p.Photo)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx,
		`UPDATE spare_parts SET name=$1, part_number=$2, description=$3,
             photo=COALESCE($4, photo), updated_at=CURRENT_TIMESTAMP
         WHERE id=$5`,
		p.Name, p.PartNumber, p.Description, photoJSON, p.ID)
	return err
}

func (r *SparePartRepository) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name FROM spare_parts ORDER BY name`)
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
