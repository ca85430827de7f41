package repositories

import (
	"context"
	"encoding/json"

	"fieldserve-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MachineRepository struct {
	DB *pgxpool.Pool
}

func NewMachineRepository(db *pgxpool.Pool) *MachineRepository {
	return &MachineRepository{DB: db}
}

func marshalPhoto(photo *models.Asset) (any, error) {
	if photo == nil {
		return nil, nil
	}
	return json.Marshal(photo)
}

func unmarshalPhoto(data []byte) (*models.Asset, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var a models.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *MachineRepository) Create(ctx context.Context, m *models.Machine) error {
	photoJSON, err := marshalPhoto(m.Photo)
	if err != nil {
		return err
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO machines(name, model_number, description, photo, created_by)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		m.Name, m.ModelNumber, m.Description, photoJSON, m.CreatedByID,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MachineRepository) Get(ctx context.Context, id int) (*models.Machine, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, model_number, description, photo, created_by, created_at, updated_at
         FROM machines WHERE id=$1`, id)

	var m models.Machine
	var photoJSON []byte
	err := row.Scan(&m.ID, &m.Name, &m.ModelNumber, &m.Description, &photoJSON,
		&m.CreatedByID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.Photo, err = unmarshalPhoto(photoJSON); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MachineRepository) List(ctx context.Context) ([]*models.Machine, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, model_number, description, photo, created_by, created_at, updated_at
         FROM machines ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var machines []*models.Machine
	for rows.Next() {
		var m models.Machine
		var photoJSON []byte
		err := rows.Scan(&m.ID, &m.Name, &m.ModelNumber, &m.Description, &photoJSON,
			&m.CreatedByID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if m.Photo, err = unmarshalPhoto(photoJSON); err != nil {
			return nil, err
		}
		machines = append(machines, &m)
	}
	return machines, rows.Err()
}

func (r *MachineRepository) Update(ctx context.Context, m *models.Machine) error {
	photoJSON, err := marshalPhoto(m.Photo)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx,
		`UPDATE machines SET name=$1, model_number=$2, description=$3,
             photo=COALESCE($4, photo), updated_at=CURRENT_TIMESTAMP
         WHERE id=$5`,
		m.Name, m.ModelNumber, m.Description, photoJSON, m.ID)
	return err
}

func (r *MachineRepository) Dropdown(ctx context.Context) ([]*models.DropdownItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name FROM machines ORDER BY name`)
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
