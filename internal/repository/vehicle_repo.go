package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"autostore_back_end/internal/models"
	"autostore_back_end/internal/orders"
)

// VehicleRepository possède le drapeau de disponibilité des véhicules.
// Reserve et Release sont des updates compare-and-swap : deux créations de
// commande concurrentes sur le même véhicule ne peuvent pas réussir toutes
// les deux.
type VehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, brand, model, year, price, vin, COALESCE(description, ''), COALESCE(image_url, ''), is_available`

func scanVehicle(row interface{ Scan(...any) error }) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.Brand, &v.Model, &v.Year, &v.Price, &v.VIN,
		&v.Description, &v.ImageURL, &v.IsAvailable)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) Get(ctx context.Context, id int) (*models.Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.NewNotFound("Véhicule %d introuvable", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture véhicule %d: %w", id, err)
	}
	return v, nil
}

func (r *VehicleRepository) List(ctx context.Context, page, limit int) ([]models.Vehicle, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("comptage véhicules: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY id LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("listage véhicules: %w", err)
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("listage véhicules: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, total, rows.Err()
}

func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO vehicles (brand, model, year, price, vin, description, image_url, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, is_available`,
		v.Brand, v.Model, v.Year, v.Price, v.VIN, nullable(v.Description), nullable(v.ImageURL),
	).Scan(&v.ID, &v.IsAvailable)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return orders.NewConflict("Le VIN %s est déjà utilisé", v.VIN)
		}
		return fmt.Errorf("insertion véhicule: %w", err)
	}
	return nil
}

func (r *VehicleRepository) Update(ctx context.Context, v *models.Vehicle) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vehicles
		SET brand = $2, model = $3, year = $4, price = $5, vin = $6, description = $7, image_url = $8
		WHERE id = $1`,
		v.ID, v.Brand, v.Model, v.Year, v.Price, v.VIN, nullable(v.Description), nullable(v.ImageURL),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return orders.NewConflict("Le VIN %s est déjà utilisé", v.VIN)
		}
		return fmt.Errorf("mise à jour véhicule %d: %w", v.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return orders.NewNotFound("Véhicule %d introuvable", v.ID)
	}
	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("suppression véhicule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return orders.NewNotFound("Véhicule %d introuvable", id)
	}
	return nil
}

// Reserve marque un véhicule indisponible, uniquement s'il est encore
// disponible. Zéro ligne touchée distingue l'absence du véhicule d'une
// réservation perdue face à un concurrent.
func (r *VehicleRepository) Reserve(ctx context.Context, tx orders.Tx, id int) error {
	return r.setAvailability(ctx, tx, id, false)
}

// Release remet un véhicule disponible lors d'une annulation.
func (r *VehicleRepository) Release(ctx context.Context, tx orders.Tx, id int) error {
	return r.setAvailability(ctx, tx, id, true)
}

func (r *VehicleRepository) setAvailability(ctx context.Context, tx orders.Tx, id int, available bool) error {
	exec := on(r.db, tx)

	res, err := exec.ExecContext(ctx,
		`UPDATE vehicles SET is_available = $2 WHERE id = $1 AND is_available = $3`,
		id, available, !available,
	)
	if err != nil {
		return fmt.Errorf("changement de disponibilité du véhicule %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := exec.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("vérification véhicule %d: %w", id, err)
		}
		if !exists {
			return orders.NewNotFound("Véhicule %d introuvable", id)
		}
		if available {
			return orders.NewConflict("Véhicule %d déjà disponible", id)
		}
		return orders.NewConflict("Véhicule %d déjà réservé", id)
	}
	return nil
}
