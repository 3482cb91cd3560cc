package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"autostore_back_end/internal/models"
	"autostore_back_end/internal/orders"
)

// OrderRepository persiste les commandes dans PostgreSQL (table orders +
// table de jointure orders_vehicles), avec chargement des relations.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Transact exécute fn dans une transaction unique : l'insertion de la
// commande et les mutations d'inventaire commitent ou annulent ensemble.
func (r *OrderRepository) Transact(ctx context.Context, fn func(tx orders.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ouverture transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Println("⚠️ Erreur rollback transaction:", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *OrderRepository) Create(ctx context.Context, tx orders.Tx, o *models.Order) error {
	exec := on(r.db, tx)

	err := exec.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, total, shipping_address, payment_method, notes,
			payment_transaction_id, payment_approval_link, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.Total, o.ShippingAddress, o.PaymentMethod, nullable(o.Notes),
		nullable(o.PaymentTransactionID), nullable(o.PaymentApprovalLink), o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return orders.NewConflict("Commande en conflit avec une commande existante")
		}
		return fmt.Errorf("insertion commande: %w", err)
	}

	for _, v := range o.Vehicles {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO orders_vehicles (order_id, vehicle_id) VALUES ($1, $2)`,
			o.ID, v.ID,
		); err != nil {
			return fmt.Errorf("insertion véhicule %d de la commande %d: %w", v.ID, o.ID, err)
		}
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, tx orders.Tx, o *models.Order) error {
	exec := on(r.db, tx)

	err := exec.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, cancellation_reason = $3, notes = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		o.ID, o.Status, nullable(o.CancellationReason), nullable(o.Notes),
	).Scan(&o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return orders.NewNotFound("Commande %d introuvable", o.ID)
	}
	if err != nil {
		return fmt.Errorf("mise à jour commande %d: %w", o.ID, err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id int) (*models.Order, error) {
	o, err := r.scanOne(ctx, `WHERE o.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, orders.NewNotFound("Commande %d introuvable", id)
	}
	return o, nil
}

func (r *OrderRepository) GetByTransactionID(ctx context.Context, token string) (*models.Order, error) {
	o, err := r.scanOne(ctx, `WHERE o.payment_transaction_id = $1`, token)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, orders.NewNotFound("Aucune commande pour la transaction %s", token)
	}
	return o, nil
}

const orderSelect = `
	SELECT o.id, o.user_id, o.total, o.shipping_address, o.payment_method,
		COALESCE(o.notes, ''), COALESCE(o.cancellation_reason, ''),
		COALESCE(o.payment_transaction_id, ''), COALESCE(o.payment_approval_link, ''),
		o.status, o.created_at, o.updated_at,
		u.id, u.email, u.name, u.is_active, u.role
	FROM orders o
	JOIN users u ON u.id = o.user_id`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	var u models.User
	if err := row.Scan(
		&o.ID, &o.UserID, &o.Total, &o.ShippingAddress, &o.PaymentMethod,
		&o.Notes, &o.CancellationReason,
		&o.PaymentTransactionID, &o.PaymentApprovalLink,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
		&u.ID, &u.Email, &u.Name, &u.IsActive, &u.Role,
	); err != nil {
		return nil, err
	}
	o.User = &u
	return &o, nil
}

func (r *OrderRepository) scanOne(ctx context.Context, where string, arg any) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+" "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande: %w", err)
	}
	if err := r.loadVehicles(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context, page, limit int) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		orderSelect+` ORDER BY o.created_at DESC, o.id DESC LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listage commandes: %w", err)
	}
	defer rows.Close()

	var list []models.Order
	var refs []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("listage commandes: %w", err)
		}
		list = append(list, *o)
		refs = append(refs, &list[len(list)-1])
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadVehicles(ctx, refs); err != nil {
		return nil, err
	}
	return list, nil
}

// loadVehicles charge les véhicules de toutes les commandes passées en une
// seule requête (jointure sur orders_vehicles).
func (r *OrderRepository) loadVehicles(ctx context.Context, list []*models.Order) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]int64, len(list))
	byID := make(map[int]*models.Order, len(list))
	for i, o := range list {
		ids[i] = int64(o.ID)
		byID[o.ID] = o
		o.Vehicles = []models.Vehicle{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ov.order_id, v.id, v.brand, v.model, v.year, v.price, v.vin,
			COALESCE(v.description, ''), COALESCE(v.image_url, ''), v.is_available
		FROM orders_vehicles ov
		JOIN vehicles v ON v.id = ov.vehicle_id
		WHERE ov.order_id = ANY($1)
		ORDER BY v.id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("chargement véhicules des commandes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int
		var v models.Vehicle
		if err := rows.Scan(&orderID, &v.ID, &v.Brand, &v.Model, &v.Year, &v.Price,
			&v.VIN, &v.Description, &v.ImageURL, &v.IsAvailable); err != nil {
			return fmt.Errorf("chargement véhicules des commandes: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Vehicles = append(o.Vehicles, v)
		}
	}
	return rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
