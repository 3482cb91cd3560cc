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

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password, name, is_active, role)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING id`,
		u.Email, u.Password, u.Name, u.Role,
	).Scan(&u.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return orders.NewConflict("Un compte avec cet email existe déjà")
		}
		return fmt.Errorf("insertion utilisateur: %w", err)
	}
	return nil
}

// GetByEmail charge l'utilisateur avec son hash de mot de passe (login).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password, name, is_active, role
		FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.IsActive, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.NewNotFound("Utilisateur introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, is_active, role
		FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.NewNotFound("Utilisateur %d introuvable", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur %d: %w", id, err)
	}
	return &u, nil
}
