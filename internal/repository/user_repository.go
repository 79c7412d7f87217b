package repository

import (
	"database/sql"
	"fmt"

	"github.com/coralbank/account-service/internal/models"
)

// UserRepository persists users in PostgreSQL. Users are identity-only:
// created once, then only ever looked up for existence checks.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, name, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.Exec(query, user.ID, user.Name, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(userID string) (*models.User, error) {
	query := `
		SELECT id, name, created_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(query, userID).Scan(&user.ID, &user.Name, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
