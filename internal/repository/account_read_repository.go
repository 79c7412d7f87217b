package repository

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/coralbank/account-service/internal/models"
	internalredis "github.com/coralbank/account-service/internal/redis"
)

const accountViewKeyPrefix = "account:view:"

// AccountReadRepository handles all read operations for accounts.
// It treats Redis as the primary read store and falls back to PostgreSQL
// transparently, warming the cache on every cold read. Reads are lock-free
// and may observe an eventually-consistent snapshot.
type AccountReadRepository struct {
	db    *sql.DB
	cache *internalredis.ViewCache[models.AccountView]
}

func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client) *AccountReadRepository {
	return &AccountReadRepository{
		db:    db,
		cache: internalredis.NewViewCache[models.AccountView](redisClient, 0),
	}
}

// FindByNumber returns an AccountView, trying Redis first then PostgreSQL.
func (r *AccountReadRepository) FindByNumber(ctx context.Context, accountNumber string) (*models.AccountView, error) {
	cacheKey := accountViewKeyPrefix + accountNumber

	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	query := `
		SELECT account_number, user_id, balance, status, unregistered_at, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`
	var view models.AccountView
	var unregisteredAt sql.NullTime
	err := r.db.QueryRow(query, accountNumber).Scan(
		&view.AccountNumber, &view.UserID, &view.Balance, &view.Status,
		&unregisteredAt, &view.CreatedAt, &view.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if unregisteredAt.Valid {
		view.UnregisteredAt = &unregisteredAt.Time
	}

	// Warm the cache
	r.CacheAccountView(ctx, &view)
	return &view, nil
}

// ListByUser returns all AccountViews for the given user from PostgreSQL.
func (r *AccountReadRepository) ListByUser(ctx context.Context, userID string) ([]models.AccountView, error) {
	query := `
		SELECT account_number, user_id, balance, status, unregistered_at, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY account_number
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var views []models.AccountView
	for rows.Next() {
		var view models.AccountView
		var unregisteredAt sql.NullTime
		if err := rows.Scan(
			&view.AccountNumber, &view.UserID, &view.Balance, &view.Status,
			&unregisteredAt, &view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if unregisteredAt.Valid {
			view.UnregisteredAt = &unregisteredAt.Time
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

// CacheAccountView stores or refreshes the Redis read model for an account.
// Called by the command services after every mutation to keep the read model current.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	r.cache.Set(ctx, accountViewKeyPrefix+view.AccountNumber, view)
}

// InvalidateAccountView removes the Redis read model entry for an account.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, accountNumber string) {
	r.cache.Delete(ctx, accountViewKeyPrefix+accountNumber)
}
