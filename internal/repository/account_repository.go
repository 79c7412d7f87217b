package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/coralbank/account-service/internal/models"
)

const pqUniqueViolation = "23505"

// AccountWriteRepository handles all state-mutating operations for accounts.
// It operates exclusively against the PostgreSQL write store (source of truth).
// Accounts are never physically deleted; closure is a status transition.
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

func (r *AccountWriteRepository) Create(account *models.Account) error {
	query := `
		INSERT INTO accounts (account_number, user_id, balance, status, unregistered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query,
		account.AccountNumber, account.UserID, account.Balance, account.Status,
		account.UnregisteredAt, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindByNumber fetches the full write model including UserID for ownership checks.
func (r *AccountWriteRepository) FindByNumber(accountNumber string) (*models.Account, error) {
	query := `
		SELECT account_number, user_id, balance, status, unregistered_at, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`
	return r.scanAccount(r.db.QueryRow(query, accountNumber))
}

func (r *AccountWriteRepository) ListByUser(userID string) ([]models.Account, error) {
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

	var accounts []models.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// CountInUseByUser counts a user's open accounts. Closed accounts do not
// count against the per-user limit.
func (r *AccountWriteRepository) CountInUseByUser(userID string) (int, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE user_id = $1 AND status = $2`
	var count int
	err := r.db.QueryRow(query, userID, models.AccountInUse).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// FindHighestNumber returns the account with the numerically highest number.
// Account numbers are fixed-width, so lexicographic order matches numeric order.
func (r *AccountWriteRepository) FindHighestNumber() (*models.Account, error) {
	query := `
		SELECT account_number, user_id, balance, status, unregistered_at, created_at, updated_at
		FROM accounts
		ORDER BY account_number DESC
		LIMIT 1
	`
	return r.scanAccount(r.db.QueryRow(query))
}

// Unregister transitions an account to UNREGISTERED. The balance-must-be-zero
// precondition is validated by the service inside the account's critical section.
func (r *AccountWriteRepository) Unregister(accountNumber string, at time.Time) error {
	query := `
		UPDATE accounts
		SET status = $2, unregistered_at = $3, updated_at = NOW()
		WHERE account_number = $1
	`
	return r.execExpectingRow(query, accountNumber, models.AccountUnregistered, at)
}

func (r *AccountWriteRepository) execExpectingRow(query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AccountWriteRepository) scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var unregisteredAt sql.NullTime
	err := row.Scan(
		&account.AccountNumber, &account.UserID, &account.Balance, &account.Status,
		&unregisteredAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	if unregisteredAt.Valid {
		account.UnregisteredAt = &unregisteredAt.Time
	}
	return &account, nil
}
