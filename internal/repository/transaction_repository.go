package repository

import (
	"database/sql"
	"fmt"

	"github.com/coralbank/account-service/internal/models"
)

// TransactionWriteRepository appends ledger entries to the PostgreSQL write
// store. The ledger is append-only: rows are never updated or deleted.
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

func (r *TransactionWriteRepository) Append(transaction *models.Transaction) error {
	return r.insert(r.db, transaction)
}

// AppendWithBalance writes the account's new balance and the ledger entry in
// one database transaction. Used for SUCCESS entries, where the snapshot must
// never become durable without the row that explains it.
func (r *TransactionWriteRepository) AppendWithBalance(transaction *models.Transaction, newBalance int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin ledger write: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE account_number = $1
	`
	result, err := tx.Exec(query, transaction.AccountNumber, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err := r.insert(tx, transaction); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger write: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (r *TransactionWriteRepository) insert(e execer, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, type, result, account_number, amount, balance_snapshot, cancelled_transaction_id, transacted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := e.Exec(query,
		transaction.ID, transaction.Type, transaction.Result,
		transaction.AccountNumber, transaction.Amount, transaction.BalanceSnapshot,
		nullString(transaction.CancelledTransactionID), transaction.TransactedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (r *TransactionWriteRepository) FindByID(transactionID string) (*models.Transaction, error) {
	query := `
		SELECT id, type, result, account_number, amount, balance_snapshot, cancelled_transaction_id, transacted_at
		FROM transactions
		WHERE id = $1
	`
	return r.scanTransaction(r.db.QueryRow(query, transactionID))
}

// FindCancelOf returns the successful CANCEL entry referencing the given
// USE transaction, if one exists. Guards against double cancellation.
func (r *TransactionWriteRepository) FindCancelOf(transactionID string) (*models.Transaction, error) {
	query := `
		SELECT id, type, result, account_number, amount, balance_snapshot, cancelled_transaction_id, transacted_at
		FROM transactions
		WHERE cancelled_transaction_id = $1 AND type = $2 AND result = $3
		LIMIT 1
	`
	return r.scanTransaction(r.db.QueryRow(query, transactionID, models.TransactionCancel, models.ResultSuccess))
}

func (r *TransactionWriteRepository) ListByAccount(accountNumber string, limit int) ([]models.Transaction, error) {
	query := `
		SELECT id, type, result, account_number, amount, balance_snapshot, cancelled_transaction_id, transacted_at
		FROM transactions
		WHERE account_number = $1
		ORDER BY transacted_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, accountNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		transaction, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}
	return transactions, rows.Err()
}

func (r *TransactionWriteRepository) scanTransaction(row rowScanner) (*models.Transaction, error) {
	var transaction models.Transaction
	var cancelledID sql.NullString
	err := row.Scan(
		&transaction.ID, &transaction.Type, &transaction.Result,
		&transaction.AccountNumber, &transaction.Amount, &transaction.BalanceSnapshot,
		&cancelledID, &transaction.TransactedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	transaction.CancelledTransactionID = cancelledID.String
	return &transaction, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
