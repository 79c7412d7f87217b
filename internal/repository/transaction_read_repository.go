package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/coralbank/account-service/internal/events"
	"github.com/coralbank/account-service/internal/models"
	internalredis "github.com/coralbank/account-service/internal/redis"
)

const (
	transactionViewKeyPrefix = "transaction:view:"
	accountLedgerKeyPrefix   = "account:ledger:"

	// recentLedgerLen caps the per-account recent-ledger list in Redis.
	// Older entries remain queryable from PostgreSQL.
	recentLedgerLen = 100
)

// TransactionReadRepository handles all read operations for the ledger.
// Point lookups go through a Redis view cache with PostgreSQL fallback;
// per-account listings are served from a capped Redis list maintained by
// the transaction-stream subscriber.
type TransactionReadRepository struct {
	db        *sql.DB
	writeRepo *TransactionWriteRepository
	cache     *internalredis.ViewCache[models.TransactionView]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:        db,
		writeRepo: NewTransactionWriteRepository(db),
		cache:     internalredis.NewViewCache[models.TransactionView](redisClient, 0),
	}
}

// FindByID returns a TransactionView, trying Redis first then PostgreSQL.
// Ledger entries are immutable, so a cached view never goes stale.
func (r *TransactionReadRepository) FindByID(ctx context.Context, transactionID string) (*models.TransactionView, error) {
	cacheKey := transactionViewKeyPrefix + transactionID

	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	transaction, err := r.writeRepo.FindByID(transactionID)
	if err != nil {
		return nil, err
	}

	view := models.TransactionToView(transaction)
	r.cache.Set(ctx, cacheKey, view)
	return view, nil
}

// ListByAccount returns recent ledger entries for an account, newest first.
// Served from the Redis recent-ledger list when populated, PostgreSQL otherwise.
func (r *TransactionReadRepository) ListByAccount(ctx context.Context, accountNumber string) ([]models.TransactionView, error) {
	if views, ok := r.cache.GetList(ctx, accountLedgerKeyPrefix+accountNumber); ok {
		return views, nil
	}

	transactions, err := r.writeRepo.ListByAccount(accountNumber, recentLedgerLen)
	if err != nil {
		return nil, err
	}
	views := make([]models.TransactionView, 0, len(transactions))
	for i := range transactions {
		views = append(views, *models.TransactionToView(&transactions[i]))
	}
	return views, nil
}

// CacheTransactionView stores the immutable view of a freshly appended entry.
func (r *TransactionReadRepository) CacheTransactionView(ctx context.Context, view *models.TransactionView) {
	r.cache.Set(ctx, transactionViewKeyPrefix+view.ID, view)
}

// HandleLedgerEvent projects transaction.recorded stream events into the
// per-account recent-ledger list. Duplicate delivery only re-prepends an
// entry to a bounded list, so redelivery is harmless.
func (r *TransactionReadRepository) HandleLedgerEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.TransactionRecorded {
		return nil
	}
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to remarshal event payload: %w", err)
	}
	var data events.TransactionRecordedEvent
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return fmt.Errorf("failed to unmarshal transaction.recorded event: %w", err)
	}

	view, err := r.FindByID(ctx, data.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to load transaction %s for projection: %w", data.TransactionID, err)
	}
	r.cache.PushToList(ctx, accountLedgerKeyPrefix+data.AccountNumber, view, recentLedgerLen)
	return nil
}
