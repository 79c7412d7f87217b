package command

import (
	"context"
	"time"

	"github.com/coralbank/account-service/internal/models"
)

// Store contracts consumed by the command services. The PostgreSQL
// repositories are the durable implementations; the in-memory ones back
// deterministic unit tests.

type UserStore interface {
	Create(user *models.User) error
	FindByID(userID string) (*models.User, error)
}

type AccountStore interface {
	Create(account *models.Account) error
	FindByNumber(accountNumber string) (*models.Account, error)
	CountInUseByUser(userID string) (int, error)
	FindHighestNumber() (*models.Account, error)
	Unregister(accountNumber string, at time.Time) error
}

// TransactionStore owns the ledger. AppendWithBalance commits the entry and
// the account's new balance atomically, so a balance change is never durable
// without its ledger row; Append alone is for FAIL rows, which touch no balance.
type TransactionStore interface {
	Append(transaction *models.Transaction) error
	AppendWithBalance(transaction *models.Transaction, newBalance int64) error
	FindByID(transactionID string) (*models.Transaction, error)
	FindCancelOf(transactionID string) (*models.Transaction, error)
}

// AccountViewCache keeps the Redis read model current after mutations.
type AccountViewCache interface {
	CacheAccountView(ctx context.Context, view *models.AccountView)
	InvalidateAccountView(ctx context.Context, accountNumber string)
}

// TransactionViewCache stores immutable ledger views for point lookups.
type TransactionViewCache interface {
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
}

// Publisher emits domain events to the event streams. Publish failures are
// logged by the services, never surfaced to the caller.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// Policy carries the tunable business limits shared by the command services.
type Policy struct {
	LockWaitTimeout    time.Duration
	MinAmount          int64
	MaxAmount          int64
	MaxAccountsPerUser int
}

func DefaultPolicy() Policy {
	return Policy{
		LockWaitTimeout:    time.Second,
		MinAmount:          10,
		MaxAmount:          1_000_000_000,
		MaxAccountsPerUser: 10,
	}
}
