package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/lock"
	"github.com/coralbank/account-service/internal/models"
	"github.com/coralbank/account-service/internal/repository"
)

// ---- no-op collaborators for the read model and event stream ----

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, any) error { return nil }

type nopAccountViews struct{}

func (nopAccountViews) CacheAccountView(context.Context, *models.AccountView) {}
func (nopAccountViews) InvalidateAccountView(context.Context, string)         {}

type nopTransactionViews struct{}

func (nopTransactionViews) CacheTransactionView(context.Context, *models.TransactionView) {}

// ---- fixture ----

type fixture struct {
	users        *repository.MemoryUserRepository
	accounts     *repository.MemoryAccountRepository
	transactions *repository.MemoryTransactionRepository
	locker       *lock.MemoryLocker

	accountSvc     *AccountCommandService
	transactionSvc *TransactionCommandService
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.LockWaitTimeout = 200 * time.Millisecond
	return p
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := repository.NewMemoryAccountRepository()
	f := &fixture{
		users:        repository.NewMemoryUserRepository(),
		accounts:     accounts,
		transactions: repository.NewMemoryTransactionRepository(accounts),
		locker:       lock.NewMemoryLocker(),
	}
	policy := testPolicy()
	f.accountSvc = NewAccountCommandService(
		f.users, f.accounts, f.locker, nopAccountViews{}, nopPublisher{}, policy)
	f.transactionSvc = NewTransactionCommandService(
		f.accounts, f.transactions, f.locker, nopAccountViews{}, nopTransactionViews{}, nopPublisher{}, policy)
	return f
}

func (f *fixture) seedUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.users.Create(&models.User{ID: id, Name: "test user", CreatedAt: time.Now().UTC()}))
}

func (f *fixture) openAccount(t *testing.T, userID string, balance int64) *models.Account {
	t.Helper()
	account, err := f.accountSvc.OpenAccount(context.Background(), cqrs.OpenAccountCommand{
		UserID:         userID,
		InitialBalance: balance,
	})
	require.NoError(t, err)
	return account
}
