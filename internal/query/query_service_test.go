package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/errcode"
	"github.com/coralbank/account-service/internal/models"
	"github.com/coralbank/account-service/internal/repository"
)

type fakeUserReader struct {
	users map[string]*models.User
}

func (f *fakeUserReader) FindByID(userID string) (*models.User, error) {
	if user, ok := f.users[userID]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

type fakeAccountViewReader struct {
	views []models.AccountView
}

func (f *fakeAccountViewReader) ListByUser(_ context.Context, userID string) ([]models.AccountView, error) {
	var out []models.AccountView
	for _, view := range f.views {
		if view.UserID == userID {
			out = append(out, view)
		}
	}
	return out, nil
}

type fakeTransactionViewReader struct {
	views map[string]*models.TransactionView
}

func (f *fakeTransactionViewReader) FindByID(_ context.Context, transactionID string) (*models.TransactionView, error) {
	if view, ok := f.views[transactionID]; ok {
		return view, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTransactionViewReader) ListByAccount(_ context.Context, accountNumber string) ([]models.TransactionView, error) {
	var out []models.TransactionView
	for _, view := range f.views {
		if view.AccountNumber == accountNumber {
			out = append(out, *view)
		}
	}
	return out, nil
}

func TestListAccounts(t *testing.T) {
	users := &fakeUserReader{users: map[string]*models.User{
		"usr-001": {ID: "usr-001"},
	}}
	accounts := &fakeAccountViewReader{views: []models.AccountView{
		{AccountNumber: "1000000000", UserID: "usr-001", Balance: 100},
		{AccountNumber: "1000000001", UserID: "usr-002", Balance: 200},
	}}
	svc := NewAccountQueryService(users, accounts)

	views, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{UserID: "usr-001"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "1000000000", views[0].AccountNumber)

	_, err = svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{UserID: "usr-missing"})
	assert.True(t, errcode.Is(err, errcode.UserNotFound))
}

func TestGetTransaction(t *testing.T) {
	reader := &fakeTransactionViewReader{views: map[string]*models.TransactionView{
		"tx-001": {
			ID:            "tx-001",
			Type:          models.TransactionUse,
			Result:        models.ResultSuccess,
			AccountNumber: "1000000000",
			Amount:        5000,
			TransactedAt:  time.Now().UTC(),
		},
	}}
	svc := NewTransactionQueryService(reader)

	view, err := svc.GetTransaction(context.Background(), cqrs.GetTransactionQuery{TransactionID: "tx-001"})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), view.Amount)

	_, err = svc.GetTransaction(context.Background(), cqrs.GetTransactionQuery{TransactionID: "tx-missing"})
	assert.True(t, errcode.Is(err, errcode.TransactionNotFound))
}

func TestListTransactions(t *testing.T) {
	reader := &fakeTransactionViewReader{views: map[string]*models.TransactionView{
		"tx-001": {ID: "tx-001", AccountNumber: "1000000000"},
		"tx-002": {ID: "tx-002", AccountNumber: "1000000001"},
	}}
	svc := NewTransactionQueryService(reader)

	views, err := svc.ListTransactions(context.Background(), cqrs.ListTransactionsQuery{AccountNumber: "1000000000"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "tx-001", views[0].ID)
}
