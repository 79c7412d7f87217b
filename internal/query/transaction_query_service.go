package query

import (
	"context"
	"errors"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/errcode"
	"github.com/coralbank/account-service/internal/models"
	"github.com/coralbank/account-service/internal/repository"
)

// TransactionViewReader serves ledger projections from the read model.
type TransactionViewReader interface {
	FindByID(ctx context.Context, transactionID string) (*models.TransactionView, error)
	ListByAccount(ctx context.Context, accountNumber string) ([]models.TransactionView, error)
}

// TransactionQueryService serves lock-free ledger reads. Ledger entries are
// immutable once written, so no serialization against the balance engine is
// needed.
type TransactionQueryService struct {
	transactions TransactionViewReader
}

func NewTransactionQueryService(transactions TransactionViewReader) *TransactionQueryService {
	return &TransactionQueryService{transactions: transactions}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	view, err := s.transactions.FindByID(ctx, q.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errcode.New(errcode.TransactionNotFound)
		}
		return nil, err
	}
	return view, nil
}

// ListTransactions returns recent ledger entries for an account, newest
// first, FAIL rows included.
func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	return s.transactions.ListByAccount(ctx, q.AccountNumber)
}
