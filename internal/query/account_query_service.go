package query

import (
	"context"
	"errors"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/errcode"
	"github.com/coralbank/account-service/internal/models"
	"github.com/coralbank/account-service/internal/repository"
)

// UserReader is the identity lookup used for existence checks.
type UserReader interface {
	FindByID(userID string) (*models.User, error)
}

// AccountViewReader serves account projections from the read model.
type AccountViewReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.AccountView, error)
}

// AccountQueryService serves lock-free account reads. Reads tolerate an
// eventually-consistent snapshot of the read model.
type AccountQueryService struct {
	users    UserReader
	accounts AccountViewReader
}

func NewAccountQueryService(users UserReader, accounts AccountViewReader) *AccountQueryService {
	return &AccountQueryService{users: users, accounts: accounts}
}

// ListAccounts returns every account the user holds, closed ones included.
func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	if _, err := s.users.FindByID(q.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errcode.New(errcode.UserNotFound)
		}
		return nil, err
	}
	return s.accounts.ListByUser(ctx, q.UserID)
}
