package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/errcode"
	"github.com/coralbank/account-service/internal/events"
	"github.com/coralbank/account-service/internal/lock"
	"github.com/coralbank/account-service/internal/models"
	"github.com/coralbank/account-service/internal/repository"
	"github.com/coralbank/account-service/internal/utils"
)

// numberRetries bounds how often OpenAccount re-derives the next account
// number after losing an insert race to a concurrent open.
const numberRetries = 3

// AccountCommandService owns the account lifecycle: user provisioning,
// opening and closing accounts. Closure shares the per-account lock key
// with the balance engine so a close cannot race a concurrent use.
type AccountCommandService struct {
	users     UserStore
	accounts  AccountStore
	locker    lock.Locker
	views     AccountViewCache
	publisher Publisher
	policy    Policy
}

func NewAccountCommandService(
	users UserStore,
	accounts AccountStore,
	locker lock.Locker,
	views AccountViewCache,
	publisher Publisher,
	policy Policy,
) *AccountCommandService {
	return &AccountCommandService{
		users:     users,
		accounts:  accounts,
		locker:    locker,
		views:     views,
		publisher: publisher,
		policy:    policy,
	}
}

func (s *AccountCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	user := &models.User{
		ID:        utils.GenerateUserID(),
		Name:      cmd.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// OpenAccount creates the next sequentially numbered account for the user.
// Numbers are derived from the store's current maximum and never reused;
// losing an insert race surfaces as ErrDuplicate and triggers a re-derive.
func (s *AccountCommandService) OpenAccount(ctx context.Context, cmd cqrs.OpenAccountCommand) (*models.Account, error) {
	if _, err := s.users.FindByID(cmd.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errcode.New(errcode.UserNotFound)
		}
		return nil, err
	}

	count, err := s.accounts.CountInUseByUser(cmd.UserID)
	if err != nil {
		return nil, err
	}
	if count >= s.policy.MaxAccountsPerUser {
		return nil, errcode.New(errcode.MaxAccountPerUser)
	}

	var account *models.Account
	for attempt := 0; ; attempt++ {
		number, err := s.nextAccountNumber()
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		account = &models.Account{
			AccountNumber: number,
			UserID:        cmd.UserID,
			Balance:       cmd.InitialBalance,
			Status:        models.AccountInUse,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = s.accounts.Create(account)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		if attempt+1 >= numberRetries {
			return nil, fmt.Errorf("failed to assign account number after %d attempts: %w", numberRetries, err)
		}
	}

	s.views.CacheAccountView(ctx, models.AccountToView(account))
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountOpened, events.AccountOpenedEvent{
		AccountNumber:  account.AccountNumber,
		UserID:         account.UserID,
		InitialBalance: account.Balance,
	}); err != nil {
		log.Printf("Failed to publish account.opened event: %v", err)
	}
	return account, nil
}

// CloseAccount unregisters an account. The account row survives as an
// UNREGISTERED tombstone; its number is never reassigned.
func (s *AccountCommandService) CloseAccount(ctx context.Context, cmd cqrs.CloseAccountCommand) (*models.Account, error) {
	token, err := s.locker.Acquire(ctx, cmd.AccountNumber, s.policy.LockWaitTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, errcode.New(errcode.AccountTransactionLock)
		}
		return nil, err
	}
	defer s.locker.Release(ctx, token)

	if _, err := s.users.FindByID(cmd.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errcode.New(errcode.UserNotFound)
		}
		return nil, err
	}

	account, err := s.accounts.FindByNumber(cmd.AccountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errcode.New(errcode.AccountNotFound)
		}
		return nil, err
	}
	if account.UserID != cmd.UserID {
		return nil, errcode.New(errcode.UserAccountUnmatch)
	}
	if account.Status == models.AccountUnregistered {
		return nil, errcode.New(errcode.AccountAlreadyUnregistered)
	}
	if account.Balance != 0 {
		return nil, errcode.New(errcode.BalanceNotEmpty)
	}

	now := time.Now().UTC()
	if err := s.accounts.Unregister(account.AccountNumber, now); err != nil {
		return nil, err
	}
	account.Status = models.AccountUnregistered
	account.UnregisteredAt = &now
	account.UpdatedAt = now

	s.views.CacheAccountView(ctx, models.AccountToView(account))
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountClosed, events.AccountClosedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	}); err != nil {
		log.Printf("Failed to publish account.closed event: %v", err)
	}
	return account, nil
}

func (s *AccountCommandService) nextAccountNumber() (string, error) {
	highest, err := s.accounts.FindHighestNumber()
	if errors.Is(err, repository.ErrNotFound) {
		return utils.InitialAccountNumber, nil
	}
	if err != nil {
		return "", err
	}
	return utils.NextAccountNumber(highest.AccountNumber)
}
