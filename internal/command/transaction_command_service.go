package command

import (
	"context"
	"errors"
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

// TransactionCommandService is the balance engine. Every balance mutation
// runs inside the account's critical section: acquire the lock, re-read the
// account, validate, mutate, append the ledger entry, release. Validation
// failures discovered after acquisition are appended as FAIL ledger rows so
// the ledger records every attempted mutation, not only successful ones.
type TransactionCommandService struct {
	accounts     AccountStore
	transactions TransactionStore
	locker       lock.Locker
	accountViews AccountViewCache
	txViews      TransactionViewCache
	publisher    Publisher
	policy       Policy
}

func NewTransactionCommandService(
	accounts AccountStore,
	transactions TransactionStore,
	locker lock.Locker,
	accountViews AccountViewCache,
	txViews TransactionViewCache,
	publisher Publisher,
	policy Policy,
) *TransactionCommandService {
	return &TransactionCommandService{
		accounts:     accounts,
		transactions: transactions,
		locker:       locker,
		accountViews: accountViews,
		txViews:      txViews,
		publisher:    publisher,
		policy:       policy,
	}
}

// UseBalance debits amount from the account. A lock timeout records nothing
// (the attempt never started); any validation failure inside the critical
// section is recorded as a USE/FAIL ledger row before being surfaced.
func (s *TransactionCommandService) UseBalance(ctx context.Context, cmd cqrs.UseBalanceCommand) (*models.Transaction, error) {
	token, err := s.locker.Acquire(ctx, cmd.AccountNumber, s.policy.LockWaitTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, errcode.New(errcode.AccountTransactionLock)
		}
		return nil, err
	}
	defer s.locker.Release(ctx, token)

	transaction, err := s.useBalanceLocked(ctx, cmd)
	if err != nil {
		if _, isBusiness := errcode.CodeOf(err); isBusiness {
			s.recordFailure(ctx, models.TransactionUse, cmd.AccountNumber, cmd.Amount)
		}
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionCommandService) useBalanceLocked(ctx context.Context, cmd cqrs.UseBalanceCommand) (*models.Transaction, error) {
	account, err := s.loadAccount(cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	if account.UserID != cmd.UserID {
		return nil, errcode.New(errcode.UserAccountUnmatch)
	}
	if account.Status == models.AccountUnregistered {
		return nil, errcode.New(errcode.AccountAlreadyUnregistered)
	}
	if err := s.checkAmountPolicy(cmd.Amount); err != nil {
		return nil, err
	}
	if cmd.Amount > account.Balance {
		return nil, errcode.New(errcode.AmountExceedBalance)
	}

	account.Balance -= cmd.Amount
	transaction := &models.Transaction{
		ID:              utils.GenerateTransactionID(),
		Type:            models.TransactionUse,
		Result:          models.ResultSuccess,
		AccountNumber:   account.AccountNumber,
		Amount:          cmd.Amount,
		BalanceSnapshot: account.Balance,
		TransactedAt:    time.Now().UTC(),
	}
	if err := s.transactions.AppendWithBalance(transaction, account.Balance); err != nil {
		return nil, err
	}
	s.projectLedgerEntry(ctx, transaction)

	s.accountViews.CacheAccountView(ctx, models.AccountToView(account))
	s.publishBalanceUpdated(ctx, account.AccountNumber, account.Balance, -cmd.Amount)
	return transaction, nil
}

// CancelBalance reverses a prior successful USE. Cancellation is
// all-or-nothing: the amount must exactly match the original, and a
// transaction may be cancelled at most once.
func (s *TransactionCommandService) CancelBalance(ctx context.Context, cmd cqrs.CancelBalanceCommand) (*models.Transaction, error) {
	token, err := s.locker.Acquire(ctx, cmd.AccountNumber, s.policy.LockWaitTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, errcode.New(errcode.AccountTransactionLock)
		}
		return nil, err
	}
	defer s.locker.Release(ctx, token)

	transaction, err := s.cancelBalanceLocked(ctx, cmd)
	if err != nil {
		if _, isBusiness := errcode.CodeOf(err); isBusiness {
			s.recordFailure(ctx, models.TransactionCancel, cmd.AccountNumber, cmd.Amount)
		}
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionCommandService) cancelBalanceLocked(ctx context.Context, cmd cqrs.CancelBalanceCommand) (*models.Transaction, error) {
	original, err := s.transactions.FindByID(cmd.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errcode.New(errcode.TransactionNotFound)
		}
		return nil, err
	}

	account, err := s.loadAccount(cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	if original.AccountNumber != account.AccountNumber {
		return nil, errcode.New(errcode.TransactionAccountUnmatch)
	}
	if original.Type != models.TransactionUse || original.Result != models.ResultSuccess {
		return nil, errcode.WithMessage(errcode.InvalidRequest, "only a successful use transaction can be cancelled")
	}
	if original.Amount != cmd.Amount {
		return nil, errcode.New(errcode.CancelAmountUnmatch)
	}

	if _, err := s.transactions.FindCancelOf(original.ID); err == nil {
		return nil, errcode.New(errcode.AlreadyCancelled)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	account.Balance += cmd.Amount
	transaction := &models.Transaction{
		ID:                     utils.GenerateTransactionID(),
		Type:                   models.TransactionCancel,
		Result:                 models.ResultSuccess,
		AccountNumber:          account.AccountNumber,
		Amount:                 cmd.Amount,
		BalanceSnapshot:        account.Balance,
		CancelledTransactionID: original.ID,
		TransactedAt:           time.Now().UTC(),
	}
	if err := s.transactions.AppendWithBalance(transaction, account.Balance); err != nil {
		return nil, err
	}
	s.projectLedgerEntry(ctx, transaction)

	s.accountViews.CacheAccountView(ctx, models.AccountToView(account))
	s.publishBalanceUpdated(ctx, account.AccountNumber, account.Balance, cmd.Amount)
	return transaction, nil
}

func (s *TransactionCommandService) loadAccount(accountNumber string) (*models.Account, error) {
	account, err := s.accounts.FindByNumber(accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errcode.New(errcode.AccountNotFound)
		}
		return nil, err
	}
	return account, nil
}

func (s *TransactionCommandService) checkAmountPolicy(amount int64) error {
	if amount < s.policy.MinAmount {
		return errcode.New(errcode.AmountTooSmall)
	}
	if amount > s.policy.MaxAmount {
		return errcode.New(errcode.AmountTooBig)
	}
	return nil
}

// projectLedgerEntry caches the entry's immutable view and emits
// transaction.recorded for the stream projection.
func (s *TransactionCommandService) projectLedgerEntry(ctx context.Context, transaction *models.Transaction) {
	s.txViews.CacheTransactionView(ctx, models.TransactionToView(transaction))
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionRecorded, events.TransactionRecordedEvent{
		TransactionID:   transaction.ID,
		AccountNumber:   transaction.AccountNumber,
		Type:            string(transaction.Type),
		Result:          string(transaction.Result),
		Amount:          transaction.Amount,
		BalanceSnapshot: transaction.BalanceSnapshot,
	}); err != nil {
		log.Printf("Failed to publish transaction.recorded event: %v", err)
	}
}

// recordFailure appends a FAIL ledger row for an attempt that was rejected
// inside the critical section. The balance is untouched; the snapshot is the
// current balance, or zero when the account does not exist.
func (s *TransactionCommandService) recordFailure(ctx context.Context, txType models.TransactionType, accountNumber string, amount int64) {
	var snapshot int64
	if account, err := s.accounts.FindByNumber(accountNumber); err == nil {
		snapshot = account.Balance
	}
	transaction := &models.Transaction{
		ID:              utils.GenerateTransactionID(),
		Type:            txType,
		Result:          models.ResultFail,
		AccountNumber:   accountNumber,
		Amount:          amount,
		BalanceSnapshot: snapshot,
		TransactedAt:    time.Now().UTC(),
	}
	if err := s.transactions.Append(transaction); err != nil {
		log.Printf("Failed to record %s failure for account %s: %v", txType, accountNumber, err)
		return
	}
	s.projectLedgerEntry(ctx, transaction)
}

func (s *TransactionCommandService) publishBalanceUpdated(ctx context.Context, accountNumber string, newBalance, change int64) {
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountNumber: accountNumber,
		NewBalance:    newBalance,
		Change:        change,
	}); err != nil {
		log.Printf("Failed to publish balance.updated event: %v", err)
	}
}
