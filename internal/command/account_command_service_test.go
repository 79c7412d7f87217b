package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/errcode"
	"github.com/coralbank/account-service/internal/models"
	"github.com/coralbank/account-service/internal/repository"
	"github.com/coralbank/account-service/internal/utils"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	user, err := f.accountSvc.CreateUser(context.Background(), cqrs.CreateUserCommand{Name: "Jamie"})
	require.NoError(t, err)
	assert.True(t, utils.ValidateUserID(user.ID))
	assert.Equal(t, "Jamie", user.Name)

	stored, err := f.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestOpenAccountAssignsSeedNumber(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")

	account := f.openAccount(t, "usr-001", 10000)

	assert.Equal(t, utils.InitialAccountNumber, account.AccountNumber)
	assert.Equal(t, int64(10000), account.Balance)
	assert.Equal(t, models.AccountInUse, account.Status)
	assert.Nil(t, account.UnregisteredAt)
}

func TestOpenAccountNumbersAreStrictlyIncreasing(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")

	prev := ""
	for i := 0; i < 5; i++ {
		account := f.openAccount(t, "usr-001", 0)
		if prev != "" {
			assert.Greater(t, account.AccountNumber, prev)
		}
		prev = account.AccountNumber
	}
	assert.Equal(t, "1000000004", prev)
}

func TestOpenAccountNumbersSurviveClosure(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")

	first := f.openAccount(t, "usr-001", 0)
	second := f.openAccount(t, "usr-001", 0)

	// Close the highest-numbered account; its number must never be reused.
	_, err := f.accountSvc.CloseAccount(context.Background(), cqrs.CloseAccountCommand{
		UserID:        "usr-001",
		AccountNumber: second.AccountNumber,
	})
	require.NoError(t, err)

	third := f.openAccount(t, "usr-001", 0)
	assert.Greater(t, third.AccountNumber, second.AccountNumber)
	assert.Greater(t, second.AccountNumber, first.AccountNumber)
}

func TestOpenAccountUserNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.accountSvc.OpenAccount(context.Background(), cqrs.OpenAccountCommand{
		UserID: "usr-missing",
	})
	assert.True(t, errcode.Is(err, errcode.UserNotFound))
}

func TestOpenAccountNumberSpaceExhausted(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")

	now := time.Now().UTC()
	require.NoError(t, f.accounts.Create(&models.Account{
		AccountNumber: "9999999999",
		UserID:        "usr-001",
		Status:        models.AccountInUse,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))

	_, err := f.accountSvc.OpenAccount(context.Background(), cqrs.OpenAccountCommand{UserID: "usr-001"})
	require.Error(t, err)

	// No widened 11-digit number may ever reach the store: it would sort
	// below the real maximum and poison every later highest-number lookup.
	_, err = f.accounts.FindByNumber("10000000000")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOpenAccountMaxPerUser(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")

	for i := 0; i < 10; i++ {
		f.openAccount(t, "usr-001", 0)
	}

	_, err := f.accountSvc.OpenAccount(context.Background(), cqrs.OpenAccountCommand{UserID: "usr-001"})
	assert.True(t, errcode.Is(err, errcode.MaxAccountPerUser))
}

func TestOpenAccountClosedAccountsDoNotCountAgainstLimit(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")

	for i := 0; i < 10; i++ {
		f.openAccount(t, "usr-001", 0)
	}
	_, err := f.accountSvc.CloseAccount(context.Background(), cqrs.CloseAccountCommand{
		UserID:        "usr-001",
		AccountNumber: utils.InitialAccountNumber,
	})
	require.NoError(t, err)

	account, err := f.accountSvc.OpenAccount(context.Background(), cqrs.OpenAccountCommand{UserID: "usr-001"})
	require.NoError(t, err)
	assert.Equal(t, "1000000010", account.AccountNumber)
}

func TestCloseAccount(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")
	f.seedUser(t, "usr-002")
	withBalance := f.openAccount(t, "usr-001", 500)
	empty := f.openAccount(t, "usr-001", 0)

	tests := []struct {
		name          string
		userID        string
		accountNumber string
		wantCode      errcode.Code
	}{
		{"user not found", "usr-missing", empty.AccountNumber, errcode.UserNotFound},
		{"account not found", "usr-001", "9999999999", errcode.AccountNotFound},
		{"owner mismatch", "usr-002", empty.AccountNumber, errcode.UserAccountUnmatch},
		{"balance not empty", "usr-001", withBalance.AccountNumber, errcode.BalanceNotEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.accountSvc.CloseAccount(context.Background(), cqrs.CloseAccountCommand{
				UserID:        tt.userID,
				AccountNumber: tt.accountNumber,
			})
			assert.True(t, errcode.Is(err, tt.wantCode), "got %v, want %s", err, tt.wantCode)
		})
	}

	closed, err := f.accountSvc.CloseAccount(context.Background(), cqrs.CloseAccountCommand{
		UserID:        "usr-001",
		AccountNumber: empty.AccountNumber,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AccountUnregistered, closed.Status)
	require.NotNil(t, closed.UnregisteredAt)
	assert.WithinDuration(t, time.Now().UTC(), *closed.UnregisteredAt, time.Minute)

	_, err = f.accountSvc.CloseAccount(context.Background(), cqrs.CloseAccountCommand{
		UserID:        "usr-001",
		AccountNumber: empty.AccountNumber,
	})
	assert.True(t, errcode.Is(err, errcode.AccountAlreadyUnregistered))
}

func TestCloseAccountBlockedWhileBalanceOperationHoldsLock(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "usr-001")
	account := f.openAccount(t, "usr-001", 0)

	ctx := context.Background()
	token, err := f.locker.Acquire(ctx, account.AccountNumber, time.Second)
	require.NoError(t, err)
	defer f.locker.Release(ctx, token)

	// Closure shares the balance engine's lock key, so it must time out
	// while a balance operation holds the account.
	_, err = f.accountSvc.CloseAccount(ctx, cqrs.CloseAccountCommand{
		UserID:        "usr-001",
		AccountNumber: account.AccountNumber,
	})
	assert.True(t, errcode.Is(err, errcode.AccountTransactionLock))
}

func TestOpenAccountConcurrentNumbersNeverRepeat(t *testing.T) {
	f := newFixture(t)
	const users = 8
	for i := 0; i < users; i++ {
		f.seedUser(t, fmt.Sprintf("usr-%03d", i))
	}

	numbers := make(chan string, users)
	for i := 0; i < users; i++ {
		go func(userID string) {
			account, err := f.accountSvc.OpenAccount(context.Background(), cqrs.OpenAccountCommand{UserID: userID})
			if err != nil {
				// Losing the insert race more often than the retry budget
				// is acceptable; handing out the same number twice is not.
				numbers <- ""
				return
			}
			numbers <- account.AccountNumber
		}(fmt.Sprintf("usr-%03d", i))
	}

	seen := make(map[string]bool)
	succeeded := 0
	for i := 0; i < users; i++ {
		number := <-numbers
		if number == "" {
			continue
		}
		assert.False(t, seen[number], "account number %s assigned twice", number)
		seen[number] = true
		succeeded++
	}
	assert.Greater(t, succeeded, 0)
}
