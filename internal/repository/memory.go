package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/coralbank/account-service/internal/models"
)

// In-memory implementations of the write-side store contracts. They back
// deterministic unit tests and single-node development runs; the PostgreSQL
// repositories are the durable equivalents.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return ErrDuplicate
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByID(userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	u := user
	return &u, nil
}

type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]models.Account)}
}

func (r *MemoryAccountRepository) Create(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.AccountNumber]; exists {
		return ErrDuplicate
	}
	r.accounts[account.AccountNumber] = *account
	return nil
}

func (r *MemoryAccountRepository) FindByNumber(accountNumber string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[accountNumber]
	if !ok {
		return nil, ErrNotFound
	}
	a := account
	return &a, nil
}

func (r *MemoryAccountRepository) ListByUser(userID string) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var accounts []models.Account
	for _, account := range r.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountNumber < accounts[j].AccountNumber
	})
	return accounts, nil
}

func (r *MemoryAccountRepository) CountInUseByUser(userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, account := range r.accounts {
		if account.UserID == userID && account.Status == models.AccountInUse {
			count++
		}
	}
	return count, nil
}

func (r *MemoryAccountRepository) FindHighestNumber() (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var highest *models.Account
	for number := range r.accounts {
		if highest == nil || number > highest.AccountNumber {
			account := r.accounts[number]
			highest = &account
		}
	}
	if highest == nil {
		return nil, ErrNotFound
	}
	return highest, nil
}

func (r *MemoryAccountRepository) UpdateBalance(accountNumber string, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountNumber]
	if !ok {
		return ErrNotFound
	}
	account.Balance = balance
	account.UpdatedAt = time.Now().UTC()
	r.accounts[accountNumber] = account
	return nil
}

func (r *MemoryAccountRepository) Unregister(accountNumber string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountNumber]
	if !ok {
		return ErrNotFound
	}
	account.Status = models.AccountUnregistered
	account.UnregisteredAt = &at
	account.UpdatedAt = time.Now().UTC()
	r.accounts[accountNumber] = account
	return nil
}

type MemoryTransactionRepository struct {
	mu           sync.RWMutex
	accounts     *MemoryAccountRepository
	transactions map[string]models.Transaction
	order        []string
}

func NewMemoryTransactionRepository(accounts *MemoryAccountRepository) *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		accounts:     accounts,
		transactions: make(map[string]models.Transaction),
	}
}

func (r *MemoryTransactionRepository) Append(transaction *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.append(transaction)
}

// AppendWithBalance mirrors the durable store's transactional write: the
// balance update and the ledger entry land together or not at all.
func (r *MemoryTransactionRepository) AppendWithBalance(transaction *models.Transaction, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transactions[transaction.ID]; exists {
		return ErrDuplicate
	}
	if err := r.accounts.UpdateBalance(transaction.AccountNumber, newBalance); err != nil {
		return err
	}
	return r.append(transaction)
}

func (r *MemoryTransactionRepository) append(transaction *models.Transaction) error {
	if _, exists := r.transactions[transaction.ID]; exists {
		return ErrDuplicate
	}
	r.transactions[transaction.ID] = *transaction
	r.order = append(r.order, transaction.ID)
	return nil
}

func (r *MemoryTransactionRepository) FindByID(transactionID string) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	transaction, ok := r.transactions[transactionID]
	if !ok {
		return nil, ErrNotFound
	}
	t := transaction
	return &t, nil
}

func (r *MemoryTransactionRepository) FindCancelOf(transactionID string) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, transaction := range r.transactions {
		if transaction.Type == models.TransactionCancel &&
			transaction.Result == models.ResultSuccess &&
			transaction.CancelledTransactionID == transactionID {
			t := transaction
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTransactionRepository) ListByAccount(accountNumber string, limit int) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var transactions []models.Transaction
	// Newest first, matching the durable store's ordering.
	for i := len(r.order) - 1; i >= 0 && len(transactions) < limit; i-- {
		transaction := r.transactions[r.order[i]]
		if transaction.AccountNumber == accountNumber {
			transactions = append(transactions, transaction)
		}
	}
	return transactions, nil
}
