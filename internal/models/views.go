package models

import "time"

// AccountView is the read-optimised projection of an account.
// UserID is populated for ownership checks but never serialised to the API response.
type AccountView struct {
	AccountNumber  string        `json:"accountNumber"`
	UserID         string        `json:"-"`
	Balance        int64         `json:"balance"`
	Status         AccountStatus `json:"status"`
	UnregisteredAt *time.Time    `json:"unregisteredTimestamp,omitempty"`
	CreatedAt      time.Time     `json:"createdTimestamp"`
	UpdatedAt      time.Time     `json:"updatedTimestamp"`
}

// TransactionView is the read-optimised projection of a ledger entry.
type TransactionView struct {
	ID                     string            `json:"id"`
	Type                   TransactionType   `json:"type"`
	Result                 TransactionResult `json:"result"`
	AccountNumber          string            `json:"accountNumber"`
	Amount                 int64             `json:"amount"`
	BalanceSnapshot        int64             `json:"balanceSnapshot"`
	CancelledTransactionID string            `json:"cancelledTransactionId,omitempty"`
	TransactedAt           time.Time         `json:"transactedTimestamp"`
}

// AccountToView converts the write model to its read projection.
func AccountToView(a *Account) *AccountView {
	return &AccountView{
		AccountNumber:  a.AccountNumber,
		UserID:         a.UserID,
		Balance:        a.Balance,
		Status:         a.Status,
		UnregisteredAt: a.UnregisteredAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// TransactionToView converts the write model to its read projection.
func TransactionToView(t *Transaction) *TransactionView {
	return &TransactionView{
		ID:                     t.ID,
		Type:                   t.Type,
		Result:                 t.Result,
		AccountNumber:          t.AccountNumber,
		Amount:                 t.Amount,
		BalanceSnapshot:        t.BalanceSnapshot,
		CancelledTransactionID: t.CancelledTransactionID,
		TransactedAt:           t.TransactedAt,
	}
}
