package models

import "time"

type AccountStatus string

const (
	AccountInUse        AccountStatus = "IN_USE"
	AccountUnregistered AccountStatus = "UNREGISTERED"
)

type TransactionType string

const (
	TransactionUse    TransactionType = "USE"
	TransactionCancel TransactionType = "CANCEL"
)

type TransactionResult string

const (
	ResultSuccess TransactionResult = "SUCCESS"
	ResultFail    TransactionResult = "FAIL"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

type Account struct {
	AccountNumber  string        `json:"accountNumber"`
	UserID         string        `json:"-"`
	Balance        int64         `json:"balance"`
	Status         AccountStatus `json:"status"`
	UnregisteredAt *time.Time    `json:"unregisteredTimestamp,omitempty"`
	CreatedAt      time.Time     `json:"createdTimestamp"`
	UpdatedAt      time.Time     `json:"updatedTimestamp"`
}

// Transaction is an append-only ledger entry. Both successful and failed
// attempts are recorded; BalanceSnapshot is the account balance after the
// attempt (unchanged for FAIL rows, zero when the account did not exist).
type Transaction struct {
	ID                     string            `json:"id"`
	Type                   TransactionType   `json:"type"`
	Result                 TransactionResult `json:"result"`
	AccountNumber          string            `json:"accountNumber"`
	Amount                 int64             `json:"amount"`
	BalanceSnapshot        int64             `json:"balanceSnapshot"`
	CancelledTransactionID string            `json:"cancelledTransactionId,omitempty"`
	TransactedAt           time.Time         `json:"transactedTimestamp"`
}
