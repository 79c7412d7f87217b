package events

import "time"

// Event types
const (
	AccountOpened = "account.opened"
	AccountClosed = "account.closed"

	TransactionRecorded = "transaction.recorded"
	BalanceUpdated      = "balance.updated"
)

// Stream names
const (
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Account events
type AccountOpenedEvent struct {
	AccountNumber  string `json:"accountNumber"`
	UserID         string `json:"userId"`
	InitialBalance int64  `json:"initialBalance"`
}

type AccountClosedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
}

// Ledger events. TransactionRecordedEvent is emitted for every ledger
// append, FAIL rows included, so downstream consumers see the full audit
// trail of attempts.
type TransactionRecordedEvent struct {
	TransactionID   string `json:"transactionId"`
	AccountNumber   string `json:"accountNumber"`
	Type            string `json:"type"`
	Result          string `json:"result"`
	Amount          int64  `json:"amount"`
	BalanceSnapshot int64  `json:"balanceSnapshot"`
}

type BalanceUpdatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	NewBalance    int64  `json:"newBalance"`
	Change        int64  `json:"change"`
}
