package cqrs

// ---------- Account queries ----------

// ListAccountsQuery fetches all accounts belonging to a user.
type ListAccountsQuery struct {
	UserID string
}

// ---------- Transaction queries ----------

// GetTransactionQuery fetches a single ledger entry.
type GetTransactionQuery struct {
	TransactionID string
}

// ListTransactionsQuery fetches recent ledger entries for an account.
type ListTransactionsQuery struct {
	AccountNumber string
}
