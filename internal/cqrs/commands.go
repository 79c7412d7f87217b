package cqrs

type CreateUserCommand struct {
	Name string
}

type OpenAccountCommand struct {
	UserID         string
	InitialBalance int64
}

type CloseAccountCommand struct {
	UserID        string
	AccountNumber string
}

type UseBalanceCommand struct {
	UserID        string
	AccountNumber string
	Amount        int64
}

type CancelBalanceCommand struct {
	TransactionID string
	AccountNumber string
	Amount        int64
}
