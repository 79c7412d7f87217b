// Package errcode defines the error taxonomy shared by the account and
// transaction services. Every business-rule failure carries a stable Code
// that the HTTP layer maps to a status and the caller can branch on.
package errcode

import "errors"

type Code string

const (
	UserNotFound               Code = "USER_NOT_FOUND"
	AccountNotFound            Code = "ACCOUNT_NOT_FOUND"
	TransactionNotFound        Code = "TRANSACTION_NOT_FOUND"
	UserAccountUnmatch         Code = "USER_ACCOUNT_UNMATCH"
	TransactionAccountUnmatch  Code = "TRANSACTION_ACCOUNT_UNMATCH"
	MaxAccountPerUser          Code = "MAX_COUNT_PER_USER_10"
	AccountAlreadyUnregistered Code = "ACCOUNT_ALREADY_UNREGISTERED"
	BalanceNotEmpty            Code = "BALANCE_NOT_EMPTY"
	AccountTransactionLock     Code = "ACCOUNT_TRANSACTION_LOCK"
	AmountExceedBalance        Code = "AMOUNT_EXCEED_BALANCE"
	AmountTooSmall             Code = "AMOUNT_TOO_SMALL"
	AmountTooBig               Code = "AMOUNT_TOO_BIG"
	CancelAmountUnmatch        Code = "CANCEL_AMOUNT_UNMATCH"
	AlreadyCancelled           Code = "TRANSACTION_ALREADY_CANCELLED"
	InvalidRequest             Code = "INVALID_REQUEST"
)

var descriptions = map[Code]string{
	UserNotFound:               "user does not exist",
	AccountNotFound:            "account does not exist",
	TransactionNotFound:        "transaction does not exist",
	UserAccountUnmatch:         "user does not own this account",
	TransactionAccountUnmatch:  "transaction does not belong to this account",
	MaxAccountPerUser:          "user already holds the maximum number of accounts",
	AccountAlreadyUnregistered: "account is already unregistered",
	BalanceNotEmpty:            "account with a remaining balance cannot be unregistered",
	AccountTransactionLock:     "account is in use by another transaction",
	AmountExceedBalance:        "transaction amount exceeds the account balance",
	AmountTooSmall:             "transaction amount is too small",
	AmountTooBig:               "transaction amount is too big",
	CancelAmountUnmatch:        "cancel amount does not match the original transaction",
	AlreadyCancelled:           "transaction has already been cancelled",
	InvalidRequest:             "invalid request",
}

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New returns an Error with the code's default description.
func New(code Code) *Error {
	return &Error{Code: code, Message: descriptions[code]}
}

// WithMessage returns an Error with a call-site specific message.
func WithMessage(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the Code from err. The second return is false when err
// is not a business-rule failure (infra errors propagate unmapped).
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
