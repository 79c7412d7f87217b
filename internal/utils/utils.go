package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Account numbers are fixed-width numeric strings assigned sequentially,
// starting from InitialAccountNumber. They are never reused.
const (
	AccountNumberWidth   = 10
	InitialAccountNumber = "1000000000"
)

// GenerateUserID generates a unique user ID.
func GenerateUserID() string {
	return "usr-" + uuid.New().String()
}

// GenerateTransactionID generates an opaque, externally queryable transaction ID.
func GenerateTransactionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NextAccountNumber returns the zero-padded numeric successor of current.
// Account numbers never widen: the successor of the highest representable
// number is an error, since an 11-digit string would break lexicographic
// ordering against the fixed-width column.
func NextAccountNumber(current string) (string, error) {
	n, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed account number %q: %w", current, err)
	}
	next := fmt.Sprintf("%0*d", AccountNumberWidth, n+1)
	if len(next) != AccountNumberWidth {
		return "", fmt.Errorf("account number space exhausted at %q", current)
	}
	return next, nil
}

// ValidateAccountNumber validates the account number format.
func ValidateAccountNumber(accountNumber string) bool {
	if len(accountNumber) != AccountNumberWidth {
		return false
	}
	for _, r := range accountNumber {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateUserID validates the user ID format.
func ValidateUserID(userID string) bool {
	return strings.HasPrefix(userID, "usr-")
}
