package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coralbank/account-service/internal/errcode"
)

// ErrorResponse is the error body for every failed request.
type ErrorResponse struct {
	ErrorCode    errcode.Code `json:"errorCode"`
	ErrorMessage string       `json:"errorMessage"`
}

var statusByCode = map[errcode.Code]int{
	errcode.UserNotFound:               http.StatusNotFound,
	errcode.AccountNotFound:            http.StatusNotFound,
	errcode.TransactionNotFound:        http.StatusNotFound,
	errcode.UserAccountUnmatch:         http.StatusForbidden,
	errcode.TransactionAccountUnmatch:  http.StatusForbidden,
	errcode.MaxAccountPerUser:          http.StatusConflict,
	errcode.AccountAlreadyUnregistered: http.StatusConflict,
	errcode.BalanceNotEmpty:            http.StatusConflict,
	errcode.AccountTransactionLock:     http.StatusConflict,
	errcode.AlreadyCancelled:           http.StatusConflict,
	errcode.AmountExceedBalance:        http.StatusBadRequest,
	errcode.AmountTooSmall:             http.StatusBadRequest,
	errcode.AmountTooBig:               http.StatusBadRequest,
	errcode.CancelAmountUnmatch:        http.StatusBadRequest,
	errcode.InvalidRequest:             http.StatusBadRequest,
}

// respondError maps a business-rule failure to its HTTP status; anything
// without a code is an internal fault and is logged, not leaked.
func respondError(c *gin.Context, err error) {
	var codeErr *errcode.Error
	if errors.As(err, &codeErr) {
		status, known := statusByCode[codeErr.Code]
		if !known {
			status = http.StatusInternalServerError
		}
		c.JSON(status, ErrorResponse{ErrorCode: codeErr.Code, ErrorMessage: codeErr.Message})
		return
	}
	log.Printf("Internal error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode:    "INTERNAL_SERVER_ERROR",
		ErrorMessage: "internal server error",
	})
}
