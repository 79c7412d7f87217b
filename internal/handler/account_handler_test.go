package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coralbank/account-service/internal/cqrs"
	"github.com/coralbank/account-service/internal/errcode"
	"github.com/coralbank/account-service/internal/models"
)

// ---- mock implementations ----

type mockAccountCommander struct {
	createUserFn func(cqrs.CreateUserCommand) (*models.User, error)
	openFn       func(cqrs.OpenAccountCommand) (*models.Account, error)
	closeFn      func(cqrs.CloseAccountCommand) (*models.Account, error)
}

func (m *mockAccountCommander) CreateUser(_ context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) OpenAccount(_ context.Context, cmd cqrs.OpenAccountCommand) (*models.Account, error) {
	if m.openFn != nil {
		return m.openFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) CloseAccount(_ context.Context, cmd cqrs.CloseAccountCommand) (*models.Account, error) {
	if m.closeFn != nil {
		return m.closeFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockAccountQuerier struct {
	listFn func(cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

func (m *mockAccountQuerier) ListAccounts(_ context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newAccountTestRouter(cmds AccountCommander, qrys AccountQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAccountHandler(cmds, qrys)
	v1 := r.Group("/v1")
	v1.POST("/users", h.CreateUser)
	v1.POST("/accounts", h.OpenAccount)
	v1.DELETE("/accounts", h.CloseAccount)
	v1.GET("/accounts", h.ListAccounts)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var aTestAccount = &models.Account{
	AccountNumber: "1000000000", UserID: "usr-001",
	Balance: 10000, Status: models.AccountInUse,
	CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

// ---- tests ----

func TestCreateUserHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateUserCommand) (*models.User, error)
		expectedStatus int
	}{
		{
			name: "success - create user",
			body: map[string]interface{}{"name": "Jamie"},
			createFn: func(cmd cqrs.CreateUserCommand) (*models.User, error) {
				return &models.User{ID: "usr-001", Name: cmd.Name}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing name",
			body:           map[string]interface{}{},
			createFn:       nil,
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{createUserFn: tt.createFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestOpenAccountHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		openFn         func(cqrs.OpenAccountCommand) (*models.Account, error)
		expectedStatus int
	}{
		{
			name: "success - open account",
			body: map[string]interface{}{"userId": "usr-001", "initialBalance": 10000},
			openFn: func(cmd cqrs.OpenAccountCommand) (*models.Account, error) {
				return aTestAccount, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing user id",
			body:           map[string]interface{}{"initialBalance": 10000},
			openFn:         nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - negative initial balance",
			body:           map[string]interface{}{"userId": "usr-001", "initialBalance": -5},
			openFn:         nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not found - unknown user",
			body: map[string]interface{}{"userId": "usr-404", "initialBalance": 0},
			openFn: func(cmd cqrs.OpenAccountCommand) (*models.Account, error) {
				return nil, errcode.New(errcode.UserNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "conflict - account limit reached",
			body: map[string]interface{}{"userId": "usr-001", "initialBalance": 0},
			openFn: func(cmd cqrs.OpenAccountCommand) (*models.Account, error) {
				return nil, errcode.New(errcode.MaxAccountPerUser)
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{openFn: tt.openFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/accounts", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCloseAccountHandler(t *testing.T) {
	closedAt := time.Now()
	closed := &models.Account{
		AccountNumber: "1000000000", UserID: "usr-001",
		Status: models.AccountUnregistered, UnregisteredAt: &closedAt,
	}

	tests := []struct {
		name           string
		body           interface{}
		closeFn        func(cqrs.CloseAccountCommand) (*models.Account, error)
		expectedStatus int
	}{
		{
			name: "success - close account",
			body: map[string]interface{}{"userId": "usr-001", "accountNumber": "1000000000"},
			closeFn: func(cmd cqrs.CloseAccountCommand) (*models.Account, error) {
				return closed, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - malformed account number",
			body:           map[string]interface{}{"userId": "usr-001", "accountNumber": "12345"},
			closeFn:        nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "forbidden - not the owner",
			body: map[string]interface{}{"userId": "usr-002", "accountNumber": "1000000000"},
			closeFn: func(cmd cqrs.CloseAccountCommand) (*models.Account, error) {
				return nil, errcode.New(errcode.UserAccountUnmatch)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "conflict - balance not empty",
			body: map[string]interface{}{"userId": "usr-001", "accountNumber": "1000000000"},
			closeFn: func(cmd cqrs.CloseAccountCommand) (*models.Account, error) {
				return nil, errcode.New(errcode.BalanceNotEmpty)
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{closeFn: tt.closeFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodDelete, "/v1/accounts", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListAccountsHandler(t *testing.T) {
	views := []models.AccountView{{AccountNumber: "1000000000", UserID: "usr-001", Balance: 100}}
	listFn := func(q cqrs.ListAccountsQuery) ([]models.AccountView, error) { return views, nil }

	router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{listFn: listFn})
	w := doRequest(router, http.MethodGet, "/v1/accounts?user_id=usr-001", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}

	// Missing user_id is rejected before reaching the query service.
	w = doRequest(router, http.MethodGet, "/v1/accounts", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d; body: %s", w.Code, w.Body.String())
	}
}
