package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"account-ledger/internal/auth"
	"account-ledger/internal/config"
	"account-ledger/internal/domain"
	"account-ledger/internal/store"
)

type ServerTestSuite struct {
	suite.Suite
	server    *Server
	baseURL   string
	storePath string
	client    *http.Client
}

func (s *ServerTestSuite) SetupTest() {
	s.storePath = filepath.Join(s.T().TempDir(), "accounts.json")
	s.seedStore(s.storePath)

	cfg := &config.Config{}
	cfg.Server.Addr = ":0"
	cfg.Store.Path = s.storePath
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Ledger.LockTimeout = 2 * time.Second

	server, _, err := StartServer(cfg)
	require.NoError(s.T(), err)

	s.server = server
	s.baseURL = fmt.Sprintf("http://localhost:%s", server.GetPort())
	s.client = &http.Client{Timeout: 5 * time.Second}
}

func (s *ServerTestSuite) TearDownTest() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Stop(ctx)
	}
}

func (s *ServerTestSuite) seedStore(path string) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jsonStore := store.NewJSONStore(path, logger)

	now := time.Now().UTC()
	accounts := make([]domain.Account, 0, 3)
	for _, spec := range []struct {
		name, number, secret, balance string
		active                        bool
	}{
		{"Alice", "01000001", "alice-code", "1000.00", true},
		{"Bob", "01000002", "bob-code", "500.00", true},
		{"Carol", "01000003", "carol-code", "250.00", false},
	} {
		hash, err := auth.HashSecret(spec.secret, bcrypt.MinCost)
		require.NoError(s.T(), err)
		accounts = append(accounts, domain.Account{
			Name:           spec.name,
			AccountNumber:  spec.number,
			Balance:        decimal.RequireFromString(spec.balance),
			CredentialHash: hash,
			CreatedAt:      now,
			IsActive:       spec.active,
		})
	}
	require.NoError(s.T(), jsonStore.Commit(accounts))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func (s *ServerTestSuite) doJSON(method, path, token string, body interface{}) (int, envelope) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reader)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *ServerTestSuite) login(name, accountNumber, code string) string {
	status, env := s.doJSON("POST", "/api/auth/login", "", map[string]string{
		"name":           name,
		"account_number": accountNumber,
		"auth_code":      code,
	})
	require.Equal(s.T(), http.StatusOK, status)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(s.T(), json.Unmarshal(env.Data, &result))
	require.NotEmpty(s.T(), result.Token)
	return result.Token
}

func (s *ServerTestSuite) TestHealthEndpoint() {
	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(s.T(), "healthy", health["status"])
}

func (s *ServerTestSuite) TestHealthReportsUnhealthyStore() {
	// Corrupt the snapshot so the store can no longer load it.
	require.NoError(s.T(), os.WriteFile(s.storePath, []byte("{not json"), 0o644))

	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(s.T(), "application/json", resp.Header.Get("Content-Type"))

	var health map[string]string
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(s.T(), "unhealthy", health["status"])
}

func (s *ServerTestSuite) TestLoginAndFetchBalance() {
	token := s.login("Alice", "01000001", "alice-code")

	status, env := s.doJSON("GET", "/api/accounts/01000001/balance", token, nil)
	assert.Equal(s.T(), http.StatusOK, status)

	var result struct {
		AccountNumber string          `json:"account_number"`
		Balance       decimal.Decimal `json:"balance"`
	}
	require.NoError(s.T(), json.Unmarshal(env.Data, &result))
	assert.Equal(s.T(), "01000001", result.AccountNumber)
	assert.True(s.T(), result.Balance.Equal(decimal.RequireFromString("1000.00")))
}

func (s *ServerTestSuite) TestLoginRejectsBadCredentials() {
	status, env := s.doJSON("POST", "/api/auth/login", "", map[string]string{
		"name":           "Alice",
		"account_number": "01000001",
		"auth_code":      "wrong",
	})
	assert.Equal(s.T(), http.StatusUnauthorized, status)
	require.NotNil(s.T(), env.Error)
	assert.Equal(s.T(), "invalid_credentials", env.Error.Code)
}

func (s *ServerTestSuite) TestLoginRejectsInactiveAccount() {
	status, env := s.doJSON("POST", "/api/auth/login", "", map[string]string{
		"name":           "Carol",
		"account_number": "01000003",
		"auth_code":      "carol-code",
	})
	assert.Equal(s.T(), http.StatusUnauthorized, status)
	require.NotNil(s.T(), env.Error)
	assert.Equal(s.T(), "invalid_credentials", env.Error.Code)
}

func (s *ServerTestSuite) TestProtectedRoutesRequireToken() {
	status, env := s.doJSON("GET", "/api/accounts/01000001/balance", "", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, status)
	require.NotNil(s.T(), env.Error)
	assert.Equal(s.T(), "unauthenticated", env.Error.Code)

	status, env = s.doJSON("GET", "/api/accounts/01000001/balance", "not-a-token", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, status)
	require.NotNil(s.T(), env.Error)
	assert.Equal(s.T(), "token_malformed", env.Error.Code)
}

func (s *ServerTestSuite) TestExpiredTokenIsRejected() {
	expired := auth.NewTokenService("test-secret", -time.Minute)
	token, err := expired.Issue("01000001", "Alice")
	require.NoError(s.T(), err)

	status, env := s.doJSON("GET", "/api/accounts/01000001/balance", token, nil)
	assert.Equal(s.T(), http.StatusUnauthorized, status)
	require.NotNil(s.T(), env.Error)
	assert.Equal(s.T(), "token_expired", env.Error.Code)
}

func (s *ServerTestSuite) TestCannotReadAnotherAccount() {
	token := s.login("Alice", "01000001", "alice-code")

	status, env := s.doJSON("GET", "/api/accounts/01000002/balance", token, nil)
	assert.Equal(s.T(), http.StatusForbidden, status)
	require.NotNil(s.T(), env.Error)
	assert.Equal(s.T(), "forbidden", env.Error.Code)
}

func (s *ServerTestSuite) TestTransferEndToEnd() {
	token := s.login("Alice", "01000001", "alice-code")

	status, env := s.doJSON("POST", "/api/transfers", token, map[string]string{
		"to_account": "01000002",
		"amount":     "300.00",
	})
	assert.Equal(s.T(), http.StatusCreated, status)

	var result struct {
		TransferID     string          `json:"transfer_id"`
		FromAccount    string          `json:"from_account"`
		ToAccount      string          `json:"to_account"`
		NewFromBalance decimal.Decimal `json:"new_from_balance"`
		NewToBalance   decimal.Decimal `json:"new_to_balance"`
	}
	require.NoError(s.T(), json.Unmarshal(env.Data, &result))
	assert.NotEmpty(s.T(), result.TransferID)
	assert.Equal(s.T(), "01000001", result.FromAccount)
	assert.Equal(s.T(), "01000002", result.ToAccount)
	assert.True(s.T(), result.NewFromBalance.Equal(decimal.RequireFromString("700.00")))
	assert.True(s.T(), result.NewToBalance.Equal(decimal.RequireFromString("800.00")))

	// The transfer shows up in the sender's history.
	status, env = s.doJSON("GET", "/api/accounts/01000001/transfers", token, nil)
	assert.Equal(s.T(), http.StatusOK, status)

	var transfers []struct {
		TransferID string `json:"transfer_id"`
	}
	require.NoError(s.T(), json.Unmarshal(env.Data, &transfers))
	require.Len(s.T(), transfers, 1)
	assert.Equal(s.T(), result.TransferID, transfers[0].TransferID)
}

func (s *ServerTestSuite) TestTransferValidationErrors() {
	token := s.login("Alice", "01000001", "alice-code")

	cases := []struct {
		name       string
		toAccount  string
		amount     string
		wantStatus int
		wantCode   string
	}{
		{"insufficient funds", "01000002", "99999.00", http.StatusUnprocessableEntity, "insufficient_funds"},
		{"zero amount", "01000002", "0", http.StatusBadRequest, "invalid_amount"},
		{"negative amount", "01000002", "-10.00", http.StatusBadRequest, "invalid_amount"},
		{"unparseable amount", "01000002", "ten", http.StatusBadRequest, "invalid_amount"},
		{"self transfer", "01000001", "10.00", http.StatusBadRequest, "same_account_transfer"},
		{"unknown destination", "09999999", "10.00", http.StatusNotFound, "account_not_found"},
		{"inactive destination", "01000003", "10.00", http.StatusForbidden, "inactive_account"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			status, env := s.doJSON("POST", "/api/transfers", token, map[string]string{
				"to_account": tc.toAccount,
				"amount":     tc.amount,
			})
			assert.Equal(s.T(), tc.wantStatus, status)
			require.NotNil(s.T(), env.Error)
			assert.Equal(s.T(), tc.wantCode, env.Error.Code)
		})
	}

	// None of the rejected transfers moved money.
	status, env := s.doJSON("GET", "/api/accounts/01000001/balance", token, nil)
	assert.Equal(s.T(), http.StatusOK, status)

	var result struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(s.T(), json.Unmarshal(env.Data, &result))
	assert.True(s.T(), result.Balance.Equal(decimal.RequireFromString("1000.00")))
}

func (s *ServerTestSuite) TestLoginStampsLastLogin() {
	token := s.login("Alice", "01000001", "alice-code")

	status, env := s.doJSON("GET", "/api/accounts/01000001", token, nil)
	assert.Equal(s.T(), http.StatusOK, status)

	var summary struct {
		Name        string     `json:"name"`
		LastLoginAt *time.Time `json:"last_login_at"`
	}
	require.NoError(s.T(), json.Unmarshal(env.Data, &summary))
	assert.Equal(s.T(), "Alice", summary.Name)
	require.NotNil(s.T(), summary.LastLoginAt)
	assert.WithinDuration(s.T(), time.Now().UTC(), *summary.LastLoginAt, time.Minute)
}

func (s *ServerTestSuite) TestLogoutIsAdvisory() {
	status, env := s.doJSON("POST", "/api/auth/logout", "", nil)
	assert.Equal(s.T(), http.StatusOK, status)

	var result map[string]string
	require.NoError(s.T(), json.Unmarshal(env.Data, &result))
	assert.Equal(s.T(), "logged out", result["message"])
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
