package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foliofyhq/foliofy/internal/api/middleware"
	"github.com/foliofyhq/foliofy/internal/config"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/password"
	"github.com/foliofyhq/foliofy/internal/pkg/validator"
	"github.com/foliofyhq/foliofy/internal/services"
	"github.com/foliofyhq/foliofy/internal/testutil"
	"github.com/foliofyhq/foliofy/internal/token"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth: config.AuthConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
	}
}

func newAuthFixture(t *testing.T) (*AuthHandler, *testutil.MockUserRepository) {
	t.Helper()

	cfg := testConfig()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	mockRepo := testutil.NewMockUserRepository()
	accounts := services.NewAccountService(mockRepo, password.NewHasher(4), nil, log)
	tokens := token.New(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	return NewAuthHandler(accounts, tokens, cfg, log, validator.New()), mockRepo
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return response
}

func TestAuthHandler_Signup(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name:           "valid signup",
			body:           map[string]string{"name": "Ada", "email": "ada@example.com", "password": "longenough"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "short password",
			body:           map[string]string{"name": "Ada", "email": "ada2@example.com", "password": "short"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid email",
			body:           map[string]string{"name": "Ada", "email": "not-an-email", "password": "longenough"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			body:           map[string]string{"email": "ada3@example.com", "password": "longenough"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newAuthFixture(t)
			rr := postJSON(t, handler.Signup, "/api/auth/signup", tt.body)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %v, want %v, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}

			if tt.expectedStatus == http.StatusCreated {
				response := decodeEnvelope(t, rr)
				data := response["data"].(map[string]interface{})
				if data["accessToken"] == "" || data["refreshToken"] == "" {
					t.Error("signup response missing tokens")
				}
				u := data["user"].(map[string]interface{})
				if u["plan"] != "free" {
					t.Errorf("new user plan = %v, want free", u["plan"])
				}
				// Session cookies accompany the body tokens.
				cookies := rr.Result().Cookies()
				names := map[string]bool{}
				for _, c := range cookies {
					names[c.Name] = true
					if !c.HttpOnly {
						t.Errorf("cookie %s not HttpOnly", c.Name)
					}
				}
				if !names["accessToken"] || !names["refreshToken"] {
					t.Errorf("missing session cookies, got %v", names)
				}
			}
		})
	}
}

func TestAuthHandler_Signup_DuplicateEmail(t *testing.T) {
	handler, _ := newAuthFixture(t)
	body := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "longenough"}

	if rr := postJSON(t, handler.Signup, "/api/auth/signup", body); rr.Code != http.StatusCreated {
		t.Fatalf("first signup status = %v", rr.Code)
	}
	if rr := postJSON(t, handler.Signup, "/api/auth/signup", body); rr.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %v, want %v", rr.Code, http.StatusConflict)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	handler, _ := newAuthFixture(t)
	signup := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "longenough"}
	if rr := postJSON(t, handler.Signup, "/api/auth/signup", signup); rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %v", rr.Code)
	}

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name:           "valid login",
			body:           map[string]string{"email": "ada@example.com", "password": "longenough"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			body:           map[string]string{"email": "ada@example.com", "password": "wrongwrong"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown account",
			body:           map[string]string{"email": "ghost@example.com", "password": "longenough"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, handler.Login, "/api/auth/login", tt.body)
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %v, want %v, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	handler, _ := newAuthFixture(t)
	signup := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "longenough"}
	rr := postJSON(t, handler.Signup, "/api/auth/signup", signup)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %v", rr.Code)
	}
	data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
	refreshToken := data["refreshToken"].(string)
	accessToken := data["accessToken"].(string)

	t.Run("valid refresh token in body", func(t *testing.T) {
		rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", map[string]string{"refreshToken": refreshToken})
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %v, body %s", rr.Code, rr.Body.String())
		}
		data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
		if data["accessToken"] == "" {
			t.Error("refresh response missing access token")
		}
		// The refresh token is never rotated on exchange.
		if _, ok := data["refreshToken"]; ok {
			t.Error("refresh response unexpectedly rotated the refresh token")
		}
	})

	t.Run("valid refresh token in cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", bytes.NewReader([]byte("{}")))
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})
		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %v, body %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", map[string]string{"refreshToken": accessToken})
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %v, want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("missing refresh token", func(t *testing.T) {
		rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", map[string]string{})
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %v, want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}

func TestAuthHandler_Me(t *testing.T) {
	handler, mockRepo := newAuthFixture(t)
	signup := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "longenough"}
	if rr := postJSON(t, handler.Signup, "/api/auth/signup", signup); rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %v", rr.Code)
	}

	var userID string
	for id := range mockRepo.Users {
		userID = id
	}

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
		rr := httptest.NewRecorder()
		handler.Me(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %v, body %s", rr.Code, rr.Body.String())
		}
		data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
		if data["email"] != "ada@example.com" {
			t.Errorf("email = %v, want ada@example.com", data["email"])
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rr := httptest.NewRecorder()
		handler.Me(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %v, want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}
