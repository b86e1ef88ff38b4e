package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foliofyhq/foliofy/internal/api/middleware"
	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/validator"
	"github.com/foliofyhq/foliofy/internal/services"
	"github.com/foliofyhq/foliofy/internal/testutil"
)

func newSubscriptionFixture(t *testing.T) (*SubscriptionHandler, string) {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	mockRepo := testutil.NewMockUserRepository()
	u := &user.User{Name: "Ada", Email: "ada@example.com", Plan: user.PlanFree}
	if err := mockRepo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	entitlements := services.NewEntitlementService(mockRepo, log)
	return NewSubscriptionHandler(entitlements, log, validator.New()), u.ID
}

func authedRequest(method, path, userID string, body interface{}) *http.Request {
	var req *http.Request
	if body != nil {
		buf, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(buf))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	}
	return req
}

func TestSubscriptionHandler_MockSuccess(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedPlan   string
	}{
		{
			name:           "plus plan activated",
			body:           map[string]string{"planType": "plus", "paymentId": "pay_1"},
			expectedStatus: http.StatusOK,
			expectedPlan:   "plus",
		},
		{
			name:           "max plan activated",
			body:           map[string]string{"planType": "max"},
			expectedStatus: http.StatusOK,
			expectedPlan:   "max",
		},
		{
			name:           "unknown plan rejected",
			body:           map[string]string{"planType": "enterprise"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing plan rejected",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, userID := newSubscriptionFixture(t)
			rr := httptest.NewRecorder()
			handler.MockSuccess(rr, authedRequest(http.MethodPost, "/api/payment/mock-success", userID, tt.body))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %v, want %v, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedPlan != "" {
				var response map[string]interface{}
				json.NewDecoder(rr.Body).Decode(&response)
				data := response["data"].(map[string]interface{})
				if data["plan"] != tt.expectedPlan {
					t.Errorf("plan = %v, want %v", data["plan"], tt.expectedPlan)
				}
			}
		})
	}
}

func TestSubscriptionHandler_MockSuccess_Unauthenticated(t *testing.T) {
	handler, _ := newSubscriptionFixture(t)
	rr := httptest.NewRecorder()
	handler.MockSuccess(rr, authedRequest(http.MethodPost, "/api/payment/mock-success", "", map[string]string{"planType": "plus"}))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %v, want %v", rr.Code, http.StatusUnauthorized)
	}
}

func TestSubscriptionHandler_ClaimStudentOffer(t *testing.T) {
	handler, userID := newSubscriptionFixture(t)

	rr := httptest.NewRecorder()
	handler.ClaimStudentOffer(rr, authedRequest(http.MethodPost, "/api/payment/claim-student-offer", userID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("claim status = %v, body %s", rr.Code, rr.Body.String())
	}

	var response map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&response)
	data := response["data"].(map[string]interface{})
	if data["plan"] != "max" {
		t.Errorf("plan = %v, want max", data["plan"])
	}
	if data["isStudentOffer"] != true {
		t.Error("isStudentOffer not set")
	}

	// Second claim conflicts.
	rr = httptest.NewRecorder()
	handler.ClaimStudentOffer(rr, authedRequest(http.MethodPost, "/api/payment/claim-student-offer", userID, nil))
	if rr.Code != http.StatusConflict {
		t.Errorf("repeat claim status = %v, want %v", rr.Code, http.StatusConflict)
	}
}

func TestSubscriptionHandler_CancelAndStatus(t *testing.T) {
	handler, userID := newSubscriptionFixture(t)

	// Cancel without a subscription.
	rr := httptest.NewRecorder()
	handler.Cancel(rr, authedRequest(http.MethodPost, "/api/payment/cancel", userID, nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("cancel on free status = %v, want %v", rr.Code, http.StatusBadRequest)
	}

	// Activate then cancel.
	rr = httptest.NewRecorder()
	handler.MockSuccess(rr, authedRequest(http.MethodPost, "/api/payment/mock-success", userID, map[string]string{"planType": "plus"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("payment status = %v", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.Cancel(rr, authedRequest(http.MethodPost, "/api/payment/cancel", userID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel status = %v, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.Status(rr, authedRequest(http.MethodGet, "/api/payment/status", userID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status endpoint = %v", rr.Code)
	}
	var response map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&response)
	data := response["data"].(map[string]interface{})
	if data["plan"] != "free" {
		t.Errorf("plan after cancel = %v, want free", data["plan"])
	}
	sub := data["subscription"].(map[string]interface{})
	if sub["isActive"] != false {
		t.Error("subscription still active after cancel")
	}
}

func TestSubscriptionHandler_Plans(t *testing.T) {
	handler, _ := newSubscriptionFixture(t)

	rr := httptest.NewRecorder()
	handler.Plans(rr, httptest.NewRequest(http.MethodGet, "/api/payment/plans", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %v", rr.Code)
	}

	var response struct {
		Success bool `json:"success"`
		Data    []struct {
			ID     string `json:"id"`
			Months int    `json:"months"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(response.Data) != 2 {
		t.Fatalf("plan count = %d, want 2", len(response.Data))
	}
	months := map[string]int{}
	for _, p := range response.Data {
		months[p.ID] = p.Months
	}
	if months["plus"] != 3 || months["max"] != 6 {
		t.Errorf("plan durations = %v, want plus:3 max:6", months)
	}
}
