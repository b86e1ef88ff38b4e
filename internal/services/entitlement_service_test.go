package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/foliofyhq/foliofy/internal/testutil"
)

func newEntitlementFixture(t *testing.T) (*EntitlementService, *testutil.MockUserRepository, string) {
	t.Helper()

	mockRepo := testutil.NewMockUserRepository()
	u := &user.User{Name: "Ada", Email: "ada@example.com", Plan: user.PlanFree}
	if err := mockRepo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	service := NewEntitlementService(mockRepo, testLogger())
	return service, mockRepo, u.ID
}

func TestEntitlementService_RecordMockPayment(t *testing.T) {
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		planType   string
		paymentID  string
		wantErr    bool
		wantPlan   user.Plan
		wantMonths int
	}{
		{
			name:       "plus grants three months",
			planType:   "plus",
			paymentID:  "pay_123",
			wantPlan:   user.PlanPlus,
			wantMonths: 3,
		},
		{
			name:       "max grants six months",
			planType:   "max",
			paymentID:  "pay_456",
			wantPlan:   user.PlanMax,
			wantMonths: 6,
		},
		{
			name:     "free is not purchasable",
			planType: "free",
			wantErr:  true,
		},
		{
			name:     "unknown plan rejected",
			planType: "enterprise",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, id := newEntitlementFixture(t)
			service.now = func() time.Time { return base }

			u, err := service.RecordMockPayment(context.Background(), id, tt.planType, tt.paymentID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RecordMockPayment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				appErr, ok := errors.AsAppError(err)
				if !ok || appErr.Code != errors.ErrCodeInvalidPlan {
					t.Errorf("RecordMockPayment() error code = %v, want invalid plan", err)
				}
				return
			}

			if u.Plan != tt.wantPlan {
				t.Errorf("plan = %v, want %v", u.Plan, tt.wantPlan)
			}
			sub := u.Subscription
			if sub == nil || !sub.IsActive {
				t.Fatal("subscription not activated")
			}
			if !sub.StartDate.Equal(base) {
				t.Errorf("start = %v, want %v", sub.StartDate, base)
			}
			if want := base.AddDate(0, tt.wantMonths, 0); !sub.EndDate.Equal(want) {
				t.Errorf("end = %v, want %v", sub.EndDate, want)
			}
			if sub.PaymentID != tt.paymentID {
				t.Errorf("payment id = %v, want %v", sub.PaymentID, tt.paymentID)
			}
			if sub.Provider != "mock" {
				t.Errorf("provider = %v, want mock", sub.Provider)
			}
		})
	}
}

func TestEntitlementService_RecordMockPayment_GeneratedPaymentID(t *testing.T) {
	service, _, id := newEntitlementFixture(t)

	u, err := service.RecordMockPayment(context.Background(), id, "plus", "")
	if err != nil {
		t.Fatalf("RecordMockPayment() error = %v", err)
	}
	if !strings.HasPrefix(u.Subscription.PaymentID, "MOCK_") {
		t.Errorf("payment id = %v, want MOCK_ prefix", u.Subscription.PaymentID)
	}
}

func TestEntitlementService_RecordMockPayment_ReplacesWindow(t *testing.T) {
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	service, _, id := newEntitlementFixture(t)
	service.now = func() time.Time { return base }

	if _, err := service.RecordMockPayment(context.Background(), id, "plus", "p1"); err != nil {
		t.Fatalf("first payment: %v", err)
	}

	later := base.AddDate(0, 1, 0)
	service.now = func() time.Time { return later }

	u, err := service.RecordMockPayment(context.Background(), id, "max", "p2")
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if u.Plan != user.PlanMax {
		t.Errorf("plan = %v, want max", u.Plan)
	}
	// The new window starts at the second payment, not stacked on the first.
	if !u.Subscription.StartDate.Equal(later) {
		t.Errorf("start = %v, want %v", u.Subscription.StartDate, later)
	}
	if want := later.AddDate(0, user.MaxMonths, 0); !u.Subscription.EndDate.Equal(want) {
		t.Errorf("end = %v, want %v", u.Subscription.EndDate, want)
	}
}

func TestEntitlementService_ClaimStudentOffer(t *testing.T) {
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	service, mockRepo, id := newEntitlementFixture(t)
	service.now = func() time.Time { return base }

	u, err := service.ClaimStudentOffer(context.Background(), id)
	if err != nil {
		t.Fatalf("ClaimStudentOffer() error = %v", err)
	}
	if u.Plan != user.PlanMax {
		t.Errorf("plan = %v, want max", u.Plan)
	}
	if !u.IsStudentOffer {
		t.Error("student offer marker not set")
	}
	if want := base.AddDate(0, user.StudentOfferMonths, 0); !u.Subscription.EndDate.Equal(want) {
		t.Errorf("end = %v, want %v", u.Subscription.EndDate, want)
	}

	// Repeat claim is rejected while the grant is active.
	if _, err := service.ClaimStudentOffer(context.Background(), id); !errors.IsConflict(err) {
		t.Errorf("repeat claim error = %v, want conflict", err)
	}

	// Still rejected after the granted window expires: one claim per account.
	service.now = func() time.Time { return base.AddDate(0, user.StudentOfferMonths, 1) }
	if _, err := service.ClaimStudentOffer(context.Background(), id); !errors.IsConflict(err) {
		t.Errorf("post-expiry repeat claim error = %v, want conflict", err)
	}

	stored := mockRepo.Users[id]
	if stored.Plan != user.PlanFree {
		t.Errorf("stored plan after expiry = %v, want free", stored.Plan)
	}
}

func TestEntitlementService_ClaimStudentOffer_FromPaidPlan(t *testing.T) {
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	service, _, id := newEntitlementFixture(t)
	service.now = func() time.Time { return base }

	if _, err := service.RecordMockPayment(context.Background(), id, "plus", "p1"); err != nil {
		t.Fatalf("payment: %v", err)
	}

	// An active paid plan does not block the claim; the grant replaces it.
	claimAt := base.AddDate(0, 1, 0)
	service.now = func() time.Time { return claimAt }

	u, err := service.ClaimStudentOffer(context.Background(), id)
	if err != nil {
		t.Fatalf("ClaimStudentOffer() over paid plan error = %v", err)
	}
	if u.Plan != user.PlanMax {
		t.Errorf("plan = %v, want max", u.Plan)
	}
	if !u.IsStudentOffer {
		t.Error("student offer marker not set")
	}
	if !u.Subscription.StartDate.Equal(claimAt) {
		t.Errorf("start = %v, want %v", u.Subscription.StartDate, claimAt)
	}
	if want := claimAt.AddDate(0, user.StudentOfferMonths, 0); !u.Subscription.EndDate.Equal(want) {
		t.Errorf("end = %v, want %v", u.Subscription.EndDate, want)
	}
	if u.Subscription.Provider != "student-offer" {
		t.Errorf("provider = %v, want student-offer", u.Subscription.Provider)
	}
}

func TestEntitlementService_Cancel(t *testing.T) {
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	service, _, id := newEntitlementFixture(t)
	service.now = func() time.Time { return base }

	// Cancel with nothing active is a bad request.
	if _, err := service.Cancel(context.Background(), id); err == nil {
		t.Error("Cancel() on free plan succeeded, want error")
	}

	if _, err := service.ClaimStudentOffer(context.Background(), id); err != nil {
		t.Fatalf("claim: %v", err)
	}

	cancelAt := base.AddDate(0, 1, 0)
	service.now = func() time.Time { return cancelAt }

	u, err := service.Cancel(context.Background(), id)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if u.Plan != user.PlanFree {
		t.Errorf("plan = %v, want free", u.Plan)
	}
	if u.Subscription.IsActive {
		t.Error("subscription still active after cancel")
	}
	if !u.Subscription.EndDate.Equal(cancelAt) {
		t.Errorf("end = %v, want cancellation instant %v", u.Subscription.EndDate, cancelAt)
	}
	if u.IsStudentOffer {
		t.Error("student offer marker survived cancel")
	}

	// After cancel the offer can be claimed again.
	if _, err := service.ClaimStudentOffer(context.Background(), id); err != nil {
		t.Errorf("claim after cancel error = %v", err)
	}
}

func TestEntitlementService_Status_LazyExpiry(t *testing.T) {
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	service, mockRepo, id := newEntitlementFixture(t)
	service.now = func() time.Time { return base }

	if _, err := service.RecordMockPayment(context.Background(), id, "plus", "p1"); err != nil {
		t.Fatalf("payment: %v", err)
	}

	// Inside the window nothing changes.
	service.now = func() time.Time { return base.AddDate(0, 2, 0) }
	u, err := service.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if u.Plan != user.PlanPlus {
		t.Errorf("plan inside window = %v, want plus", u.Plan)
	}
	updatesBefore := mockRepo.UpdateCalls

	// Past the window the read collapses the plan and persists the change.
	service.now = func() time.Time { return base.AddDate(0, user.PlusMonths, 1) }
	u, err = service.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if u.Plan != user.PlanFree {
		t.Errorf("plan past window = %v, want free", u.Plan)
	}
	if u.Subscription.IsActive {
		t.Error("subscription still active past window")
	}
	if mockRepo.UpdateCalls != updatesBefore+1 {
		t.Errorf("expiry not persisted: update calls = %d, want %d", mockRepo.UpdateCalls, updatesBefore+1)
	}
	if stored := mockRepo.Users[id]; stored.Plan != user.PlanFree {
		t.Errorf("stored plan = %v, want free", stored.Plan)
	}

	// A second read finds the record already collapsed and writes nothing.
	if _, err := service.Status(context.Background(), id); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if mockRepo.UpdateCalls != updatesBefore+1 {
		t.Errorf("idempotent expiry wrote again: update calls = %d", mockRepo.UpdateCalls)
	}
}

func TestEntitlementService_ConcurrentPayments(t *testing.T) {
	service, mockRepo, id := newEntitlementFixture(t)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := service.RecordMockPayment(context.Background(), id, "plus", "")
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent payment error = %v", err)
		}
	}

	stored := mockRepo.Users[id]
	if stored.Plan != user.PlanPlus {
		t.Errorf("stored plan = %v, want plus", stored.Plan)
	}
	if stored.Subscription == nil || !stored.Subscription.IsActive {
		t.Error("stored subscription not active")
	}
}
