package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/foliofyhq/foliofy/internal/testutil"
)

func newRepo(t *testing.T) user.Repository {
	t.Helper()
	return NewUserRepository(testutil.NewTestDB(t), 0)
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := &user.User{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "hashed",
		Plan:         user.PlanFree,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Email != u.Email || byID.Name != u.Name || byID.PasswordHash != u.PasswordHash {
		t.Errorf("GetByID() = %+v, want fields of %+v", byID, u)
	}
	if byID.Plan != user.PlanFree {
		t.Errorf("plan = %v, want free", byID.Plan)
	}
	if byID.Subscription != nil {
		t.Errorf("new user has subscription %+v, want nil", byID.Subscription)
	}

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetByEmail() ID = %v, want %v", byEmail.ID, u.ID)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "no-such-id"); !errors.IsNotFound(err) {
		t.Errorf("GetByID() missing error = %v, want not found", err)
	}
	if _, err := repo.GetByEmail(ctx, "ghost@example.com"); !errors.IsNotFound(err) {
		t.Errorf("GetByEmail() missing error = %v, want not found", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := &user.User{Name: "Ada", Email: "ada@example.com", Plan: user.PlanFree}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &user.User{Name: "Eve", Email: "ada@example.com", Plan: user.PlanFree}
	if err := repo.Create(ctx, second); !errors.IsConflict(err) {
		t.Errorf("Create() duplicate email error = %v, want conflict", err)
	}
}

func TestUserRepository_UpdateSubscription(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := &user.User{Name: "Ada", Email: "ada@example.com", Plan: user.PlanFree}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	u.Plan = user.PlanMax
	u.IsStudentOffer = true
	u.Subscription = &user.Subscription{
		StartDate: start,
		EndDate:   start.AddDate(0, 6, 0),
		IsActive:  true,
		PaymentID: "STUDENT_1",
		Provider:  "student-offer",
	}
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Plan != user.PlanMax || !got.IsStudentOffer {
		t.Errorf("got plan=%v studentOffer=%v, want max/true", got.Plan, got.IsStudentOffer)
	}
	sub := got.Subscription
	if sub == nil {
		t.Fatal("subscription not persisted")
	}
	if !sub.StartDate.Equal(start) || !sub.EndDate.Equal(start.AddDate(0, 6, 0)) {
		t.Errorf("window = %v..%v, want %v..%v", sub.StartDate, sub.EndDate, start, start.AddDate(0, 6, 0))
	}
	if !sub.IsActive || sub.PaymentID != "STUDENT_1" || sub.Provider != "student-offer" {
		t.Errorf("subscription fields = %+v", sub)
	}

	// Collapse back to free, clearing the window.
	got.Plan = user.PlanFree
	got.IsStudentOffer = false
	got.Subscription.IsActive = false
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	final, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if final.Plan != user.PlanFree || final.IsStudentOffer {
		t.Errorf("final plan=%v studentOffer=%v, want free/false", final.Plan, final.IsStudentOffer)
	}
	if final.Subscription == nil || final.Subscription.IsActive {
		t.Error("cancelled window not persisted")
	}
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	repo := newRepo(t)

	u := &user.User{ID: "no-such-id", Name: "Ghost", Email: "ghost@example.com", Plan: user.PlanFree}
	if err := repo.Update(context.Background(), u); !errors.IsNotFound(err) {
		t.Errorf("Update() missing error = %v, want not found", err)
	}
}

func TestUserRepository_QueryTimeout(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db, time.Nanosecond)

	_, err := repo.GetByID(context.Background(), "any")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeTimeout {
		t.Errorf("GetByID() with expired deadline error = %v, want timeout", err)
	}
}
