package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/metrics"
)

// EntitlementService implements user.Entitlements.
//
// Transitions for one user are serialized with a per-user lock so two
// concurrent mutations cannot interleave their read-modify-write cycles. The
// database write is a full-row replace, so the lock is what makes the cycle
// atomic from the caller's point of view.
type EntitlementService struct {
	repo   user.Repository
	logger *logger.Logger
	now    func() time.Time

	locks sync.Map // userID -> *sync.Mutex
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(repo user.Repository, log *logger.Logger) *EntitlementService {
	return &EntitlementService{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (s *EntitlementService) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// load fetches the user and applies lazy expiry, persisting the record when
// the window has lapsed. All entitlement decisions run against the returned
// record, never the stale stored one.
func (s *EntitlementService) load(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.ExpireIfDue(s.now()) {
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, err
		}
		metrics.RecordLazyExpiry()
		s.logger.WithFields(map[string]interface{}{
			"user_id": u.ID,
		}).Info("Subscription expired")
	}

	return u, nil
}

// Status returns the user with lazy expiry applied and persisted
func (s *EntitlementService) Status(ctx context.Context, userID string) (*user.User, error) {
	unlock := s.lock(userID)
	defer unlock()

	return s.load(ctx, userID)
}

// ClaimStudentOffer grants the one-time student upgrade: six months of max at
// no charge, from any plan. Only a repeated claim is rejected; the granted
// window replaces whatever subscription the user currently holds.
func (s *EntitlementService) ClaimStudentOffer(ctx context.Context, userID string) (*user.User, error) {
	unlock := s.lock(userID)
	defer unlock()

	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.IsStudentOffer {
		return nil, errors.Conflict("Student offer has already been claimed")
	}

	now := s.now()
	u.Plan = user.PlanMax
	u.IsStudentOffer = true
	u.Subscription = &user.Subscription{
		StartDate: now,
		EndDate:   now.AddDate(0, user.StudentOfferMonths, 0),
		IsActive:  true,
		PaymentID: fmt.Sprintf("STUDENT_%d", now.UnixMilli()),
		Provider:  "student-offer",
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	metrics.RecordEntitlementTransition("student_offer", string(u.Plan))
	s.logger.WithFields(map[string]interface{}{
		"user_id":  u.ID,
		"end_date": u.Subscription.EndDate,
	}).Info("Student offer claimed")

	return u, nil
}

// RecordMockPayment activates a paid plan after a successful (mock) payment.
// A payment on top of an existing subscription replaces the window rather than
// extending it. An empty paymentID gets a generated mock reference.
func (s *EntitlementService) RecordMockPayment(ctx context.Context, userID, planType, paymentID string) (*user.User, error) {
	plan, ok := user.ParsePlan(planType)
	if !ok {
		return nil, errors.InvalidPlan(planType)
	}

	unlock := s.lock(userID)
	defer unlock()

	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if paymentID == "" {
		paymentID = fmt.Sprintf("MOCK_%d", now.UnixMilli())
	}

	u.Plan = plan
	u.IsStudentOffer = false
	u.Subscription = &user.Subscription{
		StartDate: now,
		EndDate:   now.AddDate(0, plan.Months(), 0),
		IsActive:  true,
		PaymentID: paymentID,
		Provider:  "mock",
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	metrics.RecordEntitlementTransition("payment", string(plan))
	s.logger.WithFields(map[string]interface{}{
		"user_id":    u.ID,
		"plan":       plan,
		"payment_id": paymentID,
		"end_date":   u.Subscription.EndDate,
	}).Info("Payment recorded")

	return u, nil
}

// Cancel reverts the user to the free plan immediately. The window is closed
// at the cancellation instant rather than running out, and the student-offer
// marker is cleared so a later claim is possible again.
func (s *EntitlementService) Cancel(ctx context.Context, userID string) (*user.User, error) {
	unlock := s.lock(userID)
	defer unlock()

	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !u.Plan.Paid() {
		return nil, errors.BadRequest("No active subscription to cancel")
	}

	prevPlan := u.Plan
	u.Plan = user.PlanFree
	u.IsStudentOffer = false
	if u.Subscription != nil {
		u.Subscription.IsActive = false
		u.Subscription.EndDate = s.now()
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	metrics.RecordEntitlementTransition("cancel", string(prevPlan))
	s.logger.WithFields(map[string]interface{}{
		"user_id":   u.ID,
		"prev_plan": prevPlan,
	}).Info("Subscription cancelled")

	return u, nil
}
