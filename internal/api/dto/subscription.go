package dto

import (
	"time"

	"github.com/foliofyhq/foliofy/internal/domain/user"
)

// SubscriptionDTO represents a subscription window in API responses
type SubscriptionDTO struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
	PaymentID string    `json:"paymentId,omitempty"`
	Provider  string    `json:"provider,omitempty"`
}

// FromSubscription maps a domain subscription to its API representation
func FromSubscription(s *user.Subscription) *SubscriptionDTO {
	return &SubscriptionDTO{
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		IsActive:  s.IsActive,
		PaymentID: s.PaymentID,
		Provider:  s.Provider,
	}
}

// MockPaymentRequest records a simulated successful payment
type MockPaymentRequest struct {
	PlanType  string `json:"planType" validate:"required"`
	PaymentID string `json:"paymentId,omitempty"`
}

// SubscriptionStatusResponse represents the current entitlement state
type SubscriptionStatusResponse struct {
	Plan           string           `json:"plan"`
	IsStudentOffer bool             `json:"isStudentOffer"`
	Subscription   *SubscriptionDTO `json:"subscription,omitempty"`
}

// PlanDTO represents a purchasable plan in the catalog
type PlanDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Months   int      `json:"months"`
	Features []string `json:"features"`
}
