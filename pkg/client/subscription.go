package client

import "context"

// Plan represents a purchasable plan in the catalog
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Months   int      `json:"months"`
	Features []string `json:"features"`
}

// SubscriptionStatus represents the current entitlement state
type SubscriptionStatus struct {
	Plan           string        `json:"plan"`
	IsStudentOffer bool          `json:"isStudentOffer"`
	Subscription   *Subscription `json:"subscription,omitempty"`
}

// Plans retrieves the purchasable plan catalog
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := c.doRequest(ctx, "GET", "/api/payment/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// SubscriptionStatus retrieves the authenticated user's entitlement state
func (c *Client) SubscriptionStatus(ctx context.Context) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := c.doRequest(ctx, "GET", "/api/payment/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RecordMockPayment activates a paid plan through the mock checkout
func (c *Client) RecordMockPayment(ctx context.Context, planType, paymentID string) (*SubscriptionStatus, error) {
	req := map[string]string{"planType": planType}
	if paymentID != "" {
		req["paymentId"] = paymentID
	}

	var status SubscriptionStatus
	if err := c.doRequest(ctx, "POST", "/api/payment/mock-success", req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ClaimStudentOffer claims the one-time student upgrade
func (c *Client) ClaimStudentOffer(ctx context.Context) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := c.doRequest(ctx, "POST", "/api/payment/claim-student-offer", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CancelSubscription reverts the user to the free plan immediately
func (c *Client) CancelSubscription(ctx context.Context) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := c.doRequest(ctx, "POST", "/api/payment/cancel", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
