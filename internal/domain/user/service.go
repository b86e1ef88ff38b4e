package user

import "context"

// Service defines the interface for account business logic
type Service interface {
	// Register creates a password account and returns the new user
	Register(ctx context.Context, name, email, password string) (*User, error)

	// Authenticate verifies email/password credentials
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// AuthenticateGoogle verifies a Google ID-token assertion, creating the
	// account on first login
	AuthenticateGoogle(ctx context.Context, assertion string) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)
}

// Entitlements defines the interface for the subscription entitlement state
// machine. Every operation loads the record, applies lazy expiry first, then
// applies its transition and persists the full record.
type Entitlements interface {
	// ClaimStudentOffer grants the one-time max upgrade; a repeat claim is rejected
	ClaimStudentOffer(ctx context.Context, userID string) (*User, error)

	// RecordMockPayment activates a paid plan after a (mock) payment succeeds
	RecordMockPayment(ctx context.Context, userID, planType, paymentID string) (*User, error)

	// Cancel reverts the user to the free plan immediately
	Cancel(ctx context.Context, userID string) (*User, error)

	// Status returns the user with lazy expiry applied and persisted
	Status(ctx context.Context, userID string) (*User, error)
}
