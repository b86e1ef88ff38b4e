package user

import "context"

// Repository defines the interface for user data access.
//
// Create and Update write the full record in a single statement so a
// concurrent entitlement transition never observes a partially applied
// mutation; across records the store is last-write-wins.
type Repository interface {
	// Create creates a new user and assigns its ID
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by case-normalized email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update replaces the stored record for user.ID
	Update(ctx context.Context, user *User) error
}
