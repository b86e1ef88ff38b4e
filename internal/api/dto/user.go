package dto

import "github.com/foliofyhq/foliofy/internal/domain/user"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Plan           string           `json:"plan"`
	IsStudentOffer bool             `json:"isStudentOffer"`
	Subscription   *SubscriptionDTO `json:"subscription,omitempty"`
}

// FromUser maps a domain user to its API representation
func FromUser(u *user.User) *UserDTO {
	d := &UserDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Plan:           string(u.Plan),
		IsStudentOffer: u.IsStudentOffer,
	}
	if u.Subscription != nil {
		d.Subscription = FromSubscription(u.Subscription)
	}
	return d
}
