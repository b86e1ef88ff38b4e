package user

import "time"

// Plan is the tier of paid entitlement a user holds.
//
// The set is closed: earlier revisions of the product shipped with a
// {free,max} enumeration and later grew plus; both are collapsed here into a
// single variant type. The student-offer path grants max only, never plus.
type Plan string

// Plan tiers
const (
	PlanFree Plan = "free"
	PlanPlus Plan = "plus"
	PlanMax  Plan = "max"
)

// Paid plan durations in months
const (
	PlusMonths         = 3
	MaxMonths          = 6
	StudentOfferMonths = 6
)

// ParsePlan returns the paid plan for a raw plan type string, or false if the
// value is not a purchasable plan. free is not purchasable.
func ParsePlan(s string) (Plan, bool) {
	switch Plan(s) {
	case PlanPlus:
		return PlanPlus, true
	case PlanMax:
		return PlanMax, true
	default:
		return "", false
	}
}

// Months returns the subscription window length granted by a payment for this plan.
func (p Plan) Months() int {
	switch p {
	case PlanPlus:
		return PlusMonths
	case PlanMax:
		return MaxMonths
	default:
		return 0
	}
}

// Paid reports whether the plan is a paid tier.
func (p Plan) Paid() bool {
	return p == PlanPlus || p == PlanMax
}

// Subscription is the window governing a paid plan's validity.
type Subscription struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
	PaymentID string    `json:"paymentId,omitempty"`
	Provider  string    `json:"provider,omitempty"`
}

// User is the authoritative account record.
type User struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	PasswordHash   string        `json:"-"` // empty for Google-only accounts
	Plan           Plan          `json:"plan"`
	Subscription   *Subscription `json:"subscription,omitempty"`
	IsStudentOffer bool          `json:"isStudentOffer"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ExpireIfDue collapses a paid plan whose window has lapsed back to free and
// reports whether the record changed. Expiry is evaluated lazily at read time;
// between the true expiry instant and the next read the stored plan may be
// stale, so callers must run this before trusting the plan and persist the
// record when it reports true.
func (u *User) ExpireIfDue(now time.Time) bool {
	if u.Plan == PlanFree || u.Subscription == nil || u.Subscription.EndDate.IsZero() {
		return false
	}
	if !now.After(u.Subscription.EndDate) {
		return false
	}

	u.Plan = PlanFree
	u.Subscription.IsActive = false
	return true
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
