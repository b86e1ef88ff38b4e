package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewUserRepository creates a new user repository. A positive timeout bounds
// every query; zero disables the bound.
func NewUserRepository(db *sql.DB, timeout time.Duration) user.Repository {
	return &UserRepository{db: db, timeout: timeout}
}

func (r *UserRepository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return ctx, func() {}
}

const userColumns = `id, name, email, password_hash, plan, sub_start, sub_end,
	sub_active, sub_payment_id, sub_provider, is_student_offer, created_at, updated_at`

// Create creates a new user and assigns its ID
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO users (id, name, email, password_hash, plan, sub_start, sub_end,
			sub_active, sub_payment_id, sub_provider, is_student_offer, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	start, end, active, paymentID, provider := subscriptionFields(u)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Plan),
		start, end, active, paymentID, provider, u.IsStudentOffer,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Email already registered")
		}
		return storeError("Failed to create user", ctx, err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.getOne(ctx, query, email)
}

// Update replaces the stored record for u.ID. Every field is written in one
// statement so a concurrent transition never observes a half-applied record.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, plan = ?, sub_start = ?,
			sub_end = ?, sub_active = ?, sub_payment_id = ?, sub_provider = ?,
			is_student_offer = ?, updated_at = ?
		WHERE id = ?
	`

	start, end, active, paymentID, provider := subscriptionFields(u)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, string(u.Plan),
		start, end, active, paymentID, provider, u.IsStudentOffer,
		u.UpdatedAt.Unix(), u.ID,
	)
	if err != nil {
		return storeError("Failed to update user", ctx, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var (
		u                    user.User
		plan                 string
		subStart, subEnd     sql.NullInt64
		subActive            bool
		paymentID, provider  sql.NullString
		createdAt, updatedAt int64
	)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &plan, &subStart, &subEnd,
		&subActive, &paymentID, &provider, &u.IsStudentOffer, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, storeError("Failed to get user", ctx, err)
	}

	u.Plan = user.Plan(plan)
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)

	if subStart.Valid || subEnd.Valid || subActive {
		sub := &user.Subscription{
			IsActive:  subActive,
			PaymentID: paymentID.String,
			Provider:  provider.String,
		}
		if subStart.Valid {
			sub.StartDate = time.Unix(subStart.Int64, 0)
		}
		if subEnd.Valid {
			sub.EndDate = time.Unix(subEnd.Int64, 0)
		}
		u.Subscription = sub
	}

	return &u, nil
}

func subscriptionFields(u *user.User) (start, end sql.NullInt64, active bool, paymentID, provider sql.NullString) {
	if u.Subscription == nil {
		return
	}
	if !u.Subscription.StartDate.IsZero() {
		start = sql.NullInt64{Int64: u.Subscription.StartDate.Unix(), Valid: true}
	}
	if !u.Subscription.EndDate.IsZero() {
		end = sql.NullInt64{Int64: u.Subscription.EndDate.Unix(), Valid: true}
	}
	active = u.Subscription.IsActive
	if u.Subscription.PaymentID != "" {
		paymentID = sql.NullString{String: u.Subscription.PaymentID, Valid: true}
	}
	if u.Subscription.Provider != "" {
		provider = sql.NullString{String: u.Subscription.Provider, Valid: true}
	}
	return
}

// storeError maps a caller-supplied deadline hit to a Timeout error so
// operators can tell a slow store from a broken one.
func storeError(message string, ctx context.Context, err error) *errors.AppError {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Timeout(message+": store deadline exceeded", err)
	}
	return errors.DatabaseError(message, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
