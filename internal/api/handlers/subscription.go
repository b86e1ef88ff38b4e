package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/foliofyhq/foliofy/internal/api/dto"
	"github.com/foliofyhq/foliofy/internal/api/middleware"
	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/utils"
	"github.com/foliofyhq/foliofy/internal/pkg/validator"
)

// SubscriptionHandler handles payment and entitlement requests
type SubscriptionHandler struct {
	entitlements user.Entitlements
	logger       *logger.Logger
	validator    *validator.Validator
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(entitlements user.Entitlements, log *logger.Logger, val *validator.Validator) *SubscriptionHandler {
	return &SubscriptionHandler{
		entitlements: entitlements,
		logger:       log,
		validator:    val,
	}
}

// planCatalog is the fixed set of purchasable plans. Prices are display
// values; the mock checkout does not charge them.
var planCatalog = []dto.PlanDTO{
	{
		ID:       string(user.PlanPlus),
		Name:     "Plus",
		Price:    29,
		Currency: "USD",
		Months:   user.PlusMonths,
		Features: []string{"Custom portfolio themes", "Remove branding", "Priority support"},
	},
	{
		ID:       string(user.PlanMax),
		Name:     "Max",
		Price:    59,
		Currency: "USD",
		Months:   user.MaxMonths,
		Features: []string{"Everything in Plus", "Custom domain", "Analytics dashboard"},
	},
}

// MockSuccess records a simulated successful payment and activates the plan
// @Summary Record mock payment
// @Description Activate a paid plan after a simulated checkout
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.MockPaymentRequest true "Plan and optional payment reference"
// @Success 200 {object} dto.SubscriptionStatusResponse "Plan activated"
// @Failure 400 {object} utils.ErrorResponse "Unknown plan type"
// @Security BearerAuth
// @Router /payment/mock-success [post]
func (h *SubscriptionHandler) MockSuccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	var req dto.MockPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	u, err := h.entitlements.RecordMockPayment(r.Context(), userID, req.PlanType, req.PaymentID)
	if err != nil {
		h.writeError(w, err, "Failed to record payment")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Payment recorded", statusResponse(u))
}

// ClaimStudentOffer grants the one-time free student upgrade
// @Summary Claim student offer
// @Description Grant six months of the max plan at no charge, once per account
// @Tags Payment
// @Produce json
// @Success 200 {object} dto.SubscriptionStatusResponse "Offer granted"
// @Failure 409 {object} utils.ErrorResponse "Already claimed"
// @Security BearerAuth
// @Router /payment/claim-student-offer [post]
func (h *SubscriptionHandler) ClaimStudentOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	u, err := h.entitlements.ClaimStudentOffer(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to claim student offer")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Student offer claimed", statusResponse(u))
}

// Cancel reverts the user to the free plan immediately
// @Summary Cancel subscription
// @Description Revert to the free plan, closing the subscription window now
// @Tags Payment
// @Produce json
// @Success 200 {object} dto.SubscriptionStatusResponse "Subscription cancelled"
// @Failure 400 {object} utils.ErrorResponse "No active subscription"
// @Security BearerAuth
// @Router /payment/cancel [post]
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	u, err := h.entitlements.Cancel(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to cancel subscription")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Subscription cancelled", statusResponse(u))
}

// Status returns the current entitlement state
// @Summary Subscription status
// @Description Current plan and subscription window, with expiry applied
// @Tags Payment
// @Produce json
// @Success 200 {object} dto.SubscriptionStatusResponse "Current entitlement"
// @Security BearerAuth
// @Router /payment/status [get]
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	u, err := h.entitlements.Status(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to get subscription status")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, statusResponse(u))
}

// Plans returns the purchasable plan catalog
// @Summary List plans
// @Description Purchasable plan catalog
// @Tags Payment
// @Produce json
// @Success 200 {array} dto.PlanDTO "Available plans"
// @Router /payment/plans [get]
func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, planCatalog)
}

func statusResponse(u *user.User) dto.SubscriptionStatusResponse {
	resp := dto.SubscriptionStatusResponse{
		Plan:           string(u.Plan),
		IsStudentOffer: u.IsStudentOffer,
	}
	if u.Subscription != nil {
		resp.Subscription = dto.FromSubscription(u.Subscription)
	}
	return resp
}

func (h *SubscriptionHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := errors.AsAppError(err); ok {
		utils.WriteError(w, appErr)
		return
	}
	h.logger.ErrorWithErr(err, fallback)
	utils.WriteError(w, errors.Internal(fallback, err))
}
