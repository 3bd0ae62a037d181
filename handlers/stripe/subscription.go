package stripe

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/paramvora-myacara/oz-homepage-sub003/billing"
	"github.com/paramvora-myacara/oz-homepage-sub003/models"
	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

type checkoutSessionRequest struct {
	PlanName  string `json:"planName" binding:"required"`
	IsAnnual  bool   `json:"isAnnual"`
	PromoCode string `json:"promoCode"`
}

// CreateCheckoutSession starts an anonymous hosted checkout for a paid plan.
// @Summary Create a Stripe Checkout session
// @Description Start a Stripe checkout for the given plan and billing interval. Valid promo codes enable the free period trial.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body checkoutSessionRequest true "Plan name, interval and optional promo code"
// @Success 200 {object} map[string]string "sessionId, url"
// @Failure 400 {object} map[string]string "error: zero-cost plan"
// @Failure 404 {object} map[string]string "error: plan not found"
// @Failure 500 {object} map[string]string "error: Stripe error"
// @Router /stripe/checkout-session [post]
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req checkoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	plan, err := h.Catalog.ByName(req.PlanName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	if plan.IsFree() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This plan has no checkout, create an account directly"})
		return
	}
	priceID := plan.PriceID(req.IsAnnual)
	if priceID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan has no price for this interval"})
		return
	}

	siteURL := os.Getenv("SITE_URL")
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:               stripe.String(siteURL + "/pricing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:                stripe.String(siteURL + "/pricing"),
		BillingAddressCollection: stripe.String("required"),
	}
	params.AddMetadata("plan_name", plan.Name)

	// A valid promo code turns the subscription into a free trial running
	// until the promotional cutoff.
	if billing.IsValidPromoCode(req.PromoCode) && billing.InFreeWindow(time.Now()) {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialEnd: stripe.Int64(billing.FreePeriodEndDate.Unix()),
			Metadata: map[string]string{
				"plan_name":          plan.Name,
				"free_period_end":    "2026-05-31",
				"promo_code_applied": req.PromoCode,
			},
		}
	}

	session, err := h.Processor.CreateCheckoutSession(c.Request.Context(), params)
	if err != nil {
		utils.LogError(err, "checkout session creation failed for plan "+plan.Name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": session.ID, "url": session.URL})
}

type verifySessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// VerifySession returns the payment state of a checkout session for the
// success page. Only the essentials leave the server.
// @Summary Verify a checkout session
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body verifySessionRequest true "Checkout session id"
// @Success 200 {object} map[string]string "customer, payment_status, customer_email"
// @Failure 400 {object} map[string]string "error: invalid session"
// @Router /stripe/verify-session [post]
func (h *Handler) VerifySession(c *gin.Context) {
	var req verifySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	session, err := h.Processor.CheckoutSession(c.Request.Context(), req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session"})
		return
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	email := ""
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	c.JSON(http.StatusOK, gin.H{
		"customer":       customerID,
		"payment_status": string(session.PaymentStatus),
		"customer_email": email,
	})
}

type changeSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
	NewPlanName    string `json:"newPlanName" binding:"required"`
	IsAnnual       bool   `json:"isAnnual"`
}

// ChangeSubscription applies a customer-initiated plan change.
// @Summary Change the subscription plan
// @Description Validate the tier change and move the Stripe subscription to the new plan's price
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body changeSubscriptionRequest true "Subscription id, target plan and interval"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "success: true, subscription summary"
// @Failure 400 {object} map[string]string "error with code NO_ACTIVE_SUBSCRIPTION_FOR_CHANGE"
// @Failure 403 {object} map[string]string "error with code DOWNGRADE_NOT_ALLOWED"
// @Failure 404 {object} map[string]string "error: unknown plan or subscription"
// @Router /subscriptions/change [post]
func (h *Handler) ChangeSubscription(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req changeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.Changer.ChangePlan(c.Request.Context(), billing.ChangeRequest{
		SubscriptionID: req.SubscriptionID,
		NewPlanName:    req.NewPlanName,
		IsAnnual:       req.IsAnnual,
	})
	if err != nil {
		h.respondChangeError(c, userID, err)
		return
	}

	utils.LogSuccessWithUser(userID, "subscription "+result.SubscriptionID+" changed to plan "+result.PlanName)
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": result})
}

// respondChangeError keeps business-rule rejections distinct from technical
// failures so the UI can render an explanation instead of a generic error.
func (h *Handler) respondChangeError(c *gin.Context, userID interface{}, err error) {
	switch {
	case errors.Is(err, billing.ErrNoActiveSubscription):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No active Stripe subscription found. Please go to the pricing page to subscribe to a paid plan.",
			"code":  "NO_ACTIVE_SUBSCRIPTION_FOR_CHANGE",
		})
	case errors.Is(err, billing.ErrDowngradeNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Downgrades are not available during the promotional period. You can only upgrade to a higher tier.",
			"code":  "DOWNGRADE_NOT_ALLOWED",
		})
	case errors.Is(err, billing.ErrUnknownPlan), errors.Is(err, billing.ErrNotFound):
		utils.LogErrorWithUser(userID, err, "plan change rejected")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		utils.LogErrorWithUser(userID, err, "plan change failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change subscription"})
	}
}

type subscriptionStatusRequest struct {
	StripeSessionID  string `json:"stripeSessionId"`
	StripeCustomerID string `json:"stripeCustomerId"`
}

// CheckStatus reports whether a subscription record exists and has an
// account attached, session-id first with a customer-id fallback.
// @Summary Check subscription/link status
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body subscriptionStatusRequest true "Session id or customer id"
// @Success 200 {object} map[string]interface{} "accountCreated, userId, subscriptionExists, subscriptionStatus"
// @Failure 400 {object} map[string]string "error: missing identifiers"
// @Router /subscriptions/status [post]
func (h *Handler) CheckStatus(c *gin.Context) {
	var req subscriptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	var (
		record *models.Subscription
		err    error
	)
	switch {
	case req.StripeSessionID != "":
		record, err = h.Store.SubscriptionBySessionID(req.StripeSessionID)
	case req.StripeCustomerID != "":
		record, err = h.Store.SubscriptionByCustomerID(req.StripeCustomerID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either stripeCustomerId or stripeSessionId required"})
		return
	}
	if err != nil {
		utils.LogError(err, "subscription status lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription status"})
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, gin.H{
			"accountCreated":     false,
			"userId":             nil,
			"subscriptionExists": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accountCreated":     record.AccountCreated,
		"userId":             record.UserID,
		"subscriptionExists": true,
		"subscriptionStatus": record.Status,
	})
}

// CurrentSubscription returns the caller's newest non-cancelled record with
// its plan preloaded.
// @Summary Current subscription of the logged-in user
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Subscription
// @Failure 404 {object} map[string]string "error: no subscription"
// @Router /subscriptions/current [get]
func (h *Handler) CurrentSubscription(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, _ := userID.(string)
	sub, err := h.Store.CurrentSubscriptionForUser(id)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "fetching current subscription failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching subscription"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No subscription found"})
		return
	}

	c.JSON(http.StatusOK, sub)
}
