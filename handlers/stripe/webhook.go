package stripe

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paramvora-myacara/oz-homepage-sub003/billing"
	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

// PlanChanger validates and applies a plan change against Stripe.
type PlanChanger interface {
	ChangePlan(ctx context.Context, req billing.ChangeRequest) (*billing.ChangeResult, error)
}

// Handler exposes the Stripe-facing endpoints. All collaborators are
// injected so the handlers stay testable with fakes.
type Handler struct {
	Events    *billing.EventProcessor
	Processor billing.Processor
	Changer   PlanChanger
	Catalog   *billing.Catalog
	Store     billing.Store
}

func NewHandler(events *billing.EventProcessor, processor billing.Processor, changer PlanChanger, catalog *billing.Catalog, store billing.Store) *Handler {
	return &Handler{
		Events:    events,
		Processor: processor,
		Changer:   changer,
		Catalog:   catalog,
		Store:     store,
	}
}

// Webhook receives the Stripe event stream. Only a signature failure is a
// client error; every handled or intentionally ignored event is acknowledged
// so Stripe does not retry it, and only unexpected processing failures
// return 500 to trigger a retry.
// @Summary Stripe webhook endpoint
// @Description Receives and applies Stripe billing events
// @Tags stripe
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool "received: true"
// @Failure 400 {object} map[string]string "error: signature verification failed"
// @Router /stripe/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to read request body"})
		return
	}

	event, err := h.Processor.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.LogError(err, "stripe webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook signature verification failed"})
		return
	}

	if err := h.Events.Handle(c.Request.Context(), event); err != nil {
		utils.LogError(err, "webhook processing failed for event "+string(event.Type))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
