package routes

import (
	"github.com/gin-gonic/gin"

	stripehandlers "github.com/paramvora-myacara/oz-homepage-sub003/handlers/stripe"
	"github.com/paramvora-myacara/oz-homepage-sub003/middleware"
)

func StripeRoutes(r *gin.Engine, h *stripehandlers.Handler) {
	r.POST("/stripe/webhook", h.Webhook)
	r.POST("/stripe/checkout-session", h.CreateCheckoutSession)
	r.POST("/stripe/verify-session", h.VerifySession)

	subscriptionRoutes := r.Group("/subscriptions")
	{
		subscriptionRoutes.POST("/status", h.CheckStatus)
		subscriptionRoutes.POST("/change", middleware.JWTAuth(), h.ChangeSubscription)
		subscriptionRoutes.GET("/current", middleware.JWTAuth(), h.CurrentSubscription)
	}
}
