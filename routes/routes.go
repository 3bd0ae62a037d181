package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/paramvora-myacara/oz-homepage-sub003/handlers/accounts"
	stripehandlers "github.com/paramvora-myacara/oz-homepage-sub003/handlers/stripe"
)

// Dependencies carries the constructed handlers into the router; nothing is
// reached through package globals.
type Dependencies struct {
	Accounts *accounts.Handler
	Stripe   *stripehandlers.Handler
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	AccountRoutes(r, deps.Accounts)
	StripeRoutes(r, deps.Stripe)

	return r
}
