package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/paramvora-myacara/oz-homepage-sub003/billing"
	"github.com/paramvora-myacara/oz-homepage-sub003/db"
	"github.com/paramvora-myacara/oz-homepage-sub003/handlers/accounts"
	stripehandlers "github.com/paramvora-myacara/oz-homepage-sub003/handlers/stripe"
	"github.com/paramvora-myacara/oz-homepage-sub003/routes"
	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

// @title OZ Listings Billing API
// @version 1.0
// @description Billing state synchronization between local accounts and Stripe
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	gin.SetMode(gin.ReleaseMode)

	if err := godotenv.Load(); err != nil {
		utils.LogInfo("no .env file found, relying on process environment")
	}

	gormDB, err := db.Init()
	if err != nil {
		utils.LogError(err, "database initialization failed")
		os.Exit(1)
	}

	store := billing.NewStore(gormDB)
	processor := billing.NewStripeProcessor(
		os.Getenv("STRIPE_SECRET_KEY"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
	)
	catalog := billing.NewCatalog(store)

	linker := billing.NewLinker(store, processor, catalog, utils.SignupNotifier())
	changer := billing.NewChanger(store, processor, catalog)
	events := billing.NewEventProcessor(store, processor, catalog)

	r := routes.SetupRouter(routes.Dependencies{
		Accounts: accounts.NewHandler(linker, store),
		Stripe:   stripehandlers.NewHandler(events, processor, changer, catalog, store),
	})

	if err := r.Run(":8080"); err != nil {
		utils.LogError(err, "server startup failed")
		os.Exit(1)
	}
}
