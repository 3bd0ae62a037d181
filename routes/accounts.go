package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/paramvora-myacara/oz-homepage-sub003/handlers/accounts"
)

func AccountRoutes(r *gin.Engine, h *accounts.Handler) {
	r.POST("/accounts", h.CreateAccount)
	r.POST("/login", h.Login)
}
