package accounts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/paramvora-myacara/oz-homepage-sub003/billing"
	"github.com/paramvora-myacara/oz-homepage-sub003/utils"
)

type Handler struct {
	Linker *billing.Linker
	Store  billing.Store
}

func NewHandler(linker *billing.Linker, store billing.Store) *Handler {
	return &Handler{Linker: linker, Store: store}
}

type createAccountRequest struct {
	SessionID string `json:"sessionId"`
	PlanName  string `json:"planName"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

// CreateAccount creates the local account for a paid checkout session or a
// zero-cost plan and links the subscription record to it.
// @Summary Create an account after checkout
// @Description Create an account for a completed checkout session (paid plans) or a plan name (zero-cost plans)
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body createAccountRequest true "Session id or plan name, email and password"
// @Success 201 {object} map[string]interface{} "userId, email, token"
// @Failure 400 {object} map[string]string "error: payment not completed"
// @Failure 409 {object} map[string]string "error: already exists, redirectTo: /login"
// @Failure 404 {object} map[string]string "error: plan not found"
// @Failure 500 {object} map[string]string "error: linking or persistence failure"
// @Router /accounts [post]
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.SessionID == "" && req.PlanName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either sessionId or planName is required"})
		return
	}

	user, err := h.Linker.CreateAccount(c.Request.Context(), billing.SignupRequest{
		SessionID: req.SessionID,
		PlanName:  req.PlanName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.respondSignupError(c, err)
		return
	}

	token, err := utils.GenerateJWT(*user, 72)
	if err != nil {
		// The account exists and is linked; the user can still log in.
		utils.LogError(err, "token generation failed after signup for "+user.Email)
		token = ""
	}

	utils.LogSuccessWithUser(user.ID, "account created for "+user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"userId":  user.ID,
		"email":   user.Email,
		"token":   token,
		"message": "Account created successfully",
	})
}

func (h *Handler) respondSignupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrPaymentIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment not completed"})
	case errors.Is(err, billing.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "An account already exists for this email or payment",
			"redirectTo": "/login",
		})
	case errors.Is(err, billing.ErrPlanNotConfigured):
		utils.LogError(err, "account creation hit a catalog gap")
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
	case errors.Is(err, billing.ErrLinkingFailed):
		utils.LogError(err, "account creation could not link a subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No matching subscription for this payment"})
	default:
		utils.LogError(err, "account creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an account and issues the JWT used by the
// authenticated subscription endpoints.
// @Summary Log in
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body loginRequest true "Email and password"
// @Success 200 {object} map[string]string "token"
// @Failure 401 {object} map[string]string "error: invalid credentials"
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.Store.UserByEmail(req.Email)
	if err != nil {
		utils.LogError(err, "login lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error during login"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := utils.GenerateJWT(*user, 72)
	if err != nil {
		utils.LogErrorWithUser(user.ID, err, "token generation failed at login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error during login"})
		return
	}

	utils.LogSuccessWithUser(user.ID, "login successful")
	c.JSON(http.StatusOK, gin.H{"token": token, "userId": user.ID, "email": user.Email})
}
