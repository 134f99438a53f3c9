package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/infrastructure/jwt"
	"secure-share-api/internal/interface/api/rest/dto/auth"
	"secure-share-api/internal/interface/api/rest/dto/user"
	"secure-share-api/internal/interface/api/rest/middleware"
	"secure-share-api/internal/interface/api/rest/validator"
)

type AuthController struct {
	logger      *zap.Logger
	userService ports.UserService
	authService ports.Auth
}

func NewAuthController(
	r *gin.Engine,
	logger *zap.Logger,
	userService ports.UserService,
	authService ports.Auth,
	jwtService *jwt.Service,
) *AuthController {
	ac := &AuthController{
		logger:      logger,
		userService: userService,
		authService: authService,
	}

	r.POST(RouteRegister, ac.RegisterHandler)
	r.POST(RouteLogin, ac.LoginHandler)
	r.GET(RouteMe, middleware.AuthMiddleware(jwtService), ac.MeHandler)

	return ac
}

func (ac *AuthController) RegisterHandler(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateRegister(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	u, err := ac.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, ac.logger, "Register", err)
		return
	}

	token, err := ac.authService.GenerateToken(u, req.Password)
	if err != nil {
		writeError(c, ac.logger, "GenerateToken", err)
		return
	}

	c.JSON(http.StatusCreated, auth.RegisterResponse{
		User:          user.ToResponseUser(*u),
		TokenResponse: auth.NewTokenResponse(token),
	})
}

func (ac *AuthController) LoginHandler(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateLogin(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	u, err := ac.userService.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, ac.logger, "FindByEmail", err)
		return
	}

	// an unknown email goes through the same password check as a known one
	token, err := ac.authService.GenerateToken(u, req.Password)
	if err != nil {
		writeError(c, ac.logger, "GenerateToken", err)
		return
	}

	c.JSON(http.StatusOK, auth.NewTokenResponse(token))
}

func (ac *AuthController) MeHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	u, err := ac.userService.FindUserByID(c.Request.Context(), callerID)
	if err != nil {
		writeError(c, ac.logger, "FindUserByID", err)
		return
	}
	if u == nil {
		c.JSON(
			http.StatusNotFound,
			gin.H{"error": "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}
