package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/errs"
	domain "secure-share-api/internal/domain/user"
	"secure-share-api/internal/infrastructure/jwt"
	"secure-share-api/internal/interface/api/rest/dto/user"
	"secure-share-api/internal/interface/api/rest/middleware"
	"secure-share-api/internal/interface/api/rest/validator"
)

type UserController struct {
	logger      *zap.Logger
	userService ports.UserService
}

func NewUserController(
	r *gin.Engine,
	logger *zap.Logger,
	userService ports.UserService,
	jwtService *jwt.Service,
) *UserController {
	uc := &UserController{
		logger:      logger,
		userService: userService,
	}

	authed := middleware.AuthMiddleware(jwtService)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	r.GET(RouteUsers, authed, adminOnly, uc.GetUsersHandler)
	r.GET(RouteUser, authed, adminOnly, uc.GetUserHandler)
	r.PUT(RouteUserProfile, authed, uc.UpdateProfileHandler)
	r.PUT(RouteUserPassword, authed, uc.ChangePasswordHandler)

	return uc
}

func (uc *UserController) GetUsersHandler(c *gin.Context) {
	page, err := validator.ValidatePage(c.Query("page"))
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": err.Error()},
		)
		return
	}

	users, err := uc.userService.FindUsers(c.Request.Context(), page)
	if err != nil {
		writeError(c, uc.logger, "FindUsers", err)
		return
	}

	c.JSON(http.StatusOK, user.ResponseData{
		Count: len(users),
		Page:  page,
		Data:  user.ToResponseUsers(users),
	})
}

func (uc *UserController) GetUserHandler(c *gin.Context) {
	ok, uuid := validator.IsUUID(c.Param("user_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "user_id must be a valid UUID"},
		)
		return
	}

	u, err := uc.userService.FindUserByID(c.Request.Context(), uuid)
	if err != nil {
		writeError(c, uc.logger, "FindUserByID", err)
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

func (uc *UserController) UpdateProfileHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req user.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}
	if errs := validator.ValidateProfile(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	u, err := uc.userService.UpdateProfile(c.Request.Context(), callerID, req.Name)
	if err != nil {
		writeError(c, uc.logger, "UpdateProfile", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) ChangePasswordHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req user.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}
	if errs := validator.ValidatePasswordChange(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	err := uc.userService.ChangePassword(c.Request.Context(), callerID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, errs.ErrInvalidCredentials) {
		c.JSON(
			http.StatusUnauthorized,
			gin.H{"error": "current password is incorrect"},
		)
		return
	}
	if err != nil {
		writeError(c, uc.logger, "ChangePassword", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
