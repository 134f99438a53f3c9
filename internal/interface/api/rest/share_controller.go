package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/infrastructure/jwt"
	"secure-share-api/internal/interface/api/rest/dto/share"
	"secure-share-api/internal/interface/api/rest/middleware"
	"secure-share-api/internal/interface/api/rest/validator"
)

type ShareController struct {
	logger       *zap.Logger
	shareService ports.ShareService
}

func NewShareController(
	r *gin.Engine,
	logger *zap.Logger,
	shareService ports.ShareService,
	jwtService *jwt.Service,
) *ShareController {
	sc := &ShareController{
		logger:       logger,
		shareService: shareService,
	}

	auth := middleware.AuthMiddleware(jwtService)
	r.POST(RouteShares, auth, sc.CreateHandler)
	r.GET(RouteSharesSent, auth, sc.SentHandler)
	r.GET(RouteSharesReceived, auth, sc.ReceivedHandler)
	r.DELETE(RouteShare, auth, sc.RevokeHandler)

	return sc
}

func (sc *ShareController) CreateHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req share.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	fileID, errs := validator.ValidateShare(req)
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	s, err := sc.shareService.Create(c.Request.Context(), fileID, callerID, req.RecipientEmail)
	if err != nil {
		writeError(c, sc.logger, "CreateShare", err)
		return
	}

	c.JSON(http.StatusCreated, share.ToResponseShare(*s))
}

func (sc *ShareController) SentHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shares, err := sc.shareService.ListSent(c.Request.Context(), callerID)
	if err != nil {
		writeError(c, sc.logger, "ListSent", err)
		return
	}

	c.JSON(http.StatusOK, share.ResponseData{Data: share.ToResponseShares(shares)})
}

func (sc *ShareController) ReceivedHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shares, err := sc.shareService.ListReceived(c.Request.Context(), callerID)
	if err != nil {
		writeError(c, sc.logger, "ListReceived", err)
		return
	}

	c.JSON(http.StatusOK, share.ResponseData{Data: share.ToResponseShares(shares)})
}

func (sc *ShareController) RevokeHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ok, shareID := validator.IsUUID(c.Param("share_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "share_id must be a valid UUID"},
		)
		return
	}

	if err := sc.shareService.Revoke(c.Request.Context(), shareID, callerID); err != nil {
		writeError(c, sc.logger, "Revoke", err)
		return
	}

	c.Status(http.StatusNoContent)
}
