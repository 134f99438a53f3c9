package rest

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/application/services"
	"secure-share-api/internal/infrastructure/jwt"
	"secure-share-api/internal/interface/api/rest/dto/file"
	"secure-share-api/internal/interface/api/rest/middleware"
	"secure-share-api/internal/interface/api/rest/validator"
)

const (
	HeaderFileKey = "X-File-Key"
	// multipart framing on top of the file itself
	multipartOverhead = int64(1 << 20)
)

type FileController struct {
	logger      *zap.Logger
	fileService ports.FileService
	accessGate  ports.AccessGate
	publicURL   string
	maxUpload   int64
}

func NewFileController(
	r *gin.Engine,
	logger *zap.Logger,
	fileService ports.FileService,
	accessGate ports.AccessGate,
	jwtService *jwt.Service,
	publicURL string,
	maxUpload int64,
) *FileController {
	fc := &FileController{
		logger:      logger,
		fileService: fileService,
		accessGate:  accessGate,
		publicURL:   publicURL,
		maxUpload:   maxUpload,
	}

	auth := middleware.AuthMiddleware(jwtService)
	r.POST(RouteFiles, auth, fc.UploadHandler)
	r.GET(RouteFiles, auth, fc.ListHandler)
	r.GET(RouteFile, fc.PublicInfoHandler)
	r.DELETE(RouteFile, auth, fc.DeleteHandler)
	r.GET(RouteFileDownload, auth, fc.DownloadHandler)
	r.GET(RouteFileKey, auth, fc.KeyHandler)
	r.GET(RouteFileQR, auth, fc.QRHandler)

	return fc
}

func (fc *FileController) UploadHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if fc.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, fc.maxUpload+multipartOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": gin.H{"file": "file is required"},
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, fc.logger, "FormFile.Open", err)
		return
	}
	defer f.Close()

	created, err := fc.fileService.Upload(c.Request.Context(), callerID, ports.UploadInput{
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         f,
	})
	if err != nil {
		writeError(c, fc.logger, "Upload", err)
		return
	}

	c.JSON(http.StatusCreated, file.ToResponseFile(*created))
}

func (fc *FileController) ListHandler(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	files, err := fc.fileService.ListOwned(c.Request.Context(), callerID)
	if err != nil {
		writeError(c, fc.logger, "ListOwned", err)
		return
	}

	c.JSON(http.StatusOK, file.ResponseData{
		Data: file.ToResponseFiles(files),
	})
}

func (fc *FileController) PublicInfoHandler(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}

	info, err := fc.fileService.PublicInfo(c.Request.Context(), fileID)
	if err != nil {
		writeError(c, fc.logger, "PublicInfo", err)
		return
	}

	c.JSON(http.StatusOK, file.ToPublicFile(*info))
}

func (fc *FileController) DeleteHandler(c *gin.Context) {
	callerID, fileID, ok := callerAndFile(c)
	if !ok {
		return
	}

	if err := fc.fileService.Delete(c.Request.Context(), fileID, callerID); err != nil {
		writeError(c, fc.logger, "Delete", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (fc *FileController) DownloadHandler(c *gin.Context) {
	callerID, fileID, ok := callerAndFile(c)
	if !ok {
		return
	}

	key := c.Query("key")
	if key == "" {
		key = c.GetHeader(HeaderFileKey)
	}
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": gin.H{"key": "decryption key is required"},
		})
		return
	}

	d, err := fc.accessGate.Download(c.Request.Context(), fileID, callerID, key)
	if err != nil {
		writeError(c, fc.logger, "Download", err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Name}))
	c.Header("Content-Length", strconv.FormatInt(d.Size, 10))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, d.MimeType, d.Content)
}

func (fc *FileController) KeyHandler(c *gin.Context) {
	callerID, fileID, ok := callerAndFile(c)
	if !ok {
		return
	}

	k, err := fc.accessGate.RevealKey(c.Request.Context(), fileID, callerID)
	if err != nil {
		writeError(c, fc.logger, "RevealKey", err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, file.KeyResponse{FileID: fileID, Key: k.String()})
}

func (fc *FileController) QRHandler(c *gin.Context) {
	callerID, fileID, ok := callerAndFile(c)
	if !ok {
		return
	}

	png, err := fc.accessGate.QRCode(c.Request.Context(), fileID, callerID)
	if err != nil {
		writeError(c, fc.logger, "QRCode", err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, file.QRResponse{
			FileID: fileID,
			Link:   services.FileLink(fc.publicURL, fileID),
			QR:     file.PNGDataURL(png),
		})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func fileIDParam(c *gin.Context) (uuid.UUID, bool) {
	ok, id := validator.IsUUID(c.Param("file_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "file_id must be a valid UUID"},
		)
		return uuid.Nil, false
	}
	return id, true
}

func callerAndFile(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	fileID, ok := fileIDParam(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return callerID, fileID, true
}
