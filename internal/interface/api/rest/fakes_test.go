package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/file"
	"secure-share-api/internal/domain/share"
	"secure-share-api/internal/domain/user"
	"secure-share-api/internal/infrastructure/jwt"
	"secure-share-api/internal/infrastructure/keys"
)

var errNotUsed = errors.New("not used")

type FakeUserService struct {
	RegisterFunc       func(ctx context.Context, name, email, password string) (*user.User, error)
	FindUsersFunc      func(ctx context.Context, page int) (user.Users, error)
	FindUserByIDFunc   func(ctx context.Context, id user.UUID) (*user.User, error)
	FindByEmailFunc    func(ctx context.Context, email string) (*user.User, error)
	UpdateProfileFunc  func(ctx context.Context, id user.UUID, name string) (*user.User, error)
	ChangePasswordFunc func(ctx context.Context, id user.UUID, current, next string) error
}

func (f *FakeUserService) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	if f.RegisterFunc == nil {
		return nil, errNotUsed
	}
	return f.RegisterFunc(ctx, name, email, password)
}
func (f *FakeUserService) FindUsers(ctx context.Context, page int) (user.Users, error) {
	if f.FindUsersFunc == nil {
		return nil, errNotUsed
	}
	return f.FindUsersFunc(ctx, page)
}
func (f *FakeUserService) FindUserByID(ctx context.Context, id user.UUID) (*user.User, error) {
	if f.FindUserByIDFunc == nil {
		return nil, errNotUsed
	}
	return f.FindUserByIDFunc(ctx, id)
}
func (f *FakeUserService) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.FindByEmailFunc == nil {
		return nil, errNotUsed
	}
	return f.FindByEmailFunc(ctx, email)
}

func (f *FakeUserService) UpdateProfile(ctx context.Context, id user.UUID, name string) (*user.User, error) {
	if f.UpdateProfileFunc == nil {
		return nil, errNotUsed
	}
	return f.UpdateProfileFunc(ctx, id, name)
}
func (f *FakeUserService) ChangePassword(ctx context.Context, id user.UUID, current, next string) error {
	if f.ChangePasswordFunc == nil {
		return errNotUsed
	}
	return f.ChangePasswordFunc(ctx, id, current, next)
}

type fakeAuthService struct {
	GenerateTokenFunc func(u *user.User, password string) (string, error)
}

func (f *fakeAuthService) GenerateToken(u *user.User, password string) (string, error) {
	if f.GenerateTokenFunc == nil {
		return "", errNotUsed
	}
	return f.GenerateTokenFunc(u, password)
}

type FakeFileService struct {
	UploadFunc     func(ctx context.Context, ownerID uuid.UUID, in ports.UploadInput) (*file.File, error)
	ListOwnedFunc  func(ctx context.Context, ownerID uuid.UUID) (file.Files, error)
	PublicInfoFunc func(ctx context.Context, fileID uuid.UUID) (*ports.PublicFile, error)
	DeleteFunc     func(ctx context.Context, fileID, callerID uuid.UUID) error
}

func (f *FakeFileService) Upload(ctx context.Context, ownerID uuid.UUID, in ports.UploadInput) (*file.File, error) {
	if f.UploadFunc == nil {
		return nil, errNotUsed
	}
	return f.UploadFunc(ctx, ownerID, in)
}
func (f *FakeFileService) ListOwned(ctx context.Context, ownerID uuid.UUID) (file.Files, error) {
	if f.ListOwnedFunc == nil {
		return nil, errNotUsed
	}
	return f.ListOwnedFunc(ctx, ownerID)
}
func (f *FakeFileService) PublicInfo(ctx context.Context, fileID uuid.UUID) (*ports.PublicFile, error) {
	if f.PublicInfoFunc == nil {
		return nil, errNotUsed
	}
	return f.PublicInfoFunc(ctx, fileID)
}
func (f *FakeFileService) Delete(ctx context.Context, fileID, callerID uuid.UUID) error {
	if f.DeleteFunc == nil {
		return errNotUsed
	}
	return f.DeleteFunc(ctx, fileID, callerID)
}

type FakeAccessGate struct {
	AuthorizeFunc func(ctx context.Context, fileID, callerID uuid.UUID) (*ports.Grant, error)
	DownloadFunc  func(ctx context.Context, fileID, callerID uuid.UUID, key string) (*ports.Download, error)
	RevealKeyFunc func(ctx context.Context, fileID, callerID uuid.UUID) (keys.Key, error)
	QRCodeFunc    func(ctx context.Context, fileID, callerID uuid.UUID) ([]byte, error)
}

func (f *FakeAccessGate) Authorize(ctx context.Context, fileID, callerID uuid.UUID) (*ports.Grant, error) {
	if f.AuthorizeFunc == nil {
		return nil, errNotUsed
	}
	return f.AuthorizeFunc(ctx, fileID, callerID)
}
func (f *FakeAccessGate) Download(ctx context.Context, fileID, callerID uuid.UUID, key string) (*ports.Download, error) {
	if f.DownloadFunc == nil {
		return nil, errNotUsed
	}
	return f.DownloadFunc(ctx, fileID, callerID, key)
}
func (f *FakeAccessGate) RevealKey(ctx context.Context, fileID, callerID uuid.UUID) (keys.Key, error) {
	if f.RevealKeyFunc == nil {
		return keys.Key{}, errNotUsed
	}
	return f.RevealKeyFunc(ctx, fileID, callerID)
}
func (f *FakeAccessGate) QRCode(ctx context.Context, fileID, callerID uuid.UUID) ([]byte, error) {
	if f.QRCodeFunc == nil {
		return nil, errNotUsed
	}
	return f.QRCodeFunc(ctx, fileID, callerID)
}

type FakeShareService struct {
	CreateFunc       func(ctx context.Context, fileID, ownerID uuid.UUID, recipientEmail string) (*share.Share, error)
	ListSentFunc     func(ctx context.Context, senderID uuid.UUID) (share.Shares, error)
	ListReceivedFunc func(ctx context.Context, recipientID uuid.UUID) (share.Shares, error)
	RevokeFunc       func(ctx context.Context, shareID, callerID uuid.UUID) error
}

func (f *FakeShareService) Create(ctx context.Context, fileID, ownerID uuid.UUID, recipientEmail string) (*share.Share, error) {
	if f.CreateFunc == nil {
		return nil, errNotUsed
	}
	return f.CreateFunc(ctx, fileID, ownerID, recipientEmail)
}
func (f *FakeShareService) ListSent(ctx context.Context, senderID uuid.UUID) (share.Shares, error) {
	if f.ListSentFunc == nil {
		return nil, errNotUsed
	}
	return f.ListSentFunc(ctx, senderID)
}
func (f *FakeShareService) ListReceived(ctx context.Context, recipientID uuid.UUID) (share.Shares, error) {
	if f.ListReceivedFunc == nil {
		return nil, errNotUsed
	}
	return f.ListReceivedFunc(ctx, recipientID)
}
func (f *FakeShareService) Revoke(ctx context.Context, shareID, callerID uuid.UUID) error {
	if f.RevokeFunc == nil {
		return errNotUsed
	}
	return f.RevokeFunc(ctx, shareID, callerID)
}

const testSecret = "test-secret"

func newTestRouter(t *testing.T) (*gin.Engine, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return gin.New(), jwt.New(testSecret, time.Hour)
}

func bearer(t *testing.T, j *jwt.Service, userID uuid.UUID) map[string]string {
	t.Helper()
	return bearerAs(t, j, userID, user.RoleUser)
}

func bearerAs(t *testing.T, j *jwt.Service, userID uuid.UUID, role string) map[string]string {
	t.Helper()
	tok, err := j.GenerateJWT(userID.String(), role, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func doReq(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
		reader = nil
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func doMultipart(t *testing.T, r *gin.Engine, path, fileField, fileName string, content []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file here"))
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, path, &b)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}
