package services

import (
	"bufio"
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"secure-share-api/config"
	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/errs"
	domain "secure-share-api/internal/domain/file"
	"secure-share-api/internal/infrastructure/mq"
)

const (
	maxOriginalNameLen = 255
	sniffLen           = 3072
	octetStream        = "application/octet-stream"
)

type FileService struct {
	fileRepository domain.Repository
	keys           ports.KeyManager
	cipher         ports.CipherStore
	policy         config.UploadPolicy
	ttl            time.Duration
	mq             ports.EventPublisher
	mCounter       *prometheus.CounterVec
	logger         *zap.Logger
	now            func() time.Time
}

func NewFileService(
	fileRepository domain.Repository,
	keys ports.KeyManager,
	cipher ports.CipherStore,
	policy config.UploadPolicy,
	ttl time.Duration,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
) ports.FileService {
	if ttl <= 0 {
		ttl = domain.DefaultTTL
	}
	return &FileService{
		fileRepository: fileRepository,
		keys:           keys,
		cipher:         cipher,
		policy:         policy,
		ttl:            ttl,
		mq:             mq,
		mCounter:       mCounter,
		logger:         logger,
		now:            time.Now,
	}
}

// Upload encrypts the body under a fresh key, stores the ciphertext, then persists
// the record holding the wrapped key. The blob is written before the record so a
// record never points at a missing blob; a failed insert removes the blob again.
func (fs *FileService) Upload(ctx context.Context, ownerID uuid.UUID, in ports.UploadInput) (*domain.File, error) {
	name := displayName(in.OriginalName)
	if name == "" {
		return nil, errs.Validation("file", "file name is required")
	}
	if in.Body == nil || in.Size == 0 {
		return nil, errs.Validation("file", "please upload a file")
	}
	if in.Size > fs.policy.MaxFileSize {
		return nil, errs.Validation("file", "file exceeds the maximum size")
	}
	if !fs.policy.Allows(path.Ext(name)) {
		return nil, errs.Validation("file", "file type not allowed")
	}

	body := bufio.NewReaderSize(in.Body, sniffLen)
	mimeType := strings.TrimSpace(in.MimeType)
	if mimeType == "" || mimeType == octetStream {
		head, _ := body.Peek(sniffLen)
		mimeType = mimetype.Detect(head).String()
	}

	key := fs.keys.GenerateFileKey()
	limited := io.LimitReader(body, fs.policy.MaxFileSize+1)
	h, n, err := fs.cipher.EncryptAndStore(ctx, limited, key, name)
	if err != nil {
		return nil, err
	}

	if n == 0 || n > fs.policy.MaxFileSize {
		fs.discardBlob(ctx, h.StoragePath)
		if n == 0 {
			return nil, errs.Validation("file", "please upload a file")
		}
		return nil, errs.Validation("file", "file exceeds the maximum size")
	}

	wrapped, err := fs.keys.Wrap(key)
	if err != nil {
		fs.discardBlob(ctx, h.StoragePath)
		return nil, err
	}

	now := fs.now().UTC()
	f, err := fs.fileRepository.CreateFile(ctx, &domain.File{
		OriginalName: name,
		StorageName:  h.StorageName,
		SizeBytes:    n,
		MimeType:     mimeType,
		WrappedKey:   wrapped,
		OwnerID:      ownerID,
		StoragePath:  h.StoragePath,
		CreatedAt:    now,
		ExpiresAt:    now.Add(fs.ttl),
	})
	if err != nil {
		fs.discardBlob(ctx, h.StoragePath)
		return nil, err
	}

	e := mq.NewEvent(mq.ActionFileUploaded, ownerID.String())
	e.FileID = f.UUID.String()
	e.Payload = map[string]any{"size": f.SizeBytes, "mime_type": f.MimeType}
	publish(fs.mq, e)

	fs.mCounter.WithLabelValues("file_uploaded_total").Inc()

	return f, nil
}

func (fs *FileService) ListOwned(ctx context.Context, ownerID uuid.UUID) (domain.Files, error) {
	return fs.fileRepository.FetchOwnerFiles(ctx, ownerID)
}

func (fs *FileService) PublicInfo(ctx context.Context, fileID uuid.UUID) (*ports.PublicFile, error) {
	f, err := fs.fileRepository.FetchFileByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errs.ErrNotFound
	}

	return &ports.PublicFile{UUID: f.UUID, OriginalName: f.OriginalName}, nil
}

// Delete removes the record first; its shares go with it through the FK cascade.
// The blob is removed afterwards and a failure there only leaves an orphan.
func (fs *FileService) Delete(ctx context.Context, fileID, callerID uuid.UUID) error {
	f, err := fs.fileRepository.FetchFileByID(ctx, fileID)
	if err != nil {
		return err
	}
	if f == nil {
		return errs.ErrNotFound
	}
	if !f.IsOwnedBy(callerID) {
		return errs.ErrForbidden
	}

	deleted, err := fs.fileRepository.DeleteFile(ctx, fileID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return errs.ErrNotFound
	}

	fs.discardBlob(ctx, deleted.StoragePath)

	e := mq.NewEvent(mq.ActionFileDeleted, callerID.String())
	e.FileID = fileID.String()
	publish(fs.mq, e)

	fs.mCounter.WithLabelValues("file_deleted_total").Inc()

	return nil
}

func (fs *FileService) discardBlob(ctx context.Context, storagePath string) {
	// a cancelled request must not leave the blob behind
	ctx = context.WithoutCancel(ctx)
	if err := fs.cipher.Delete(ctx, storagePath); err != nil && !errors.Is(err, errs.ErrNotFound) {
		fs.logger.Error("blob delete failed", zap.String("storage_path", storagePath), zap.Error(err))
		fs.mCounter.WithLabelValues("blob_delete_failed_total").Inc()
	}
}

// displayName keeps the user's file name for display only: the last path segment
// without control characters, capped at 255 runes.
func displayName(original string) string {
	s := strings.TrimSpace(strings.ReplaceAll(original, "\\", "/"))
	if s == "" {
		return ""
	}
	s = path.Base(s)
	if s == "." || s == ".." || s == "/" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)

	for utf8.RuneCountInString(s) > maxOriginalNameLen {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}

	return strings.TrimSpace(s)
}
