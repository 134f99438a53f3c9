package ports

import (
	"context"

	"github.com/google/uuid"

	"secure-share-api/internal/domain/file"
	"secure-share-api/internal/domain/share"
	"secure-share-api/internal/infrastructure/keys"
)

// Grant is the outcome of a successful authorization. Share is nil for the owner.
type Grant struct {
	File     *file.File
	Share    *share.Share
	ViaShare bool
}

type Download struct {
	Name     string
	MimeType string
	Size     int64
	Content  []byte
}

type AccessGate interface {
	Authorize(ctx context.Context, fileID, callerID uuid.UUID) (*Grant, error)
	Download(ctx context.Context, fileID, callerID uuid.UUID, presentedKey string) (*Download, error)
	RevealKey(ctx context.Context, fileID, callerID uuid.UUID) (keys.Key, error)
	QRCode(ctx context.Context, fileID, callerID uuid.UUID) ([]byte, error)
}
