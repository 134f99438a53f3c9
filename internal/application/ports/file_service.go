package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"secure-share-api/internal/domain/file"
)

type UploadInput struct {
	OriginalName string
	MimeType     string
	Size         int64
	Body         io.Reader
}

// PublicFile is what an unauthenticated caller may learn about a file.
type PublicFile struct {
	UUID         uuid.UUID
	OriginalName string
}

type FileService interface {
	Upload(ctx context.Context, ownerID uuid.UUID, in UploadInput) (*file.File, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) (file.Files, error)
	PublicInfo(ctx context.Context, fileID uuid.UUID) (*PublicFile, error)
	Delete(ctx context.Context, fileID, callerID uuid.UUID) error
}
