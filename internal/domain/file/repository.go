package file

import (
	"context"

	"github.com/google/uuid"
)

// Repository is an expiring store: records whose ExpiresAt has passed are never
// returned, and DeleteExpired purges them physically.
type Repository interface {
	FetchFileByID(ctx context.Context, id UUID) (*File, error)
	FetchOwnerFiles(ctx context.Context, ownerID uuid.UUID) (Files, error)
	CreateFile(ctx context.Context, req *File) (*File, error)
	// DeleteFile removes the record and, through the FK cascade, every share of it.
	DeleteFile(ctx context.Context, id UUID) (*File, error)
	// DeleteExpired returns the storage paths of the purged records.
	DeleteExpired(ctx context.Context) ([]string, error)
}
