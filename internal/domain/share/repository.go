package share

import (
	"context"

	"github.com/google/uuid"
)

// Repository is an expiring store with the same read semantics as file.Repository.
type Repository interface {
	FetchShareByID(ctx context.Context, id UUID) (*Share, error)
	FetchShareForRecipient(ctx context.Context, fileID, recipientID uuid.UUID) (*Share, error)
	FetchSentShares(ctx context.Context, senderID uuid.UUID) (Shares, error)
	FetchReceivedShares(ctx context.Context, recipientID uuid.UUID) (Shares, error)
	CreateShare(ctx context.Context, req *Share) (*Share, error)
	// IncrementAccess bumps access_count and sets is_accessed in one atomic update.
	IncrementAccess(ctx context.Context, id UUID) (*Share, error)
	DeleteShare(ctx context.Context, id UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}
