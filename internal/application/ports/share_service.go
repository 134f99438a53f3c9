package ports

import (
	"context"

	"github.com/google/uuid"

	"secure-share-api/internal/domain/share"
)

type ShareService interface {
	Create(ctx context.Context, fileID, ownerID uuid.UUID, recipientEmail string) (*share.Share, error)
	ListSent(ctx context.Context, senderID uuid.UUID) (share.Shares, error)
	ListReceived(ctx context.Context, recipientID uuid.UUID) (share.Shares, error)
	Revoke(ctx context.Context, shareID, callerID uuid.UUID) error
}
