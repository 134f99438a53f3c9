package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/domain/file"
	domain "secure-share-api/internal/domain/share"
	"secure-share-api/internal/domain/user"
	"secure-share-api/internal/infrastructure/mq"
)

type ShareService struct {
	shareRepository domain.Repository
	fileRepository  file.Repository
	userRepository  user.Repository
	mq              ports.EventPublisher
	mCounter        *prometheus.CounterVec
	now             func() time.Time
}

func NewShareService(
	shareRepository domain.Repository,
	fileRepository file.Repository,
	userRepository user.Repository,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.ShareService {
	return &ShareService{
		shareRepository: shareRepository,
		fileRepository:  fileRepository,
		userRepository:  userRepository,
		mq:              mq,
		mCounter:        mCounter,
		now:             time.Now,
	}
}

// Create grants recipientEmail access to one of the caller's files until the
// file itself expires. A file the caller does not own is reported as not found.
func (ss *ShareService) Create(ctx context.Context, fileID, ownerID uuid.UUID, recipientEmail string) (*domain.Share, error) {
	email := NormalizeEmail(recipientEmail)
	if email == "" {
		return nil, errs.Validation("recipient_email", "is required")
	}

	f, err := ss.fileRepository.FetchFileByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil || !f.IsOwnedBy(ownerID) {
		return nil, fmt.Errorf("file: %w", errs.ErrNotFound)
	}

	recipient, err := ss.userRepository.FetchUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, fmt.Errorf("recipient: %w", errs.ErrNotFound)
	}
	if recipient.UUID == ownerID {
		return nil, errs.Validation("recipient_email", "cannot share a file with yourself")
	}

	s, err := ss.shareRepository.CreateShare(ctx, &domain.Share{
		FileID:      f.UUID,
		SenderID:    ownerID,
		RecipientID: recipient.UUID,
		CreatedAt:   ss.now().UTC(),
		ExpiresAt:   f.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.File = &domain.FileRef{UUID: f.UUID, OriginalName: f.OriginalName, SizeBytes: f.SizeBytes, MimeType: f.MimeType}
	s.Recipient = &domain.Party{UUID: recipient.UUID, Email: recipient.Email, Name: recipient.Name}
	s.Sender = &domain.Party{UUID: ownerID}
	if sender, err := ss.userRepository.FetchUserByID(ctx, ownerID); err == nil && sender != nil {
		s.Sender.Email, s.Sender.Name = sender.Email, sender.Name
	}

	e := mq.NewEvent(mq.ActionShareCreated, ownerID.String())
	e.FileID = f.UUID.String()
	e.ShareID = s.UUID.String()
	e.Payload = map[string]any{"recipient_id": recipient.UUID.String()}
	publish(ss.mq, e)

	ss.mCounter.WithLabelValues("share_created_total").Inc()

	return s, nil
}

func (ss *ShareService) ListSent(ctx context.Context, senderID uuid.UUID) (domain.Shares, error) {
	return ss.shareRepository.FetchSentShares(ctx, senderID)
}

func (ss *ShareService) ListReceived(ctx context.Context, recipientID uuid.UUID) (domain.Shares, error) {
	return ss.shareRepository.FetchReceivedShares(ctx, recipientID)
}

// Revoke deletes one grant. The file and any other grants are untouched.
func (ss *ShareService) Revoke(ctx context.Context, shareID, callerID uuid.UUID) error {
	s, err := ss.shareRepository.FetchShareByID(ctx, shareID)
	if err != nil {
		return err
	}
	if s == nil {
		return errs.ErrNotFound
	}
	if s.SenderID != callerID {
		return errs.ErrForbidden
	}

	if err = ss.shareRepository.DeleteShare(ctx, shareID); err != nil {
		return err
	}

	e := mq.NewEvent(mq.ActionShareRevoked, callerID.String())
	e.FileID = s.FileID.String()
	e.ShareID = shareID.String()
	publish(ss.mq, e)

	ss.mCounter.WithLabelValues("share_revoked_total").Inc()

	return nil
}
