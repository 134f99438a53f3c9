package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/domain/file"
	"secure-share-api/internal/domain/share"
	"secure-share-api/internal/infrastructure/keys"
	"secure-share-api/internal/infrastructure/mq"
)

type AccessGate struct {
	fileRepository  file.Repository
	shareRepository share.Repository
	keys            ports.KeyManager
	cipher          ports.CipherStore
	qr              ports.QREncoder
	publicURL       string
	mq              ports.EventPublisher
	mCounter        *prometheus.CounterVec
	logger          *zap.Logger
}

func NewAccessGate(
	fileRepository file.Repository,
	shareRepository share.Repository,
	keys ports.KeyManager,
	cipher ports.CipherStore,
	qr ports.QREncoder,
	publicURL string,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
) ports.AccessGate {
	return &AccessGate{
		fileRepository:  fileRepository,
		shareRepository: shareRepository,
		keys:            keys,
		cipher:          cipher,
		qr:              qr,
		publicURL:       publicURL,
		mq:              mq,
		mCounter:        mCounter,
		logger:          logger,
	}
}

// Authorize admits the owner, or the recipient of an unexpired share. It has no
// side effects.
func (ag *AccessGate) Authorize(ctx context.Context, fileID, callerID uuid.UUID) (*ports.Grant, error) {
	f, err := ag.fileRepository.FetchFileByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errs.ErrNotFound
	}
	if f.IsOwnedBy(callerID) {
		return &ports.Grant{File: f}, nil
	}

	s, err := ag.shareRepository.FetchShareForRecipient(ctx, fileID, callerID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errs.ErrForbidden
	}

	return &ports.Grant{File: f, Share: s, ViaShare: true}, nil
}

// Download returns the plaintext when presentedKey matches the file key. Access is
// counted only after decryption succeeded, and only for recipients.
func (ag *AccessGate) Download(ctx context.Context, fileID, callerID uuid.UUID, presentedKey string) (*ports.Download, error) {
	g, err := ag.Authorize(ctx, fileID, callerID)
	if err != nil {
		return nil, err
	}

	presented, err := keys.ParseKey(presentedKey)
	if err != nil {
		return nil, err
	}

	custody, err := ag.keys.Unwrap(g.File.WrappedKey)
	if err != nil {
		ag.logger.Error("wrapped key unrecoverable", zap.String("file_id", fileID.String()), zap.Error(err))
		return nil, err
	}
	if !presented.Equal(custody) {
		ag.mCounter.WithLabelValues("download_key_mismatch_total").Inc()
		return nil, errs.ErrKeyMismatch
	}

	content, err := ag.cipher.LoadAndDecrypt(ctx, g.File.StoragePath, presented)
	if err != nil {
		return nil, err
	}

	if g.ViaShare {
		s, err := ag.shareRepository.IncrementAccess(ctx, g.Share.UUID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			// expired or revoked while decrypting
			return nil, fmt.Errorf("share: %w", errs.ErrNotFound)
		}

		e := mq.NewEvent(mq.ActionShareAccessed, callerID.String())
		e.FileID = fileID.String()
		e.ShareID = s.UUID.String()
		e.Payload = map[string]any{"access_count": s.AccessCount}
		publish(ag.mq, e)

		ag.mCounter.WithLabelValues("share_accessed_total").Inc()
	}

	ag.mCounter.WithLabelValues("file_downloaded_total").Inc()

	return &ports.Download{
		Name:     g.File.OriginalName,
		MimeType: g.File.MimeType,
		Size:     int64(len(content)),
		Content:  content,
	}, nil
}

// RevealKey hands the plaintext key to an authorized caller for out-of-band use.
func (ag *AccessGate) RevealKey(ctx context.Context, fileID, callerID uuid.UUID) (keys.Key, error) {
	g, err := ag.Authorize(ctx, fileID, callerID)
	if err != nil {
		return keys.Key{}, err
	}

	k, err := ag.keys.Unwrap(g.File.WrappedKey)
	if err != nil {
		ag.logger.Error("wrapped key unrecoverable", zap.String("file_id", fileID.String()), zap.Error(err))
		return keys.Key{}, err
	}

	return k, nil
}

// QRCode encodes the file link. The key is never part of it.
func (ag *AccessGate) QRCode(ctx context.Context, fileID, callerID uuid.UUID) ([]byte, error) {
	if _, err := ag.Authorize(ctx, fileID, callerID); err != nil {
		return nil, err
	}

	return ag.qr.Encode(FileLink(ag.publicURL, fileID))
}

func FileLink(publicURL string, fileID uuid.UUID) string {
	return publicURL + "/file/" + fileID.String()
}
