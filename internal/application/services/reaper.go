package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/file"
	"secure-share-api/internal/domain/share"
	"secure-share-api/internal/infrastructure/mq"
)

type Reaper struct {
	fileRepository  file.Repository
	shareRepository share.Repository
	cipher          ports.CipherStore
	interval        time.Duration
	mq              ports.EventPublisher
	purged          *prometheus.CounterVec
	logger          *zap.Logger
}

func NewReaper(
	fileRepository file.Repository,
	shareRepository share.Repository,
	cipher ports.CipherStore,
	interval time.Duration,
	mq ports.EventPublisher,
	purged *prometheus.CounterVec,
	logger *zap.Logger,
) ports.Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		fileRepository:  fileRepository,
		shareRepository: shareRepository,
		cipher:          cipher,
		interval:        interval,
		mq:              mq,
		purged:          purged,
		logger:          logger,
	}
}

// RunOnce purges expired shares, then expired files and their blobs. Records are
// already invisible to readers from their expiry instant; this only reclaims space.
func (r *Reaper) RunOnce(ctx context.Context) (ports.ReapResult, error) {
	var res ports.ReapResult

	n, err := r.shareRepository.DeleteExpired(ctx)
	if err != nil {
		return res, err
	}
	res.SharesPurged = n

	paths, err := r.fileRepository.DeleteExpired(ctx)
	if err != nil {
		return res, err
	}
	res.FilesPurged = len(paths)

	for _, p := range paths {
		if err = r.cipher.Delete(ctx, p); err != nil {
			res.BlobErrors++
			r.logger.Error("expired blob delete failed", zap.String("storage_path", p), zap.Error(err))
			continue
		}
		res.BlobsDeleted++
	}

	r.purged.WithLabelValues("shares").Add(float64(res.SharesPurged))
	r.purged.WithLabelValues("files").Add(float64(res.FilesPurged))
	r.purged.WithLabelValues("blobs").Add(float64(res.BlobsDeleted))

	if res.FilesPurged > 0 || res.SharesPurged > 0 {
		e := mq.NewEvent(mq.ActionFilesExpired, "")
		e.Payload = map[string]any{"files": res.FilesPurged, "shares": res.SharesPurged}
		publish(r.mq, e)
	}

	return res, nil
}

func (r *Reaper) Worker(ctx context.Context) {
	r.logger.Info("starting reaper worker", zap.Duration("interval", r.interval))

	defer func() {
		r.logger.Info("reaper worker gracefully stopped")
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.runLogged(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reaper) runLogged(ctx context.Context) {
	res, err := r.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("reaper run failed", zap.Error(err))
		}
		return
	}
	if res.FilesPurged > 0 || res.SharesPurged > 0 || res.BlobErrors > 0 {
		r.logger.Info("expired records purged",
			zap.Int64("shares", res.SharesPurged),
			zap.Int("files", res.FilesPurged),
			zap.Int("blobs", res.BlobsDeleted),
			zap.Int("blob_errors", res.BlobErrors),
		)
	}
}
