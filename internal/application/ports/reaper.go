package ports

import "context"

type ReapResult struct {
	SharesPurged int64
	FilesPurged  int
	BlobsDeleted int
	BlobErrors   int
}

type Reaper interface {
	RunOnce(ctx context.Context) (ReapResult, error)
	Worker(ctx context.Context)
}
