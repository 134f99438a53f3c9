package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/infrastructure/mq"
)

func TestReaper_RunOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.register(t, "alice")
	e.register(t, "bob")

	old, err := e.files.Upload(ctx, a.UUID, ports.UploadInput{OriginalName: "old.txt", Size: 3, Body: strings.NewReader("old")})
	require.NoError(t, err)
	_, err = e.shares.Create(ctx, old.UUID, a.UUID, "bob@example.com")
	require.NoError(t, err)

	e.db.advance(12 * time.Hour)
	fresh, err := e.files.Upload(ctx, a.UUID, ports.UploadInput{OriginalName: "new.txt", Size: 3, Body: strings.NewReader("new")})
	require.NoError(t, err)

	res, err := e.reaper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.ReapResult{}, res, "nothing expired yet")

	e.db.advance(12 * time.Hour)
	res, err = e.reaper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.ReapResult{SharesPurged: 1, FilesPurged: 1, BlobsDeleted: 1}, res)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.reaper.purged.WithLabelValues("blobs")))

	owned, err := e.files.ListOwned(ctx, a.UUID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, fresh.UUID, owned[0].UUID)

	res, err = e.reaper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.FilesPurged, "second sweep is a no-op")

	assert.Contains(t, e.pub.Actions(), mq.ActionFilesExpired)
}

func TestReaper_BlobErrorsDoNotStopTheSweep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.register(t, "alice")

	for _, name := range []string{"1.txt", "2.txt"} {
		_, err := e.files.Upload(ctx, a.UUID, ports.UploadInput{OriginalName: name, Size: 1, Body: strings.NewReader("x")})
		require.NoError(t, err)
	}
	e.db.advance(25 * time.Hour)

	calls := 0
	e.reaper.cipher = &FakeCipherStore{DeleteFn: func(context.Context, string) error {
		calls++
		if calls == 1 {
			return errors.New("disk gone")
		}
		return nil
	}}

	res, err := e.reaper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesPurged)
	assert.Equal(t, 1, res.BlobsDeleted)
	assert.Equal(t, 1, res.BlobErrors)
}

func TestReaper_WorkerStopsWithContext(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		e.reaper.Worker(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
