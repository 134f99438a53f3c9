package share

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure-share-api/internal/domain/errs"
	domain "secure-share-api/internal/domain/share"
)

var shareColumns = []string{"id", "file_id", "sender_id", "recipient_id", "access_count", "is_accessed", "created_at", "expires_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var clock = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newRepo(mock pgxmock.PgxPoolIface) *Repository {
	return &Repository{db: mock, now: func() time.Time { return clock }}
}

func anyInsertArgs() []any {
	return []any{pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()}
}

func TestRepository_CreateShare(t *testing.T) {
	in := &domain.Share{
		FileID:      uuid.New(),
		SenderID:    uuid.New(),
		RecipientID: uuid.New(),
		CreatedAt:   clock,
		ExpiresAt:   clock.Add(24 * time.Hour),
	}

	t.Run("ok", func(t *testing.T) {
		mock := newMock(t)
		repo := newRepo(mock)
		id := uuid.New()

		mock.ExpectQuery("INSERT INTO shares").
			WithArgs(in.FileID, in.SenderID, in.RecipientID, in.CreatedAt, in.ExpiresAt).
			WillReturnRows(pgxmock.NewRows(shareColumns).
				AddRow(id, in.FileID, in.SenderID, in.RecipientID, 0, false, in.CreatedAt, in.ExpiresAt))

		s, err := repo.CreateShare(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, id, s.UUID)
		assert.Zero(t, s.AccessCount)
		assert.False(t, s.IsAccessed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate grant", func(t *testing.T) {
		mock := newMock(t)
		repo := newRepo(mock)

		mock.ExpectQuery("INSERT INTO shares").
			WithArgs(anyInsertArgs()...).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "shares_file_recipient_key"})

		_, err := repo.CreateShare(context.Background(), in)
		ve, ok := errs.IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "recipient")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other unique constraint", func(t *testing.T) {
		mock := newMock(t)
		repo := newRepo(mock)

		mock.ExpectQuery("INSERT INTO shares").
			WithArgs(anyInsertArgs()...).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "shares_pkey"})

		_, err := repo.CreateShare(context.Background(), in)
		assert.ErrorIs(t, err, errs.ErrConflict)
		assert.ErrorContains(t, err, "shares_pkey")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("file deleted concurrently", func(t *testing.T) {
		mock := newMock(t)
		repo := newRepo(mock)

		mock.ExpectQuery("INSERT INTO shares").
			WithArgs(anyInsertArgs()...).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "shares_file_id_fkey"})

		_, err := repo.CreateShare(context.Background(), in)
		assert.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_IncrementAccess(t *testing.T) {
	mock := newMock(t)
	repo := newRepo(mock)
	id, fileID, sender, recipient := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SET access_count = access_count \+ 1`).
		WithArgs(id, clock).
		WillReturnRows(pgxmock.NewRows(shareColumns).
			AddRow(id, fileID, sender, recipient, 1, true, clock, clock.Add(time.Hour)))
	mock.ExpectQuery(`WHERE id = \$1 AND expires_at > \$2`).
		WithArgs(id, clock).
		WillReturnRows(pgxmock.NewRows(shareColumns))

	s, err := repo.IncrementAccess(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, s.AccessCount)
	assert.True(t, s.IsAccessed)

	s, err = repo.IncrementAccess(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, s, "expired share is not counted")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FetchReceivedShares(t *testing.T) {
	mock := newMock(t)
	repo := newRepo(mock)
	id, fileID, sender, recipient := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	cols := append(append([]string{}, shareColumns...),
		"original_name", "size_bytes", "mime_type", "email", "name", "email", "name")
	mock.ExpectQuery(`WHERE s.recipient_id = \$1 AND s.expires_at > \$2 AND f.expires_at > \$2`).
		WithArgs(recipient, clock).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(id, fileID, sender, recipient, 2, true, clock, clock.Add(time.Hour),
				"hello.txt", int64(9), "text/plain", "a@example.com", "Alice", "b@example.com", "Bob"))

	ss, err := repo.FetchReceivedShares(context.Background(), recipient)
	require.NoError(t, err)
	require.Len(t, ss, 1)
	assert.Equal(t, "hello.txt", ss[0].File.OriginalName)
	assert.Equal(t, fileID, ss[0].File.UUID)
	assert.Equal(t, "Alice", ss[0].Sender.Name)
	assert.Equal(t, "b@example.com", ss[0].Recipient.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteExpired(t *testing.T) {
	mock := newMock(t)
	repo := newRepo(mock)

	mock.ExpectExec(`DELETE FROM shares WHERE expires_at <= \$1`).
		WithArgs(clock).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
