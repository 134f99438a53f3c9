package share

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/domain/share"
	"secure-share-api/internal/infrastructure/db/postgres"
)

const constraintFileRecipient = "shares_file_recipient_key"

var ErrAlreadyShared = errs.Validation("recipient", "file already shared with this user")

type Repository struct {
	db  postgres.DB
	now func() time.Time
}

func NewRepository(db postgres.DB) share.Repository {
	return &Repository{db: db, now: time.Now}
}

func scanShare(row pgx.Row) (*Share, error) {
	s := new(Share)
	err := row.Scan(
		&s.UUID,
		&s.FileID,
		&s.SenderID,
		&s.RecipientID,
		&s.AccessCount,
		&s.IsAccessed,

		&s.CreatedAt,
		&s.ExpiresAt,
	)
	return s, err
}

func (r *Repository) fetchOne(ctx context.Context, sql string, args ...any) (*share.Share, error) {
	s, err := scanShare(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(s), nil
}

func (r *Repository) FetchShareByID(ctx context.Context, id share.UUID) (*share.Share, error) {
	return r.fetchOne(ctx, SelectShareByID, id, r.now())
}

func (r *Repository) FetchShareForRecipient(ctx context.Context, fileID, recipientID uuid.UUID) (*share.Share, error) {
	return r.fetchOne(ctx, SelectShareForRecipient, fileID, recipientID, r.now())
}

func (r *Repository) FetchSentShares(ctx context.Context, senderID uuid.UUID) (share.Shares, error) {
	return r.fetchDetailed(ctx, SelectSentShares, senderID)
}

func (r *Repository) FetchReceivedShares(ctx context.Context, recipientID uuid.UUID) (share.Shares, error) {
	return r.fetchDetailed(ctx, SelectReceivedShares, recipientID)
}

func (r *Repository) fetchDetailed(ctx context.Context, sql string, userID uuid.UUID) (share.Shares, error) {
	rows, err := r.db.Query(ctx, sql, userID, r.now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ss share.Shares
	for rows.Next() {
		d := new(Detailed)
		if err = rows.Scan(
			&d.UUID,
			&d.FileID,
			&d.SenderID,
			&d.RecipientID,
			&d.AccessCount,
			&d.IsAccessed,
			&d.CreatedAt,
			&d.ExpiresAt,

			&d.FileName,
			&d.FileSizeBytes,
			&d.FileMimeType,
			&d.SenderEmail,
			&d.SenderName,
			&d.RecipientEmail,
			&d.RecipientName,
		); err != nil {
			return nil, err
		}
		ss = append(ss, fromDetailedModel(d))
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ss, nil
}

func (r *Repository) CreateShare(ctx context.Context, req *share.Share) (*share.Share, error) {
	s, err := scanShare(r.db.QueryRow(
		ctx,
		InsertShare,
		req.FileID, req.SenderID, req.RecipientID, req.CreatedAt, req.ExpiresAt,
	))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, postgres.UniqueViolation(err, map[string]error{
				constraintFileRecipient: ErrAlreadyShared,
			})
		}
		if postgres.IsPgForeignKeyViolation(err) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	return fromDBModel(s), nil
}

// IncrementAccess returns nil when the share is gone or expired.
func (r *Repository) IncrementAccess(ctx context.Context, id share.UUID) (*share.Share, error) {
	return r.fetchOne(ctx, IncrementShareAccess, id, r.now())
}

func (r *Repository) DeleteShare(ctx context.Context, id share.UUID) error {
	_, err := r.db.Exec(ctx, DeleteShareByID, id)
	return err
}

func (r *Repository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, DeleteExpiredShares, r.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
