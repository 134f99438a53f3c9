package file

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/domain/file"
	"secure-share-api/internal/infrastructure/db/postgres"
)

const constraintStorageName = "files_storage_name_key"

var ErrStorageNameExists = errs.Validation("storage_name", "already exists")

// Repository compares expires_at against its own clock, the same one the
// services use to stamp created_at and expires_at.
type Repository struct {
	db  postgres.DB
	now func() time.Time
}

func NewRepository(db postgres.DB) file.Repository {
	return &Repository{db: db, now: time.Now}
}

func scanFile(row pgx.Row) (*File, error) {
	f := new(File)
	err := row.Scan(
		&f.UUID,
		&f.OriginalName,
		&f.StorageName,
		&f.SizeBytes,
		&f.MimeType,
		&f.WrappedKey,
		&f.OwnerID,
		&f.StoragePath,

		&f.CreatedAt,
		&f.ExpiresAt,
	)
	return f, err
}

func (r *Repository) FetchFileByID(ctx context.Context, id file.UUID) (*file.File, error) {
	f, err := scanFile(r.db.QueryRow(ctx, SelectFileByID, id, r.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) FetchOwnerFiles(ctx context.Context, ownerID uuid.UUID) (file.Files, error) {
	rows, err := r.db.Query(ctx, SelectOwnerFiles, ownerID, r.now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fs Files
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(fs), nil
}

func (r *Repository) CreateFile(ctx context.Context, req *file.File) (*file.File, error) {
	f, err := scanFile(r.db.QueryRow(
		ctx,
		InsertFile,
		req.OriginalName, req.StorageName, req.SizeBytes, req.MimeType, req.WrappedKey,
		req.OwnerID, req.StoragePath, req.CreatedAt, req.ExpiresAt,
	))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, postgres.UniqueViolation(err, map[string]error{
				constraintStorageName: ErrStorageNameExists,
			})
		}
		if postgres.IsPgForeignKeyViolation(err) {
			return nil, errs.Validation("owner_id", "unknown user")
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) DeleteFile(ctx context.Context, id file.UUID) (*file.File, error) {
	f, err := scanFile(r.db.QueryRow(ctx, DeleteFileByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

// DeleteExpired is safe to run from several instances at once: each row is
// returned to exactly one caller.
func (r *Repository) DeleteExpired(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, DeleteExpiredFiles, r.now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}

	return paths, rows.Err()
}
