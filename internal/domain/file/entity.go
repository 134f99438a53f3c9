package file

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an upload when the config does not override it.
const DefaultTTL = 24 * time.Hour

type (
	UUID = uuid.UUID
	// File is the metadata of one encrypted blob. WrappedKey and StoragePath never
	// leave the service.
	File struct {
		UUID         UUID
		OriginalName string
		StorageName  string
		SizeBytes    int64
		MimeType     string
		WrappedKey   string
		OwnerID      uuid.UUID
		StoragePath  string

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	Files []*File
)

func (f *File) IsOwnedBy(userID uuid.UUID) bool { return f.OwnerID == userID }

func (f *File) IsExpired(now time.Time) bool { return !now.Before(f.ExpiresAt) }
