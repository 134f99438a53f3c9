package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		UUID         uuid.UUID
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
