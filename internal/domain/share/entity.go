package share

import (
	"time"

	"github.com/google/uuid"
)

type (
	UUID = uuid.UUID
	// Party is the minimal public view of a sender or recipient.
	Party struct {
		UUID  uuid.UUID
		Email string
		Name  string
	}
	// FileRef is the minimal public view of the shared file.
	FileRef struct {
		UUID         uuid.UUID
		OriginalName string
		SizeBytes    int64
		MimeType     string
	}
	// Share is a single sender -> recipient grant over one file. Only AccessCount and
	// IsAccessed ever change after creation.
	Share struct {
		UUID        UUID
		FileID      uuid.UUID
		SenderID    uuid.UUID
		RecipientID uuid.UUID
		AccessCount int
		IsAccessed  bool

		CreatedAt time.Time
		ExpiresAt time.Time

		// populated by list/create queries
		File      *FileRef
		Sender    *Party
		Recipient *Party
	}
	Shares []*Share
)

func (s *Share) IsExpired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
