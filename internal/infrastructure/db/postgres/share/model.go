package share

import (
	"time"

	"github.com/google/uuid"
)

type (
	Share struct {
		UUID        uuid.UUID
		FileID      uuid.UUID
		SenderID    uuid.UUID
		RecipientID uuid.UUID
		AccessCount int
		IsAccessed  bool

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	// Detailed is a share row joined with its file and both parties.
	Detailed struct {
		Share

		FileName       string
		FileSizeBytes  int64
		FileMimeType   string
		SenderEmail    string
		SenderName     string
		RecipientEmail string
		RecipientName  string
	}
)
