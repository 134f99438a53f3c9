package share

import (
	"time"

	"github.com/google/uuid"
)

type (
	Party struct {
		UUID  uuid.UUID `json:"id"`
		Email string    `json:"email"`
		Name  string    `json:"name"`
	}
	FileRef struct {
		UUID         uuid.UUID `json:"id"`
		OriginalName string    `json:"original_name"`
		SizeBytes    int64     `json:"size,omitempty"`
		MimeType     string    `json:"mime_type,omitempty"`
	}
	Share struct {
		UUID        uuid.UUID `json:"id"`
		File        *FileRef  `json:"file,omitempty"`
		Sender      *Party    `json:"sender,omitempty"`
		Recipient   *Party    `json:"recipient,omitempty"`
		AccessCount int       `json:"access_count"`
		IsAccessed  bool      `json:"is_accessed"`
		CreatedAt   time.Time `json:"created_at"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
	Shares       []Share
	ResponseData struct {
		Data Shares `json:"data"`
	}
)
