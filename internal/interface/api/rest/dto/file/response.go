package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	// File never exposes the wrapped key or the storage location.
	File struct {
		UUID         uuid.UUID `json:"id"`
		OriginalName string    `json:"original_name"`
		SizeBytes    int64     `json:"size"`
		MimeType     string    `json:"mime_type"`
		CreatedAt    time.Time `json:"created_at"`
		ExpiresAt    time.Time `json:"expires_at"`
	}
	Files        []File
	ResponseData struct {
		Data Files `json:"data"`
	}
	PublicFile struct {
		UUID         uuid.UUID `json:"id"`
		OriginalName string    `json:"original_name"`
	}
	KeyResponse struct {
		FileID uuid.UUID `json:"file_id"`
		Key    string    `json:"key"`
	}
	QRResponse struct {
		FileID uuid.UUID `json:"file_id"`
		Link   string    `json:"link"`
		// QR is a data URL of the PNG image.
		QR string `json:"qr"`
	}
)
