package share

import (
	domain "secure-share-api/internal/domain/share"
)

func fromDBModel(model *Share) *domain.Share {
	return &domain.Share{
		UUID:        model.UUID,
		FileID:      model.FileID,
		SenderID:    model.SenderID,
		RecipientID: model.RecipientID,
		AccessCount: model.AccessCount,
		IsAccessed:  model.IsAccessed,

		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}
}

func fromDetailedModel(model *Detailed) *domain.Share {
	s := fromDBModel(&model.Share)
	s.File = &domain.FileRef{
		UUID:         model.FileID,
		OriginalName: model.FileName,
		SizeBytes:    model.FileSizeBytes,
		MimeType:     model.FileMimeType,
	}
	s.Sender = &domain.Party{UUID: model.SenderID, Email: model.SenderEmail, Name: model.SenderName}
	s.Recipient = &domain.Party{UUID: model.RecipientID, Email: model.RecipientEmail, Name: model.RecipientName}

	return s
}
