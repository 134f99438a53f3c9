package file

import (
	domain "secure-share-api/internal/domain/file"
)

func fromDBModel(model *File) *domain.File {
	return &domain.File{
		UUID:         model.UUID,
		OriginalName: model.OriginalName,
		StorageName:  model.StorageName,
		SizeBytes:    model.SizeBytes,
		MimeType:     model.MimeType,
		WrappedKey:   model.WrappedKey,
		OwnerID:      model.OwnerID,
		StoragePath:  model.StoragePath,

		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}
}

func fromDBModels(models Files) domain.Files {
	fs := make(domain.Files, len(models))
	for idx, f := range models {
		fs[idx] = fromDBModel(f)
	}

	return fs
}
