package file

import (
	"encoding/base64"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/file"
)

func ToResponseFile(fDomain file.File) File {
	return File{
		UUID:         fDomain.UUID,
		OriginalName: fDomain.OriginalName,
		SizeBytes:    fDomain.SizeBytes,
		MimeType:     fDomain.MimeType,
		CreatedAt:    fDomain.CreatedAt,
		ExpiresAt:    fDomain.ExpiresAt,
	}
}

func ToResponseFiles(fsDomain file.Files) Files {
	fs := make(Files, len(fsDomain))
	for idx, f := range fsDomain {
		fs[idx] = ToResponseFile(*f)
	}

	return fs
}

func ToPublicFile(p ports.PublicFile) PublicFile {
	return PublicFile{UUID: p.UUID, OriginalName: p.OriginalName}
}

func PNGDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
