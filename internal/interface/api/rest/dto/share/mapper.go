package share

import (
	"secure-share-api/internal/domain/share"
)

func ToResponseShare(sDomain share.Share) Share {
	s := Share{
		UUID:        sDomain.UUID,
		AccessCount: sDomain.AccessCount,
		IsAccessed:  sDomain.IsAccessed,
		CreatedAt:   sDomain.CreatedAt,
		ExpiresAt:   sDomain.ExpiresAt,
	}
	if f := sDomain.File; f != nil {
		s.File = &FileRef{UUID: f.UUID, OriginalName: f.OriginalName, SizeBytes: f.SizeBytes, MimeType: f.MimeType}
	} else {
		s.File = &FileRef{UUID: sDomain.FileID}
	}
	s.Sender = toParty(sDomain.Sender)
	s.Recipient = toParty(sDomain.Recipient)

	return s
}

func ToResponseShares(ssDomain share.Shares) Shares {
	ss := make(Shares, len(ssDomain))
	for idx, s := range ssDomain {
		ss[idx] = ToResponseShare(*s)
	}

	return ss
}

func toParty(p *share.Party) *Party {
	if p == nil {
		return nil
	}
	return &Party{UUID: p.UUID, Email: p.Email, Name: p.Name}
}
