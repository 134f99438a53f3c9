package share

type CreateRequest struct {
	FileID         string `json:"file_id"`
	RecipientEmail string `json:"recipient_email"`
}
