package share

const (
	SelectShareByID = `
		SELECT id, file_id, sender_id, recipient_id, access_count, is_accessed, created_at, expires_at
		FROM shares
		WHERE id = $1 AND expires_at > $2
	`
	SelectShareForRecipient = `
		SELECT id, file_id, sender_id, recipient_id, access_count, is_accessed, created_at, expires_at
		FROM shares
		WHERE file_id = $1 AND recipient_id = $2 AND expires_at > $3
	`
	selectDetailed = `
		SELECT s.id, s.file_id, s.sender_id, s.recipient_id, s.access_count, s.is_accessed, s.created_at, s.expires_at,
		       f.original_name, f.size_bytes, f.mime_type,
		       su.email, su.name,
		       ru.email, ru.name
		FROM shares s
		JOIN files f ON f.id = s.file_id
		JOIN users su ON su.id = s.sender_id
		JOIN users ru ON ru.id = s.recipient_id
	`
	SelectSentShares = selectDetailed + `
		WHERE s.sender_id = $1 AND s.expires_at > $2 AND f.expires_at > $2
		ORDER BY s.created_at DESC
	`
	SelectReceivedShares = selectDetailed + `
		WHERE s.recipient_id = $1 AND s.expires_at > $2 AND f.expires_at > $2
		ORDER BY s.created_at DESC
	`
	InsertShare = `
		INSERT INTO shares (file_id, sender_id, recipient_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, file_id, sender_id, recipient_id, access_count, is_accessed, created_at, expires_at
	`
	IncrementShareAccess = `
		UPDATE shares
		SET access_count = access_count + 1,
		    is_accessed = true
		WHERE id = $1 AND expires_at > $2
		RETURNING id, file_id, sender_id, recipient_id, access_count, is_accessed, created_at, expires_at
	`
	DeleteShareByID     = `DELETE FROM shares WHERE id = $1`
	DeleteExpiredShares = `DELETE FROM shares WHERE expires_at <= $1`
)
