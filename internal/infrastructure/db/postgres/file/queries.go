package file

const (
	SelectFileByID = `
		SELECT id, original_name, storage_name, size_bytes, mime_type, wrapped_key, owner_id, storage_path, created_at, expires_at
		FROM files
		WHERE id = $1 AND expires_at > $2
	`
	SelectOwnerFiles = `
		SELECT id, original_name, storage_name, size_bytes, mime_type, wrapped_key, owner_id, storage_path, created_at, expires_at
		FROM files
		WHERE owner_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`
	InsertFile = `
		INSERT INTO files (original_name, storage_name, size_bytes, mime_type, wrapped_key, owner_id, storage_path, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING
		  id, original_name, storage_name, size_bytes, mime_type, wrapped_key, owner_id, storage_path, created_at, expires_at
	`
	DeleteFileByID = `
		DELETE FROM files
		WHERE id = $1
		RETURNING
		  id, original_name, storage_name, size_bytes, mime_type, wrapped_key, owner_id, storage_path, created_at, expires_at
	`
	DeleteExpiredFiles = `
		DELETE FROM files
		WHERE expires_at <= $1
		RETURNING storage_path
	`
)
