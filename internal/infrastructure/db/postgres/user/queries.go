package user

const (
	SelectUsers = `
		SELECT id, email, name, password_hash, role, created_at
		FROM users
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`
	SelectUserByID = `
		SELECT id, email, name, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`
	SelectUserByEmail = `
		SELECT id, email, name, password_hash, role, created_at
		FROM users
		WHERE email = $1
	`
	InsertUser = `
		INSERT INTO users (email, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, password_hash, role, created_at
	`
	UpdateUserName = `
		UPDATE users
		SET name = $1
		WHERE id = $2
		RETURNING id, email, name, password_hash, role, created_at
	`
	UpdateUserPasswordHash = `
		UPDATE users
		SET password_hash = $1
		WHERE id = $2
		RETURNING id, email, name, password_hash, role, created_at
	`
)
