package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	PageSize = 50
)

type (
	UUID = uuid.UUID
	User struct {
		UUID         UUID
		Email        string
		Name         string
		PasswordHash string
		Role         string

		CreatedAt time.Time
	}
	Users []*User
)
