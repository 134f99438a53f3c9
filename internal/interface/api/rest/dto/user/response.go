package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		UUID      uuid.UUID `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Role      string    `json:"role"`
		CreatedAt time.Time `json:"created_at"`
	}
	Users        []User
	ResponseData struct {
		Count int   `json:"count"`
		Page  int   `json:"page"`
		Data  Users `json:"data"`
	}
)
