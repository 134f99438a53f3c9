package ports

import (
	"context"

	"secure-share-api/internal/domain/user"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*user.User, error)
	FindUsers(ctx context.Context, page int) (user.Users, error)
	FindUserByID(ctx context.Context, uuid user.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateProfile(ctx context.Context, uuid user.UUID, name string) (*user.User, error)
	ChangePassword(ctx context.Context, uuid user.UUID, current, next string) error
}
