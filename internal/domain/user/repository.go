package user

import (
	"context"
)

type Repository interface {
	FetchUsers(ctx context.Context, page int) (Users, error)
	FetchUserByID(ctx context.Context, uuid UUID) (*User, error)
	FetchUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, req User) (*User, error)
	UpdateName(ctx context.Context, uuid UUID, name string) (*User, error)
	UpdatePasswordHash(ctx context.Context, uuid UUID, hash string) (*User, error)
}
