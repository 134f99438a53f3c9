package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/domain/user"
	"secure-share-api/internal/infrastructure/db/postgres"
)

const constraintEmail = "users_email_key"

var ErrEmailAlreadyExists = errs.Validation("email", "already registered")

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) user.Repository {
	return &Repository{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := new(User)
	if err := row.Scan(
		&u.UUID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.Role,

		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return fromDBModel(u), nil
}

func (r *Repository) FetchUsers(ctx context.Context, page int) (user.Users, error) {
	if page < 1 {
		page = 1
	}

	rows, err := r.db.Query(ctx, SelectUsers, user.PageSize, (page-1)*user.PageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var us user.Users
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		us = append(us, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return us, nil
}

func (r *Repository) FetchUserByID(ctx context.Context, uuid user.UUID) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, SelectUserByID, uuid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return u, nil
}

func (r *Repository) FetchUserByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, SelectUserByEmail, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, req user.User) (*user.User, error) {
	role := req.Role
	if role == "" {
		role = user.RoleUser
	}

	u, err := scanUser(r.db.QueryRow(ctx, InsertUser, req.Email, req.Name, req.PasswordHash, role))
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, postgres.UniqueViolation(err, map[string]error{
				constraintEmail: ErrEmailAlreadyExists,
			})
		}
		return nil, err
	}

	return u, nil
}

func (r *Repository) UpdateName(ctx context.Context, uuid user.UUID, name string) (*user.User, error) {
	return r.updateOne(ctx, UpdateUserName, name, uuid)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, uuid user.UUID, hash string) (*user.User, error) {
	return r.updateOne(ctx, UpdateUserPasswordHash, hash, uuid)
}

func (r *Repository) updateOne(ctx context.Context, sql string, value string, uuid user.UUID) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, sql, value, uuid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return u, nil
}
