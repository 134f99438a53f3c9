package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/errs"
	domain "secure-share-api/internal/domain/user"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
	maxNameLen     = 100
)

type UserService struct {
	userRepository domain.Repository
	mCounter       *prometheus.CounterVec
	hashCost       int
}

func NewUserService(
	userRepository domain.Repository,
	mCounter *prometheus.CounterVec,
) ports.UserService {
	return &UserService{
		userRepository: userRepository,
		mCounter:       mCounter,
		hashCost:       bcrypt.DefaultCost,
	}
}

func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (us *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	fields := map[string]string{}
	if !validName(name) {
		fields["name"] = "must be 1-100 characters"
	}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email"
	}
	if !validPassword(password) {
		fields["password"] = "must be 8-72 characters"
	}
	if len(fields) > 0 {
		return nil, errs.ValidationFields(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), us.hashCost)
	if err != nil {
		return nil, err
	}

	u, err := us.userRepository.CreateUser(ctx, domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	us.mCounter.WithLabelValues("user_registered_total").Inc()

	return u, nil
}

func (us *UserService) FindUsers(ctx context.Context, page int) (domain.Users, error) {
	users, err := us.userRepository.FetchUsers(ctx, page)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (us *UserService) FindUserByID(ctx context.Context, uuid domain.UUID) (*domain.User, error) {
	u, err := us.userRepository.FetchUserByID(ctx, uuid)
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (us *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := us.userRepository.FetchUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (us *UserService) UpdateProfile(ctx context.Context, uuid domain.UUID, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if !validName(name) {
		return nil, errs.Validation("name", "must be 1-100 characters")
	}

	u, err := us.userRepository.UpdateName(ctx, uuid, name)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrNotFound
	}

	return u, nil
}

// ChangePassword returns errs.ErrInvalidCredentials when current does not match.
func (us *UserService) ChangePassword(ctx context.Context, uuid domain.UUID, current, next string) error {
	if !validPassword(next) {
		return errs.Validation("new_password", "must be 8-72 characters")
	}

	u, err := us.userRepository.FetchUserByID(ctx, uuid)
	if err != nil {
		return err
	}
	if u == nil {
		return errs.ErrNotFound
	}
	if err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return errs.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), us.hashCost)
	if err != nil {
		return err
	}

	updated, err := us.userRepository.UpdatePasswordHash(ctx, uuid, string(hash))
	if err != nil {
		return err
	}
	if updated == nil {
		return errs.ErrNotFound
	}

	us.mCounter.WithLabelValues("user_password_changed_total").Inc()

	return nil
}

func validName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= maxNameLen
}

func validPassword(password string) bool {
	return len(password) >= minPasswordLen && len(password) <= maxPasswordLen
}
