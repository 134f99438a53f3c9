package validator

import (
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"secure-share-api/internal/interface/api/rest/dto/auth"
	"secure-share-api/internal/interface/api/rest/dto/share"
	"secure-share-api/internal/interface/api/rest/dto/user"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt safe
	maxNameLen     = 100
)

// ValidatePage defaults to 1 when page is empty.
func ValidatePage(page string) (int, error) {
	if page == "" {
		return 1, nil
	}
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		return 0, errors.New("page must be a positive integer")
	}
	return p, nil
}

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

func ValidateRegister(r auth.RegisterRequest) map[string]string {
	errs := make(map[string]string)

	validateName(errs, r.Name)
	validateEmail(errs, "email", r.Email)
	validatePassword(errs, "password", r.Password)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateLogin(r auth.LoginRequest) map[string]string {
	errs := make(map[string]string)

	validateEmail(errs, "email", r.Email)
	validatePassword(errs, "password", r.Password)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateProfile(r user.ProfileRequest) map[string]string {
	errs := make(map[string]string)

	validateName(errs, r.Name)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidatePasswordChange(r user.PasswordRequest) map[string]string {
	errs := make(map[string]string)

	if r.CurrentPassword == "" {
		errs["current_password"] = "current_password is required"
	}
	validatePassword(errs, "new_password", r.NewPassword)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateShare also returns the parsed file id.
func ValidateShare(r share.CreateRequest) (uuid.UUID, map[string]string) {
	errs := make(map[string]string)

	ok, fileID := IsUUID(strings.TrimSpace(r.FileID))
	if !ok {
		errs["file_id"] = "file_id must be a valid UUID"
	}
	validateEmail(errs, "recipient_email", r.RecipientEmail)

	if len(errs) == 0 {
		return fileID, nil
	}
	return uuid.Nil, errs
}

func validateEmail(errs map[string]string, field, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		errs[field] = field + " is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs[field] = "invalid email format"
	}
}

func validateName(errs map[string]string, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		errs["name"] = "name is required"
	} else if utf8.RuneCountInString(name) > maxNameLen {
		errs["name"] = "name must be at most 100 characters"
	}
}

func validatePassword(errs map[string]string, field, password string) {
	// not trimmed: spaces are legal password characters
	if strings.TrimSpace(password) == "" {
		errs[field] = field + " is required"
	} else if l := len(password); l < minPasswordLen || l > maxPasswordLen {
		errs[field] = field + " length must be 8-72 bytes"
	}
}
