package user

import (
	"secure-share-api/internal/domain/user"
)

func ToResponseUser(uDomain user.User) User {
	return User{
		UUID:      uDomain.UUID,
		Email:     uDomain.Email,
		Name:      uDomain.Name,
		Role:      uDomain.Role,
		CreatedAt: uDomain.CreatedAt,
	}
}

func ToResponseUsers(users user.Users) Users {
	res := make(Users, 0, len(users))
	for _, u := range users {
		res = append(res, ToResponseUser(*u))
	}
	return res
}
