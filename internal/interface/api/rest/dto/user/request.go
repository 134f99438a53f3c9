package user

type (
	ProfileRequest struct {
		Name string `json:"name"`
	}
	PasswordRequest struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
)
