package auth

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	RegisterRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)
