package auth

import "secure-share-api/internal/interface/api/rest/dto/user"

const TokenType = "Bearer"

type (
	TokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	RegisterResponse struct {
		User user.User `json:"user"`
		TokenResponse
	}
)

func NewTokenResponse(token string) TokenResponse {
	return TokenResponse{AccessToken: token, TokenType: TokenType}
}
