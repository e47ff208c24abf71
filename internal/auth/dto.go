package auth

// LoginRequest captures the credentials sent to the login endpoint. The form
// variant names the email field "username".
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the OAuth2-style bearer token answer.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
