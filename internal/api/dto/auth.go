package dto

// SignupRequest represents a registration request
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the Google ID token from the sign-in widget
type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// RefreshTokenRequest represents a refresh token request. The token may also
// arrive in the refreshToken cookie; the body field wins when both are set.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	User         *UserDTO `json:"user"`
}
