package dto

// RegisterRequest is the faculty self-registration payload.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"Dr. A. Verma"`
	Email    string `json:"email" binding:"required,email" example:"verma@college.edu"`
	Password string `json:"password" binding:"required,min=6" example:"secret123"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest rotates an access token from a refresh token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse carries an issued token pair.
type TokenResponse struct {
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	ExpiresIn        int          `json:"expiresIn"`
	RefreshExpiresIn int          `json:"refreshExpiresIn"`
	User             UserResponse `json:"user"`
}

// UserResponse is the public view of a user record.
type UserResponse struct {
	ID    int64  `json:"id" example:"1"`
	Name  string `json:"name" example:"Dr. A. Verma"`
	Email string `json:"email" example:"verma@college.edu"`
	Role  string `json:"role" example:"faculty" enums:"custodian,faculty"`
}

// SeedCustodianRequest creates the one-time custodian bootstrap account.
type SeedCustodianRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
