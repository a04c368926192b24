package models

// User is stored under "id_<id>" in the users namespace.
// Token fields hold the only live token of each kind; empty means none was issued.
type User struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Name          *string `json:"name,omitempty"`
	OAuthProvider string  `json:"oauth_provider"`
	AccessToken   string  `json:"access_token,omitempty"`
	RefreshToken  string  `json:"refresh_token,omitempty"`
}

// Payload of POST /users
type CreateUser struct {
	Email         string  `json:"email" validate:"required,email"`
	Name          *string `json:"name,omitempty"`
	OAuthToken    string  `json:"oauth_token" validate:"required"`
	OAuthProvider string  `json:"oauth_provider" validate:"required"`
}
