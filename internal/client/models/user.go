// Package models defines the client-side view of backend resources.
package models

// User is the server-asserted identity returned by /users/me.
// It is never persisted on the client.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// RegisterRequest is the JSON body of /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// TokenResponse is the JSON body returned by /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
