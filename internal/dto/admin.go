package dto

import "time"

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type StatusResponse struct {
	Ready      bool      `json:"ready"`
	Codes      int       `json:"codes"`
	Terms      int       `json:"terms"`
	Passages   int       `json:"passages"`
	SourceHash string    `json:"source_hash,omitempty"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
