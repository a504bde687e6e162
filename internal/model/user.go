package model

type AuthClaims struct {
	UserID         string `json:"sub"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	OrganizationID string `json:"org"`
	Type           string `json:"typ"`
	TokenID        string `json:"jti"`
}
