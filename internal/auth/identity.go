package auth

// Identity is the verified caller attached to a request after token validation.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

func IdentityFromClaims(c *Claims) Identity {
	return Identity{
		UserID: c.Subject,
		Email:  c.Email,
		Name:   c.Name,
		Role:   Role(c.Role),
	}
}
