package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents a role issued by the asset service.
type UserRole string

const (
	RoleAdmin        UserRole = "ADMIN"
	RoleAssetManager UserRole = "ASSET_MANAGER"
	RoleLeader       UserRole = "LEADER"
	RoleStaff        UserRole = "STAFF"
)

// JWTClaims is the subset of the forwarded access token the gateway reads.
// The asset service stays the authority on what the token grants.
type JWTClaims struct {
	UserID       string   `json:"user_id"`
	Role         UserRole `json:"role"`
	Email        string   `json:"email,omitempty"`
	FullName     string   `json:"full_name,omitempty"`
	DepartmentID string   `json:"department_id,omitempty"`
	jwt.RegisteredClaims

	// Verified is set once the signature was checked against JWT_SECRET.
	// Unverified claims may only be forwarded, never trusted locally.
	Verified bool `json:"-"`
}

// Identity returns the user id, falling back to the registered subject.
func (c *JWTClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// HasRole reports whether the claims carry one of roles.
func (c *JWTClaims) HasRole(roles ...UserRole) bool {
	if c == nil {
		return false
	}
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}
