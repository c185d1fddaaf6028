package domain

import (
	"context"
	"errors"
)

// Role represents a principal's access level.
type Role string

const (
	// RoleUser is an ordinary wallet holder.
	RoleUser Role = "user"

	// RoleAgent converts between physical cash and ledger balance.
	RoleAgent Role = "agent"

	// RoleAdmin supervises the system and sees every record.
	RoleAdmin Role = "admin"
)

var validRoles = map[Role]bool{
	RoleUser:  true,
	RoleAgent: true,
	RoleAdmin: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Principal is an authenticated identity handed to the engine by the
// authorization gate. PINVerified is the gate's verdict on the secret.
type Principal struct {
	ID          string
	Role        Role
	PINVerified bool
}

// IsAdmin reports whether the principal is an administrator.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type principalKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the principal stored by the auth layer.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
