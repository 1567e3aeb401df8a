// Package auth resolves the acting principal and decides what it may do.
//
// Principals are identified by the web layer (X-Remote-User behind a trusted
// proxy) and stored in the request context. Authorization is role based:
// admins may create and modify any entity, editors may only modify ones that
// already exist.
package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/collectory/registry/internal/model"
)

type contextKey int

const principalKey contextKey = iota

// Anonymous is the principal used when no identity was established.
const Anonymous = "anonymous"

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext returns the principal stored in ctx, or Anonymous.
func PrincipalFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(principalKey).(string); ok && p != "" {
		return p
	}
	return Anonymous
}

// ContextIdentity resolves the principal from the request context.
type ContextIdentity struct{}

// Principal implements batch.IdentityProvider.
func (ContextIdentity) Principal(ctx context.Context) string {
	return PrincipalFromContext(ctx)
}

// RoleAuthorizer grants batch permissions from two configured user lists.
type RoleAuthorizer struct {
	admins  map[string]bool
	editors map[string]bool
}

// NewRoleAuthorizer builds an authorizer from admin and editor user names.
func NewRoleAuthorizer(admins, editors []string) *RoleAuthorizer {
	a := &RoleAuthorizer{
		admins:  make(map[string]bool, len(admins)),
		editors: make(map[string]bool, len(editors)),
	}
	for _, u := range admins {
		a.admins[u] = true
	}
	for _, u := range editors {
		a.editors[u] = true
	}
	return a
}

// AllowedToCreate reports whether principal may register a new entity.
// Only admins create; the entity type and code do not affect the decision
// but are part of the contract so policy can tighten later.
func (a *RoleAuthorizer) AllowedToCreate(ctx context.Context, principal string, entityType model.EntityType, code string) (bool, error) {
	return a.admins[principal], nil
}

// AllowedToModify reports whether principal may change an existing entity.
func (a *RoleAuthorizer) AllowedToModify(ctx context.Context, principal string, entityType model.EntityType, key uuid.UUID) (bool, error) {
	return a.admins[principal] || a.editors[principal], nil
}
