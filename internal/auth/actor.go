package auth

import (
	"context"
	"slices"
	"strings"
)

// Role is the capability level carried by an Actor.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// Actor identifies who performs a ledger operation and what they may do.
type Actor struct {
	ID   string
	Role Role
}

// CanMutate reports whether the actor may record movements and manage orders.
func (a Actor) CanMutate() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// IsAdmin reports whether the actor may run destructive whole-store operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Name returns a display name: the local part of an email ID, or the ID itself.
func (a Actor) Name() string {
	if a.ID == "" {
		return "anonymous"
	}

	if at := strings.IndexByte(a.ID, '@'); at > 0 {
		return a.ID[:at]
	}

	return a.ID
}

// Resolver maps an identity to a role using a configured admin list.
// Everyone who is not an admin is staff unless listed as a viewer.
type Resolver struct {
	admins  []string
	viewers []string
}

func NewResolver(admins, viewers []string) *Resolver {
	return &Resolver{
		admins:  normalize(admins),
		viewers: normalize(viewers),
	}
}

func (r *Resolver) Resolve(id string) Actor {
	key := strings.ToLower(strings.TrimSpace(id))

	switch {
	case key == "":
		return Actor{Role: RoleViewer}
	case slices.Contains(r.admins, key):
		return Actor{ID: key, Role: RoleAdmin}
	case slices.Contains(r.viewers, key):
		return Actor{ID: key, Role: RoleViewer}
	}

	return Actor{ID: key, Role: RoleStaff}
}

func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}

	return out
}

type actorKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor on the context, or an anonymous viewer.
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}

	return Actor{Role: RoleViewer}
}
