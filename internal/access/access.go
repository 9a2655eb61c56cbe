// Package access resolves effective admin privilege from a static
// bootstrap set plus persisted role grants.
package access

import (
	"context"

	"boardbot/internal/storage"
)

// RoleReader is the slice of the storage surface the resolver needs.
// Both *storage.Store and the per-transaction *storage.Queries satisfy
// it, so checks can run inside a caller's transaction.
type RoleReader interface {
	HasRole(ctx context.Context, userID int64, role string, boardID int64) (bool, error)
	HasAnyRole(ctx context.Context, userID int64) (bool, error)
}

// Resolver answers privilege questions. It performs pure reads and holds
// no mutable state beyond the immutable bootstrap set.
type Resolver struct {
	bootstrap map[int64]struct{}
}

// NewResolver builds a resolver with the configured bootstrap superadmin
// ids.
func NewResolver(bootstrapIDs []int64) *Resolver {
	set := make(map[int64]struct{}, len(bootstrapIDs))
	for _, id := range bootstrapIDs {
		set[id] = struct{}{}
	}
	return &Resolver{bootstrap: set}
}

// IsSuperadmin is true for bootstrap ids and for holders of a persisted
// global superadmin role.
func (r *Resolver) IsSuperadmin(ctx context.Context, roles RoleReader, userID int64) (bool, error) {
	if _, ok := r.bootstrap[userID]; ok {
		return true, nil
	}
	return roles.HasRole(ctx, userID, storage.RoleSuperadmin, 0)
}

// IsBoardAdmin is true for superadmins (checked first, short-circuit) and
// for holders of a board-scoped admin role on exactly that board. A zero
// board id always resolves false.
func (r *Resolver) IsBoardAdmin(ctx context.Context, roles RoleReader, userID, boardID int64) (bool, error) {
	if boardID == 0 {
		return false, nil
	}
	super, err := r.IsSuperadmin(ctx, roles, userID)
	if err != nil {
		return false, err
	}
	if super {
		return true, nil
	}
	return roles.HasRole(ctx, userID, storage.RoleBoardAdmin, boardID)
}

// IsAnyAdmin is true for superadmins and for users holding any persisted
// role row, whatever its scope.
func (r *Resolver) IsAnyAdmin(ctx context.Context, roles RoleReader, userID int64) (bool, error) {
	super, err := r.IsSuperadmin(ctx, roles, userID)
	if err != nil {
		return false, err
	}
	if super {
		return true, nil
	}
	return roles.HasAnyRole(ctx, userID)
}
