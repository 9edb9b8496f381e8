package service

import (
	"context"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
)

// AdminService changes global permission tiers.
type AdminService struct {
	users   database.UserRepository
	gateway gateway.Dispatcher
	perms   *PermissionChecker
}

// NewAdminService creates an AdminService.
func NewAdminService(users database.UserRepository, gw gateway.Dispatcher, perms *PermissionChecker) *AdminService {
	return &AdminService{users: users, gateway: gw, perms: perms}
}

// ChangePermission sets targetID's global tier. Callers changing their own
// tier get a successful no-op.
func (s *AdminService) ChangePermission(ctx context.Context, userID, targetID int64, permissionID int) error {
	target, err := s.perms.RequireUser(ctx, targetID)
	if err != nil {
		return err
	}
	if permissionID != models.PermissionOwner && permissionID != models.PermissionMember {
		return BadRequest("INVALID_PERMISSION", "permission_id must be 1 or 2")
	}

	caller, err := s.perms.RequireUser(ctx, userID)
	if err != nil {
		return err
	}
	subject := permissions.Subject{UserID: userID, GlobalOwner: caller.IsGlobalOwner}
	if !permissions.Compute(subject).Has(permissions.PermManageUsers) {
		return missingPermissions("only global owners can change permissions")
	}

	if userID == targetID {
		return nil
	}

	isOwner := permissionID == models.PermissionOwner
	if target.IsGlobalOwner == isOwner {
		return nil
	}
	if err := s.users.SetGlobalOwner(ctx, targetID, isOwner); err != nil {
		return internalError("users.SetGlobalOwner", err)
	}
	target.IsGlobalOwner = isOwner

	s.gateway.DispatchToAll(gateway.EventUserUpdate, target)
	return nil
}
