package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type DashboardOutput struct {
	Role   entity.Role
	Admins []entity.AdminSummary
	// Users is nil when the role may not see users.
	Users []entity.UserSummary
}

// Dashboard lists the admins and users visible to the calling admin's role.
func (s *Usecase) Dashboard(ctx context.Context) (*DashboardOutput, error) {
	ctx, span := s.startSpan(ctx, "Dashboard")
	defer span.End()

	admin, err := s.authorizedAdmin(ctx, entity.ObjectDashboard, entity.ActionRead)
	if err != nil {
		return nil, err
	}

	scope, err := entity.ScopeFor(admin.Role)
	if err != nil {
		return nil, err
	}

	admins, err := s.repoDB.ListAdminsByRoles(ctx, scope.AdminRoles)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list admins by roles", "admin_id", admin.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &DashboardOutput{Role: admin.Role, Admins: admins}
	if !scope.IncludeUsers {
		return out, nil
	}

	users, err := s.repoDB.ListUsers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list users", "admin_id", admin.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out.Users = lo.Map(users, func(u entity.UserSummary, _ int) entity.UserSummary {
		u.ProfileLogo = s.presign(ctx, u.ProfileLogo)
		return u
	})
	if out.Users == nil {
		out.Users = []entity.UserSummary{}
	}

	return out, nil
}

// presign turns a stored object key into a download URL, or "" on failure.
func (s *Usecase) presign(ctx context.Context, key string) string {
	if key == "" || s.storage == nil {
		return ""
	}

	url, err := s.storage.PresignGet(ctx, s.documentBucket(), key, s.presignTTL())
	if err != nil {
		slog.WarnContext(ctx, "failed to presign object", "key", key, "error", err)
		return ""
	}
	return url
}
