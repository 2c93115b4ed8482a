package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type PasswordChangeInput struct {
	CurrentPassword         string `validate:"required"`
	NewPassword             string `validate:"required"`
	NewPasswordConfirmation string `validate:"required,eqfield=NewPassword"`
}

// PasswordChange replaces the password of the session principal after the
// current one verifies and the new one passes the strength gate.
func (s *Usecase) PasswordChange(ctx context.Context, v entity.Variant, in PasswordChangeInput) error {
	ctx, span := s.startSpan(ctx, "PasswordChange")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	var p *entity.Principal
	if v == entity.VariantAdmin {
		admin, err := s.authorizedAdmin(ctx, entity.ObjectPassword, entity.ActionUpdate)
		if err != nil {
			return err
		}
		p = admin
	} else {
		clm, err := s.authenticated(ctx, v)
		if err != nil {
			return err
		}

		user, err := s.repoDB.FindPrincipalByID(ctx, v, clm.PrincipalID)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "user from token not found", "user_id", clm.PrincipalID)
			return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo find user by id", "user_id", clm.PrincipalID, "error", err)
			return goerror.NewServer(err)
		}
		p = user
	}

	if !p.HasPassword() || !s.password.Verify(p.PasswordHash, in.CurrentPassword) {
		slog.WarnContext(ctx, "current password mismatch", "principal", p.LockKey())
		return goerror.NewBusiness("Current password is incorrect", goerror.CodeInvalidCredential)
	}

	if err := entity.CheckPasswordStrength(in.NewPassword, in.CurrentPassword); err != nil {
		return err
	}

	newHash, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "principal", p.LockKey(), "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdatePassword(ctx, p.Variant, p.ID, string(newHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update password", "principal", p.LockKey(), "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
