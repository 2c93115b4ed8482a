package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

// Logout acknowledges the end of a session. Tokens are not revoked server
// side; the client drops its token.
func (s *Usecase) Logout(ctx context.Context, v entity.Variant) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm, err := s.authenticated(ctx, v)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "principal logged out", "principal", entity.LockKey(v, clm.PrincipalID), "jti", clm.ID)
	return nil
}
