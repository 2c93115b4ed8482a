package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

// issueSession signs a bearer token for a verified principal. Admin tokens
// carry the role, which must be valid.
func (s *Usecase) issueSession(ctx context.Context, p *entity.Principal) (string, error) {
	sub := jwt.Subject{ID: p.ID, Variant: p.Variant.String()}

	if p.Variant == entity.VariantAdmin {
		if err := p.Role.Validate(); err != nil {
			slog.WarnContext(ctx, "refusing session for admin with invalid role", "admin_id", p.ID, "role", int(p.Role))
			return "", err
		}
		sub.Role = int(p.Role)
	}

	token, err := s.jwt.Generate(sub)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "principal", p.LockKey(), "error", err)
		return "", goerror.NewServer(err)
	}

	return token, nil
}
