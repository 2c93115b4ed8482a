package usecase

import (
	"context"
	"log/slog"
)

// Events go out after the response is decided; failures are only logged.

func (s *Usecase) publishVerified(ctx context.Context, ev PrincipalVerifiedEvent) {
	if s.repoMessaging == nil {
		return
	}
	s.background(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishPrincipalVerified(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish principal verified", "principal_id", ev.PrincipalID, "error", err)
		}
		return nil
	})
}

func (s *Usecase) publishProvisioned(ctx context.Context, ev PrincipalProvisionedEvent) {
	if s.repoMessaging == nil {
		return
	}
	s.background(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishPrincipalProvisioned(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish principal provisioned", "principal_id", ev.PrincipalID, "error", err)
		}
		return nil
	})
}

func (s *Usecase) background(ctx context.Context, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	if s.goroutine == nil {
		_ = fn(ctx)
		return
	}
	s.goroutine.Go(ctx, fn)
}
