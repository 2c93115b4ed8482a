package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
)

// once runs fn at most once per idempotency key. An empty key runs fn
// unguarded.
func (s *Usecase) once(ctx context.Context, key string, fn func(context.Context) error) error {
	if key == "" || s.idemp == nil {
		return fn(ctx)
	}

	done := false
	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		done = true
		return nil
	})
	if done {
		if err != nil {
			slog.WarnContext(ctx, "failed to record idempotency state", "key", key, "error", err)
		}
		return nil
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		return goerror.NewBusiness("This request was already processed", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return goerror.NewBusiness("This request is already being processed", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		return goerror.NewBusiness("A previous request with this Idempotency-Key failed, retry with a new key", goerror.CodeConflict)
	case goerror.As(err) != nil:
		return err
	default:
		slog.ErrorContext(ctx, "failed to run idempotent operation", "key", key, "error", err)
		return goerror.NewServer(err)
	}
}

// newPassword generates a password and its hash.
func (s *Usecase) newPassword(ctx context.Context) (string, string, error) {
	plain, err := s.secret.Password(entity.GeneratedPasswordLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate password", "error", err)
		return "", "", goerror.NewServer(err)
	}

	hashed, err := s.password.Hash(plain)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash generated password", "error", err)
		return "", "", goerror.NewServer(err)
	}

	return plain, string(hashed), nil
}

func (s *Usecase) sendPassword(ctx context.Context, email, fullName, subject, password, abortMsg string) error {
	body := fmt.Sprintf("Dear %s,\n\nHere is your temporary password: %s\n\nPlease log in and change your password immediately.\n\nRegards,\nSupport Team", fullName, password)

	if err := s.repoNotifier.Send(ctx, Notification{
		Channel:     entity.ChannelEmail,
		Destination: email,
		Subject:     subject,
		Body:        body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver password email", "email", entity.MaskEmail(email), "error", err)
		return goerror.NewDelivery(err, abortMsg)
	}

	return nil
}

func duplicateError(err error, msg string) error {
	if errors.Is(err, goerror.ErrConflict) {
		return goerror.NewBusiness(msg, goerror.CodeDuplicate)
	}
	return nil
}
