package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// verifyOTP runs the pending code state machine for principal (v, id):
// not found, then expired, then rejected, then verified. It returns the
// principal as read under the lock.
func (s *Usecase) verifyOTP(ctx context.Context, v entity.Variant, id int64, code string, ch entity.Channel) (*entity.Principal, error) {
	unlock := s.locker.Lock(entity.LockKey(v, id))
	defer unlock()

	p, err := s.repoDB.FindPrincipalByID(ctx, v, id)
	if errors.Is(err, goerror.ErrNotFound) {
		s.countVerified(ctx, v, entity.OutcomeNotFound)
		return nil, goerror.NewBusiness(notFoundMessage(v), goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find principal by id", "principal", entity.LockKey(v, id), "error", err)
		return nil, goerror.NewServer(err)
	}

	if p.PendingOTP == nil {
		slog.WarnContext(ctx, "no pending otp", "principal", p.LockKey())
		s.countVerified(ctx, v, entity.OutcomeNotFound)
		return nil, goerror.NewBusiness(notFoundMessage(v), goerror.CodeNotFound)
	}

	now := s.clock.Now()
	if p.PendingOTP.ExpiredAt(now) {
		slog.WarnContext(ctx, "otp expired", "principal", p.LockKey(), "expires_at", p.PendingOTP.ExpiresAt)
		s.countVerified(ctx, v, entity.OutcomeExpired)
		return nil, goerror.NewBusiness("The OTP has expired. Please request a new one.", goerror.CodeExpired)
	}

	if !s.hmac.Verify(p.PendingOTP.CodeHash, code) {
		s.recordMismatch(ctx, p)
		s.countVerified(ctx, v, entity.OutcomeRejected)
		return nil, goerror.NewBusiness("The entered OTP is invalid. Please try again.", goerror.CodeRejected)
	}

	ok, err := s.repoDB.ConsumePendingOTP(ctx, v, id, p.PendingOTP.CodeHash, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume pending otp", "principal", p.LockKey(), "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		// another process consumed or replaced the code in between
		slog.WarnContext(ctx, "pending otp already consumed", "principal", p.LockKey())
		s.countVerified(ctx, v, entity.OutcomeNotFound)
		return nil, goerror.NewBusiness(notFoundMessage(v), goerror.CodeNotFound)
	}

	p.IsVerified = true
	p.PendingOTP = nil
	s.countVerified(ctx, v, entity.OutcomeVerified)
	s.publishVerified(ctx, PrincipalVerifiedEvent{
		PrincipalID: p.ID,
		Variant:     v,
		Channel:     ch,
		VerifiedAt:  now,
	})

	return p, nil
}

func (s *Usecase) recordMismatch(ctx context.Context, p *entity.Principal) {
	attempts, err := s.repoDB.IncrementOTPAttempts(ctx, p.Variant, p.ID, p.PendingOTP.CodeHash)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment otp attempts", "principal", p.LockKey(), "error", err)
		return
	}

	limit := s.maxAttempts()
	slog.WarnContext(ctx, "otp mismatch", "principal", p.LockKey(), "attempts", attempts, "max_attempts", limit)
	if limit == 0 || attempts < limit {
		return
	}

	if err := s.repoDB.ClearPendingOTP(ctx, p.Variant, p.ID, p.PendingOTP.CodeHash); err != nil {
		slog.ErrorContext(ctx, "failed to repo clear exhausted otp", "principal", p.LockKey(), "error", err)
	}
}

func (s *Usecase) countVerified(ctx context.Context, v entity.Variant, outcome entity.VerifyOutcome) {
	if s.otpVerified == nil {
		return
	}
	s.otpVerified.Add(ctx, 1, metric.WithAttributes(
		attribute.String("variant", v.String()),
		attribute.String("result", string(outcome)),
	))
}
