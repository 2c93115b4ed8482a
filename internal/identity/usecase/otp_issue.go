package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// issueOTP replaces the pending code of p with a fresh one and delivers it
// over ch. When delivery fails the new slot is cleared again, unless a newer
// issue already replaced it.
func (s *Usecase) issueOTP(ctx context.Context, p *entity.Principal, ch entity.Channel, ttl time.Duration) (string, error) {
	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "principal", p.LockKey(), "error", err)
		return "", goerror.NewServer(err)
	}

	digest, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp", "principal", p.LockKey(), "error", err)
		return "", goerror.NewServer(err)
	}

	pending := entity.PendingOTP{
		CodeHash:  string(digest),
		ExpiresAt: s.clock.Now().Add(ttl),
	}
	if err := s.repoDB.SetPendingOTP(ctx, p.Variant, p.ID, pending); err != nil {
		slog.ErrorContext(ctx, "failed to repo set pending otp", "principal", p.LockKey(), "error", err)
		return "", goerror.NewServer(err)
	}

	n, masked := s.otpNotification(p, ch, code, ttl)
	if err := s.repoNotifier.Send(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp", "principal", p.LockKey(), "channel", string(ch), "error", err)
		if cErr := s.repoDB.ClearPendingOTP(ctx, p.Variant, p.ID, pending.CodeHash); cErr != nil {
			slog.ErrorContext(ctx, "failed to repo clear undelivered otp", "principal", p.LockKey(), "error", cErr)
		}
		s.countIssued(ctx, p.Variant, ch, "delivery_failed")

		if ch == entity.ChannelSMS {
			return "", goerror.NewDelivery(err, "OTP generated but failed to send SMS")
		}
		return "", goerror.NewDelivery(err, "Failed to send OTP. Please try again.")
	}

	s.countIssued(ctx, p.Variant, ch, "sent")
	return masked, nil
}

func (s *Usecase) otpNotification(p *entity.Principal, ch entity.Channel, code string, ttl time.Duration) (Notification, string) {
	mins := int(ttl / time.Minute)
	if ch == entity.ChannelSMS {
		return Notification{
			Channel:     entity.ChannelSMS,
			Destination: p.Phone,
			Body:        fmt.Sprintf("Your OTP is %s. It is valid for %d minutes. Do not share it with anyone.", code, mins),
		}, entity.MaskPhone(p.Phone)
	}

	return Notification{
		Channel:     entity.ChannelEmail,
		Destination: p.Email,
		Subject:     "Your login OTP",
		Body:        fmt.Sprintf("Your one-time login code is %s.\n\nIt expires in %d minutes. If you did not try to log in, ignore this email.", code, mins),
	}, entity.MaskEmail(p.Email)
}

func (s *Usecase) countIssued(ctx context.Context, v entity.Variant, ch entity.Channel, result string) {
	if s.otpIssued == nil {
		return
	}
	s.otpIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("variant", v.String()),
		attribute.String("channel", string(ch)),
		attribute.String("result", result),
	))
}
