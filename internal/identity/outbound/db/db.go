package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var errUnknownVariant = errors.New("db: unknown principal variant")

// table returns the relation holding principals of v. Table names never come
// from input, only from this switch.
func table(v entity.Variant) (string, error) {
	switch v {
	case entity.VariantUser:
		return "identity_users", nil
	case entity.VariantAdmin:
		return "identity_admins", nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownVariant, v)
	}
}

// principalColumns selects the shared credential view. Users carry no role.
func principalColumns(v entity.Variant) string {
	role := "0"
	if v == entity.VariantAdmin {
		role = "role"
	}
	return "id, phone, COALESCE(email, ''), full_name, COALESCE(password_hash, ''), " + role +
		", is_verified, otp_hash, otp_expires_at, otp_attempts"
}

func scanPrincipal(row pgx.Row, v entity.Variant) (*entity.Principal, error) {
	var (
		p         = entity.Principal{Variant: v}
		role      int16
		otpHash   *string
		otpExpiry *time.Time
		attempts  int32
	)

	if err := row.Scan(&p.ID, &p.Phone, &p.Email, &p.FullName, &p.PasswordHash, &role,
		&p.IsVerified, &otpHash, &otpExpiry, &attempts); err != nil {
		return nil, err
	}

	p.Role = entity.Role(role)
	if otpHash != nil && otpExpiry != nil {
		p.PendingOTP = &entity.PendingOTP{CodeHash: *otpHash, ExpiresAt: *otpExpiry, Attempts: int(attempts)}
	}

	return &p, nil
}
