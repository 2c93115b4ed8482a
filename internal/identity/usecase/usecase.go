package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/authz"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/keylock"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/secret"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPhoneOTPTTL = 5 * time.Minute
	defaultLoginOTPTTL = 10 * time.Minute
	defaultMaxAttempts = 5
	defaultPresignTTL  = 15 * time.Minute
)

// Notification is one message handed to the delivery gateway.
type Notification struct {
	Channel     entity.Channel
	Destination string
	Subject     string
	Body        string
}

// PrincipalVerifiedEvent is emitted after a code is accepted.
type PrincipalVerifiedEvent struct {
	PrincipalID int64
	Variant     entity.Variant
	Channel     entity.Channel
	VerifiedAt  time.Time
}

// PrincipalProvisionedEvent is emitted after an admin creates an account.
type PrincipalProvisionedEvent struct {
	PrincipalID int64
	Variant     entity.Variant
	Role        entity.Role
	CreatedBy   int64
	CreatedAt   time.Time
}

type repoDB interface {
	FindPrincipalByPhone(ctx context.Context, v entity.Variant, phone string) (*entity.Principal, error)
	FindPrincipalByEmail(ctx context.Context, v entity.Variant, email string) (*entity.Principal, error)
	FindPrincipalByID(ctx context.Context, v entity.Variant, id int64) (*entity.Principal, error)
	FindOrCreateUserByPhone(ctx context.Context, newID int64, phone string) (*entity.Principal, error)

	SetPendingOTP(ctx context.Context, v entity.Variant, id int64, otp entity.PendingOTP) error
	ConsumePendingOTP(ctx context.Context, v entity.Variant, id int64, codeHash string, now time.Time) (bool, error)
	IncrementOTPAttempts(ctx context.Context, v entity.Variant, id int64, codeHash string) (int, error)
	ClearPendingOTP(ctx context.Context, v entity.Variant, id int64, codeHash string) error

	CompleteUserProfile(ctx context.Context, in entity.UserProfile) error
	CreateAdmin(ctx context.Context, in entity.NewAdmin) error
	CreateUser(ctx context.Context, in entity.NewUser) error
	UpdatePassword(ctx context.Context, v entity.Variant, id int64, hash string) error

	ListAdminsByRoles(ctx context.Context, roles []entity.Role) ([]entity.AdminSummary, error)
	ListUsers(ctx context.Context) ([]entity.UserSummary, error)
}

type repoNotifier interface {
	Send(ctx context.Context, n Notification) error
}

type repoMessaging interface {
	PublishPrincipalVerified(ctx context.Context, ev PrincipalVerifiedEvent) error
	PublishPrincipalProvisioned(ctx context.Context, ev PrincipalProvisionedEvent) error
}

type Usecase struct {
	repoDB        repoDB
	repoNotifier  repoNotifier
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	authz         authz.Authorizer
	hmac          hash.Hash
	password      hash.Hash
	otp           otp.Generator
	secret        secret.Generator
	locker        *keylock.Locker
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	otpIssued   metric.Int64Counter
	otpVerified metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoNotifier  repoNotifier
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	Authorizer    authz.Authorizer
	HMAC          hash.Hash
	Password      hash.Hash
	OTP           otp.Generator
	Secret        secret.Generator
	Locker        *keylock.Locker
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("identity.usecase")

	issued, err := meter.Int64Counter("identity.otp.issued", metric.WithDescription("One-time codes issued"))
	if err != nil {
		slog.Error("failed to create otp issued counter", "error", err)
	}
	verified, err := meter.Int64Counter("identity.otp.verified", metric.WithDescription("One-time code verification attempts"))
	if err != nil {
		slog.Error("failed to create otp verified counter", "error", err)
	}

	locker := dep.Locker
	if locker == nil {
		locker = keylock.New()
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoNotifier:  dep.RepoNotifier,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		authz:         dep.Authorizer,
		hmac:          dep.HMAC,
		password:      dep.Password,
		otp:           dep.OTP,
		secret:        dep.Secret,
		locker:        locker,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		otpIssued:     issued,
		otpVerified:   verified,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) minutes(key string, def time.Duration) time.Duration {
	if d := s.cfg.GetMinute(key); d > 0 {
		return d
	}
	return def
}

func (s *Usecase) phoneOTPTTL() time.Duration {
	return s.minutes("modules.identity.otp.phone_ttl_minutes", defaultPhoneOTPTTL)
}

func (s *Usecase) loginOTPTTL() time.Duration {
	return s.minutes("modules.identity.otp.login_ttl_minutes", defaultLoginOTPTTL)
}

// maxAttempts is how many mismatches one code tolerates; zero disables the limit.
func (s *Usecase) maxAttempts() int {
	key := "modules.identity.otp.max_attempts"
	if s.cfg.GetString(key) == "" {
		return defaultMaxAttempts
	}
	if n := s.cfg.GetInt(key); n > 0 {
		return n
	}
	return 0
}

func (s *Usecase) documentBucket() string {
	return s.cfg.GetString("storage.bucket")
}

func (s *Usecase) presignTTL() time.Duration {
	return s.minutes("storage.presign_ttl_minutes", defaultPresignTTL)
}

func notFoundMessage(v entity.Variant) string {
	if v == entity.VariantAdmin {
		return "Admin not found"
	}
	return "User not found"
}

func (s *Usecase) authenticated(ctx context.Context, v entity.Variant) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if clm.Variant != v.String() {
		return nil, goerror.NewBusiness("Unauthorized", goerror.CodeForbidden)
	}
	return clm, nil
}

// authorizedAdmin loads the calling admin and checks the action against its
// stored role, so a role change takes effect before the token expires.
func (s *Usecase) authorizedAdmin(ctx context.Context, obj, act string) (*entity.Principal, error) {
	clm, err := s.authenticated(ctx, entity.VariantAdmin)
	if err != nil {
		return nil, err
	}

	admin, err := s.repoDB.FindPrincipalByID(ctx, entity.VariantAdmin, clm.PrincipalID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "admin from token not found", "admin_id", clm.PrincipalID)
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find admin by id", "admin_id", clm.PrincipalID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := admin.Role.Validate(); err != nil {
		slog.WarnContext(ctx, "admin has invalid role", "admin_id", admin.ID, "role", int(admin.Role))
		return nil, err
	}

	ok, err := s.authz.Allowed(admin.Role.Subject(), obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "admin_id", admin.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "admin action denied", "admin_id", admin.ID, "role", admin.Role.String(), "object", obj, "action", act)
		return nil, goerror.NewBusiness("Unauthorized access.", goerror.CodeForbidden)
	}

	return admin, nil
}
