package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type LoginOutput struct {
	MaskedEmail string
}

type LoginVerifyInput struct {
	Email string `validate:"required,email"`
	OTP   string `validate:"required,otpcode"`
}

type LoginVerifyOutput struct {
	Token string
}

func (s *Usecase) UserLogin(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "UserLogin")
	defer span.End()

	return s.login(ctx, entity.VariantUser, in)
}

func (s *Usecase) AdminLogin(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminLogin")
	defer span.End()

	return s.login(ctx, entity.VariantAdmin, in)
}

func (s *Usecase) UserLoginVerify(ctx context.Context, in LoginVerifyInput) (*LoginVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "UserLoginVerify")
	defer span.End()

	return s.loginVerify(ctx, entity.VariantUser, in)
}

func (s *Usecase) AdminLoginVerify(ctx context.Context, in LoginVerifyInput) (*LoginVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminLoginVerify")
	defer span.End()

	return s.loginVerify(ctx, entity.VariantAdmin, in)
}

// login checks the password and emails a code. Unknown email, missing
// password and wrong password all answer the same.
func (s *Usecase) login(ctx context.Context, v entity.Variant, in LoginInput) (*LoginOutput, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	errInvalid := goerror.NewBusiness("Invalid credentials", goerror.CodeInvalidCredential)

	p, err := s.repoDB.FindPrincipalByEmail(ctx, v, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login for unknown email", "variant", v.String(), "email", entity.MaskEmail(email))
		return nil, errInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find principal by email", "variant", v.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	if !p.HasPassword() || !s.password.Verify(p.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "login password mismatch", "principal", p.LockKey())
		return nil, errInvalid
	}

	masked, err := s.issueOTP(ctx, p, entity.ChannelEmail, s.loginOTPTTL())
	if err != nil {
		return nil, err
	}

	return &LoginOutput{MaskedEmail: masked}, nil
}

func (s *Usecase) loginVerify(ctx context.Context, v entity.Variant, in LoginVerifyInput) (*LoginVerifyOutput, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	p, err := s.repoDB.FindPrincipalByEmail(ctx, v, email)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness(notFoundMessage(v), goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find principal by email", "variant", v.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	p, err = s.verifyOTP(ctx, v, p.ID, in.OTP, entity.ChannelEmail)
	if err != nil {
		return nil, err
	}

	token, err := s.issueSession(ctx, p)
	if err != nil {
		return nil, err
	}

	return &LoginVerifyOutput{Token: token}, nil
}
