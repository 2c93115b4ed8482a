package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type SendOTPInput struct {
	Phone string `validate:"required,phone"`
}

type SendOTPOutput struct {
	MaskedPhone string
}

type VerifyOTPInput struct {
	Phone string `validate:"required,phone"`
	OTP   string `validate:"required,otpcode"`
}

type UserVerifyOTPOutput struct {
	Token           string
	RegistrationKey entity.RegistrationKey
}

type AdminVerifyOTPOutput struct {
	Token string
}

// UserSendOTP texts a code to phone, creating an unverified user on first use.
func (s *Usecase) UserSendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "UserSendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.FindOrCreateUserByPhone(ctx, s.uid.Generate(), in.Phone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find or create user by phone", "phone", entity.MaskPhone(in.Phone), "error", err)
		return nil, goerror.NewServer(err)
	}

	masked, err := s.issueOTP(ctx, user, entity.ChannelSMS, s.phoneOTPTTL())
	if err != nil {
		return nil, err
	}

	return &SendOTPOutput{MaskedPhone: masked}, nil
}

// UserVerifyOTP accepts the texted code and opens a session. The registration
// key tells the client whether the profile still needs completing.
func (s *Usecase) UserVerifyOTP(ctx context.Context, in VerifyOTPInput) (*UserVerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "UserVerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.findByPhone(ctx, entity.VariantUser, in.Phone)
	if err != nil {
		return nil, err
	}

	user, err = s.verifyOTP(ctx, entity.VariantUser, user.ID, in.OTP, entity.ChannelSMS)
	if err != nil {
		return nil, err
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	key := entity.RegistrationRequired
	if user.Registered() {
		key = entity.RegistrationComplete
	}

	return &UserVerifyOTPOutput{Token: token, RegistrationKey: key}, nil
}

// AdminSendOTP texts a code to an existing admin.
func (s *Usecase) AdminSendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminSendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	admin, err := s.findByPhone(ctx, entity.VariantAdmin, in.Phone)
	if err != nil {
		return nil, err
	}

	masked, err := s.issueOTP(ctx, admin, entity.ChannelSMS, s.phoneOTPTTL())
	if err != nil {
		return nil, err
	}

	return &SendOTPOutput{MaskedPhone: masked}, nil
}

// AdminVerifyOTP accepts the texted code and opens an admin session.
func (s *Usecase) AdminVerifyOTP(ctx context.Context, in VerifyOTPInput) (*AdminVerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminVerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	admin, err := s.findByPhone(ctx, entity.VariantAdmin, in.Phone)
	if err != nil {
		return nil, err
	}

	admin, err = s.verifyOTP(ctx, entity.VariantAdmin, admin.ID, in.OTP, entity.ChannelSMS)
	if err != nil {
		return nil, err
	}

	token, err := s.issueSession(ctx, admin)
	if err != nil {
		return nil, err
	}

	return &AdminVerifyOTPOutput{Token: token}, nil
}

func (s *Usecase) findByPhone(ctx context.Context, v entity.Variant, phone string) (*entity.Principal, error) {
	p, err := s.repoDB.FindPrincipalByPhone(ctx, v, phone)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "principal not found by phone", "variant", v.String(), "phone", entity.MaskPhone(phone))
		return nil, goerror.NewBusiness(notFoundMessage(v), goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find principal by phone", "variant", v.String(), "error", err)
		return nil, goerror.NewServer(err)
	}
	return p, nil
}
