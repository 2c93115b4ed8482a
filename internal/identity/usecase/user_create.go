package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type UserCreateInput struct {
	IdempotencyKey string `validate:"omitempty,max=128"`
	FullName       string `validate:"required,max=255"`
	Phone          string `validate:"required,phone"`
	UserType       int    `validate:"required,oneof=2 3"`
	Email          string `validate:"required,email,max=255"`
	PANNumber      string `validate:"required,pan"`
}

type UserCreateOutput struct {
	ID int64
}

// UserCreate provisions a verified user on behalf of the calling admin.
func (s *Usecase) UserCreate(ctx context.Context, in UserCreateInput) (*UserCreateOutput, error) {
	ctx, span := s.startSpan(ctx, "UserCreate")
	defer span.End()

	creator, err := s.authorizedAdmin(ctx, entity.ObjectUsers, entity.ActionCreate)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	nu := entity.NewUser{
		ID:        s.uid.Generate(),
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     in.Phone,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		UserType:  entity.UserType(in.UserType),
		PANNumber: in.PANNumber,
		AdminID:   creator.ID,
	}

	idemKey := ""
	if in.IdempotencyKey != "" {
		idemKey = "users:create:" + in.IdempotencyKey
	}

	err = s.once(ctx, idemKey, func(ctx context.Context) error {
		plain, hashed, err := s.newPassword(ctx)
		if err != nil {
			return err
		}
		nu.PasswordHash = hashed

		if err := s.sendPassword(ctx, nu.Email, nu.FullName, "Your Account Password", plain,
			"Failed to send password email. User creation aborted."); err != nil {
			return err
		}

		if err := s.repoDB.CreateUser(ctx, nu); err != nil {
			if dErr := duplicateError(err, "A user with this email or phone already exists"); dErr != nil {
				return dErr
			}
			slog.ErrorContext(ctx, "failed to repo create user", "creator_id", creator.ID, "error", err)
			return goerror.NewServer(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user provisioned", "user_id", nu.ID, "creator_id", creator.ID)
	s.publishProvisioned(ctx, PrincipalProvisionedEvent{
		PrincipalID: nu.ID,
		Variant:     entity.VariantUser,
		CreatedBy:   creator.ID,
		CreatedAt:   s.clock.Now(),
	})

	return &UserCreateOutput{ID: nu.ID}, nil
}
