package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type AdminCreateInput struct {
	IdempotencyKey string `validate:"omitempty,max=128"`
	FullName       string `validate:"required,max=255"`
	Email          string `validate:"required,email,max=255"`
	Phone          string `validate:"required,phone"`
	Role           int    `validate:"required,oneof=1 2 3"`
	Gender         string `validate:"required,oneof=Male Female Other"`
	Designation    string `validate:"required,max=100"`
	Department     string `validate:"required,max=100"`
	EmployeeID     string `validate:"required,max=50"`
}

type AdminCreateOutput struct {
	ID int64
}

// AdminCreate provisions an admin account. The generated password is mailed
// before anything is saved; a failed mail aborts the creation.
func (s *Usecase) AdminCreate(ctx context.Context, in AdminCreateInput) (*AdminCreateOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminCreate")
	defer span.End()

	creator, err := s.authorizedAdmin(ctx, entity.ObjectAdmins, entity.ActionCreate)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	na := entity.NewAdmin{
		ID:          s.uid.Generate(),
		FullName:    strings.TrimSpace(in.FullName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       in.Phone,
		Role:        entity.Role(in.Role),
		Gender:      entity.Gender(in.Gender),
		Designation: strings.TrimSpace(in.Designation),
		Department:  strings.TrimSpace(in.Department),
		EmployeeID:  strings.TrimSpace(in.EmployeeID),
	}

	idemKey := ""
	if in.IdempotencyKey != "" {
		idemKey = "admins:create:" + in.IdempotencyKey
	}

	err = s.once(ctx, idemKey, func(ctx context.Context) error {
		plain, hashed, err := s.newPassword(ctx)
		if err != nil {
			return err
		}
		na.PasswordHash = hashed

		if err := s.sendPassword(ctx, na.Email, na.FullName, "Your Admin Account Password", plain,
			"Failed to send password email. Admin creation aborted."); err != nil {
			return err
		}

		if err := s.repoDB.CreateAdmin(ctx, na); err != nil {
			if dErr := duplicateError(err, "An admin with this email, phone or employee id already exists"); dErr != nil {
				return dErr
			}
			slog.ErrorContext(ctx, "failed to repo create admin", "creator_id", creator.ID, "error", err)
			return goerror.NewServer(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "admin provisioned", "admin_id", na.ID, "role", na.Role.String(), "creator_id", creator.ID)
	s.publishProvisioned(ctx, PrincipalProvisionedEvent{
		PrincipalID: na.ID,
		Variant:     entity.VariantAdmin,
		Role:        na.Role,
		CreatedBy:   creator.ID,
		CreatedAt:   s.clock.Now(),
	})

	return &AdminCreateOutput{ID: na.ID}, nil
}
