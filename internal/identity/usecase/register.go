package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
)

// MaxDocumentSize caps every uploaded profile document.
const MaxDocumentSize = 2 << 20

var (
	documentExts = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}, ".pdf": {}}
	logoExts     = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}
)

// Document is one uploaded file of the registration form.
type Document struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

type UserRegisterInput struct {
	FullName           string `validate:"required,max=255"`
	Email              string `validate:"required,email,max=255"`
	UserType           string `validate:"required,oneof=1 2"`
	Gender             string `validate:"required,oneof=Male Female Other"`
	DOBOrIncorporation string `validate:"required,datetime=2006-01-02"`
	GSTDetails         string `validate:"omitempty,max=20"`
	AadhaarNumber      string `validate:"required,numeric,len=12"`
	PANNumber          string `validate:"required,pan"`
	AddressLine        string `validate:"required,max=255"`
	State              string `validate:"required,max=100"`
	City               string `validate:"required,max=100"`
	Pincode            string `validate:"required,numeric,len=6"`

	AddressProof  *Document `validate:"-"`
	IdentityProof *Document `validate:"-"`
	ProfileLogo   *Document `validate:"-"`
}

type UserRegisterOutput struct {
	Token string
}

// UserRegister completes the profile of the session user. Documents are
// uploaded first and removed again when any later step fails.
func (s *Usecase) UserRegister(ctx context.Context, in UserRegisterInput) (*UserRegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "UserRegister")
	defer span.End()

	clm, err := s.authenticated(ctx, entity.VariantUser)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := validateDocuments(in); err != nil {
		return nil, err
	}

	user, err := s.repoDB.FindPrincipalByID(ctx, entity.VariantUser, clm.PrincipalID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness(notFoundMessage(entity.VariantUser), goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by id", "user_id", clm.PrincipalID, "error", err)
		return nil, goerror.NewServer(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	other, err := s.repoDB.FindPrincipalByEmail(ctx, entity.VariantUser, email)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find user by email", "email", entity.MaskEmail(email), "error", err)
		return nil, goerror.NewServer(err)
	}
	if other != nil && other.ID != user.ID {
		return nil, goerror.NewInvalidInput(nil, "email", "The email has already been taken.")
	}

	userType, _ := strconv.Atoi(in.UserType)
	dob, _ := time.Parse(time.DateOnly, in.DOBOrIncorporation)

	profile := entity.UserProfile{
		UserID:             user.ID,
		FullName:           strings.TrimSpace(in.FullName),
		Email:              email,
		UserType:           entity.UserType(userType),
		Gender:             entity.Gender(in.Gender),
		DOBOrIncorporation: dob,
		GSTDetails:         strings.TrimSpace(in.GSTDetails),
		AadhaarNumber:      in.AadhaarNumber,
		PANNumber:          in.PANNumber,
		AddressLine:        strings.TrimSpace(in.AddressLine),
		State:              strings.TrimSpace(in.State),
		City:               strings.TrimSpace(in.City),
		Pincode:            in.Pincode,
	}

	plain, hashed, err := s.newPassword(ctx)
	if err != nil {
		return nil, err
	}
	profile.PasswordHash = hashed

	uploaded, err := s.uploadDocuments(ctx, user.ID, in, &profile)
	if err != nil {
		s.removeDocuments(ctx, uploaded)
		return nil, err
	}

	if err := s.sendPassword(ctx, email, profile.FullName, "Your Account Password", plain,
		"Failed to send password email. Registration aborted."); err != nil {
		s.removeDocuments(ctx, uploaded)
		return nil, err
	}

	if err := s.repoDB.CompleteUserProfile(ctx, profile); err != nil {
		s.removeDocuments(ctx, uploaded)
		if dErr := duplicateError(err, "A user with this email already exists"); dErr != nil {
			return nil, dErr
		}
		slog.ErrorContext(ctx, "failed to repo complete user profile", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	user.Email = profile.Email
	user.FullName = profile.FullName
	user.PasswordHash = profile.PasswordHash
	user.IsVerified = true

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registration completed", "user_id", user.ID)
	return &UserRegisterOutput{Token: token}, nil
}

func validateDocuments(in UserRegisterInput) error {
	docs := []struct {
		field string
		doc   *Document
		exts  map[string]struct{}
		kind  string
	}{
		{entity.DocAddressProof, in.AddressProof, documentExts, "jpg, jpeg, png, pdf"},
		{entity.DocIdentityProof, in.IdentityProof, documentExts, "jpg, jpeg, png, pdf"},
		{entity.DocProfileLogo, in.ProfileLogo, logoExts, "jpg, jpeg, png"},
	}

	fields := make([]string, 0, len(docs)*2)
	for _, d := range docs {
		switch {
		case d.doc == nil || d.doc.Content == nil:
			fields = append(fields, d.field, "The "+d.field+" field is required.")
		case d.doc.Size > MaxDocumentSize:
			fields = append(fields, d.field, "The "+d.field+" may not be greater than 2048 kilobytes.")
		default:
			if _, ok := d.exts[strings.ToLower(filepath.Ext(d.doc.Filename))]; !ok {
				fields = append(fields, d.field, "The "+d.field+" must be a file of type: "+d.kind+".")
			}
		}
	}

	if len(fields) > 0 {
		return goerror.NewInvalidInput(nil, fields...)
	}
	return nil
}

func (s *Usecase) uploadDocuments(ctx context.Context, userID int64, in UserRegisterInput, p *entity.UserProfile) ([]string, error) {
	if s.storage == nil {
		return nil, goerror.NewServer(errors.New("document storage is not configured"))
	}

	now := s.clock.Now()
	targets := []struct {
		field string
		doc   *Document
		dst   *string
	}{
		{entity.DocAddressProof, in.AddressProof, &p.AddressProof},
		{entity.DocIdentityProof, in.IdentityProof, &p.IdentityProof},
		{entity.DocProfileLogo, in.ProfileLogo, &p.ProfileLogo},
	}

	keys := make([]string, 0, len(targets))
	for _, t := range targets {
		key := entity.DocumentKey(t.field, userID, now, filepath.Base(t.doc.Filename))
		_, err := s.storage.PutObject(ctx, s.documentBucket(), key, t.doc.Content, storage.PutOptions{
			Size:        t.doc.Size,
			ContentType: t.doc.ContentType,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to upload document", "user_id", userID, "field", t.field, "error", err)
			return keys, goerror.NewServer(err)
		}

		keys = append(keys, key)
		*t.dst = key
	}

	return keys, nil
}

func (s *Usecase) removeDocuments(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.DeleteObject(ctx, s.documentBucket(), key); err != nil {
			slog.WarnContext(ctx, "failed to remove uploaded document", "key", key, "error", err)
		}
	}
}
