package inbound

import (
	"log/slog"
	"mime/multipart"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// registerMaxMemory bounds the in-memory part of a registration form; the
// rest spills to temporary files.
const registerMaxMemory = 10 << 20

// HeaderIdempotencyKey lets provisioning calls be retried safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// HTTPEndpoint exposes HTTP handlers for phone OTP, login and admin workflows.
type HTTPEndpoint struct {
	uc uc
}

// UserSendOTP texts a one-time code to a user phone.
// @Summary Send user phone OTP
// @Description Creates the user on first contact and texts a 6 digit code valid for 5 minutes.
// @Tags Identity, User
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Phone payload"
// @Success 200 {object} router.successResponse{data=SendOTPResponse} "OTP sent"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "OTP generated but failed to send SMS"
// @Router /api/v1/users/otp/send [post]
func (h *HTTPEndpoint) UserSendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.UserSendOTP(r.Context(), usecase.SendOTPInput{Phone: req.Phone})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{Phone: resp.MaskedPhone}, nil
}

// UserVerifyOTP accepts the texted code and issues a session.
// @Summary Verify user phone OTP
// @Description Returns a token; registration_key 1 means the profile is complete, 2 means it still needs completing.
// @Tags Identity, User
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=UserVerifyOTPResponse} "OTP verified"
// @Failure 401 {object} router.errorResponse "OTP expired or invalid"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/users/otp/verify [post]
func (h *HTTPEndpoint) UserVerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.UserVerifyOTP(r.Context(), usecase.VerifyOTPInput{Phone: req.Phone, OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return UserVerifyOTPResponse{Token: resp.Token, RegistrationKey: resp.RegistrationKey}, nil
}

// UserRegister completes the profile of the session user.
// @Summary Complete user registration
// @Description Multipart form with profile fields and the address_proof, identity_proof and profile_logo files (2 MiB each).
// @Tags Identity, User
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registered"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Failed to send password email. Registration aborted."
// @Router /api/v1/users/register [post]
func (h *HTTPEndpoint) UserRegister(r *router.Request) (any, error) {
	if err := r.ParseMultipart(registerMaxMemory); err != nil {
		return nil, err
	}
	defer r.RemoveMultipart()

	in := usecase.UserRegisterInput{
		FullName:           r.FormText("full_name"),
		Email:              r.FormText("email"),
		UserType:           r.FormText("user_type"),
		Gender:             r.FormText("gender"),
		DOBOrIncorporation: r.FormText("dob_or_incorporation"),
		GSTDetails:         r.FormText("gst_details"),
		AadhaarNumber:      r.FormText("aadhaar_number"),
		PANNumber:          r.FormText("pan_number"),
		AddressLine:        r.FormText("address_line"),
		State:              r.FormText("state"),
		City:               r.FormText("city"),
		Pincode:            r.FormText("pincode"),
	}

	targets := map[string]**usecase.Document{
		entity.DocAddressProof:  &in.AddressProof,
		entity.DocIdentityProof: &in.IdentityProof,
		entity.DocProfileLogo:   &in.ProfileLogo,
	}
	for field, dst := range targets {
		doc, closeFn, err := openDocument(r.FormFileHeader(field))
		if err != nil {
			slog.WarnContext(r.Context(), "failed to open uploaded document", "field", field, "error", err)
			return nil, goerror.NewInvalidFormat("Invalid file " + field)
		}
		defer closeFn()
		*dst = doc
	}

	resp, err := h.uc.UserRegister(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return RegisterResponse{Token: resp.Token}, nil
}

// UserLogin checks the password and emails a login code.
// @Summary User login
// @Tags Identity, User
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "OTP sent"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 500 {object} router.errorResponse "Failed to send OTP. Please try again."
// @Router /api/v1/users/login [post]
func (h *HTTPEndpoint) UserLogin(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.UserLogin(r.Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return LoginResponse{Email: resp.MaskedEmail}, nil
}

// UserLoginVerify accepts the emailed code and issues a session.
// @Summary Verify user login OTP
// @Tags Identity, User
// @Accept json
// @Produce json
// @Param request body LoginVerifyRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=LoginVerifyResponse} "Logged in"
// @Failure 401 {object} router.errorResponse "OTP expired or invalid"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/v1/users/login/verify [post]
func (h *HTTPEndpoint) UserLoginVerify(r *router.Request) (any, error) {
	var req LoginVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.UserLoginVerify(r.Context(), usecase.LoginVerifyInput{Email: req.Email, OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return LoginVerifyResponse{Token: resp.Token}, nil
}

// UserLogout ends the user session on the client.
// @Summary User logout
// @Tags Identity, User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse "Logged out"
// @Router /api/v1/users/logout [post]
func (h *HTTPEndpoint) UserLogout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), entity.VariantUser); err != nil {
		return nil, err
	}
	return LogoutResponse{}, nil
}

// UserPasswordChange replaces the user password.
// @Summary Change user password
// @Tags Identity, User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PasswordChangeRequest true "Password payload"
// @Success 200 {object} router.successResponse "Password changed"
// @Failure 401 {object} router.errorResponse "Current password is incorrect"
// @Failure 422 {object} router.errorResponse "Weak password or validation error"
// @Router /api/v1/users/password [post]
func (h *HTTPEndpoint) UserPasswordChange(r *router.Request) (any, error) {
	return h.passwordChange(r, entity.VariantUser)
}

// AdminSendOTP texts a one-time code to an existing admin.
// @Summary Send admin phone OTP
// @Tags Identity, Admin
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Phone payload"
// @Success 200 {object} router.successResponse{data=SendOTPResponse} "OTP sent"
// @Failure 404 {object} router.errorResponse "Admin not found"
// @Failure 500 {object} router.errorResponse "OTP generated but failed to send SMS"
// @Router /api/v1/admins/otp/send [post]
func (h *HTTPEndpoint) AdminSendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminSendOTP(r.Context(), usecase.SendOTPInput{Phone: req.Phone})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{Phone: resp.MaskedPhone}, nil
}

// AdminVerifyOTP accepts the texted code and issues an admin session.
// @Summary Verify admin phone OTP
// @Tags Identity, Admin
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=AdminVerifyOTPResponse} "OTP verified"
// @Failure 401 {object} router.errorResponse "OTP expired or invalid"
// @Failure 403 {object} router.errorResponse "Invalid role assigned."
// @Failure 404 {object} router.errorResponse "Admin not found"
// @Router /api/v1/admins/otp/verify [post]
func (h *HTTPEndpoint) AdminVerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminVerifyOTP(r.Context(), usecase.VerifyOTPInput{Phone: req.Phone, OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return AdminVerifyOTPResponse{Token: resp.Token}, nil
}

// AdminLogin checks the admin password and emails a login code.
// @Summary Admin login
// @Tags Identity, Admin
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "OTP sent"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Router /api/v1/admins/login [post]
func (h *HTTPEndpoint) AdminLogin(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminLogin(r.Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return LoginResponse{Email: resp.MaskedEmail}, nil
}

// AdminLoginVerify accepts the emailed code and issues an admin session.
// @Summary Verify admin login OTP
// @Tags Identity, Admin
// @Accept json
// @Produce json
// @Param request body LoginVerifyRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=LoginVerifyResponse} "Logged in"
// @Failure 401 {object} router.errorResponse "OTP expired or invalid"
// @Router /api/v1/admins/login/verify [post]
func (h *HTTPEndpoint) AdminLoginVerify(r *router.Request) (any, error) {
	var req LoginVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminLoginVerify(r.Context(), usecase.LoginVerifyInput{Email: req.Email, OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return LoginVerifyResponse{Token: resp.Token}, nil
}

// AdminLogout ends the admin session on the client.
// @Summary Admin logout
// @Tags Identity, Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse "Logged out"
// @Router /api/v1/admins/logout [post]
func (h *HTTPEndpoint) AdminLogout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), entity.VariantAdmin); err != nil {
		return nil, err
	}
	return LogoutResponse{}, nil
}

// AdminPasswordChange replaces the admin password.
// @Summary Change admin password
// @Tags Identity, Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PasswordChangeRequest true "Password payload"
// @Success 200 {object} router.successResponse "Password changed"
// @Failure 401 {object} router.errorResponse "Current password is incorrect"
// @Failure 422 {object} router.errorResponse "Weak password or validation error"
// @Router /api/v1/admins/password [post]
func (h *HTTPEndpoint) AdminPasswordChange(r *router.Request) (any, error) {
	return h.passwordChange(r, entity.VariantAdmin)
}

// Dashboard lists what the calling admin's role may see.
// @Summary Admin dashboard
// @Tags Identity, Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse "Dashboard data"
// @Failure 403 {object} router.errorResponse "Invalid role assigned."
// @Router /api/v1/admins/dashboard [get]
func (h *HTTPEndpoint) Dashboard(r *router.Request) (any, error) {
	resp, err := h.uc.Dashboard(r.Context())
	if err != nil {
		return nil, err
	}

	out := DashboardResponse{
		Admins: lo.Map(resp.Admins, func(a entity.AdminSummary, _ int) AdminResponse {
			return AdminResponse{
				ID:          a.ID,
				FullName:    a.FullName,
				Email:       a.Email,
				Phone:       a.Phone,
				Role:        a.Role,
				Designation: a.Designation,
				Department:  a.Department,
				EmployeeID:  a.EmployeeID,
				CreatedAt:   a.CreatedAt,
			}
		}),
	}
	if resp.Users != nil {
		out.Users = lo.Map(resp.Users, func(u entity.UserSummary, _ int) UserResponse {
			return UserResponse{
				ID:          u.ID,
				FullName:    u.FullName,
				Email:       u.Email,
				Phone:       u.Phone,
				UserType:    u.UserType,
				IsVerified:  u.IsVerified,
				ProfileLogo: u.ProfileLogo,
				AdminID:     u.AdminID,
				CreatedAt:   u.CreatedAt,
			}
		})
	}

	return out, nil
}

// AdminCreate provisions an admin account.
// @Summary Create admin
// @Tags Identity, Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Retry key"
// @Param request body AdminCreateRequest true "Admin payload"
// @Success 201 {object} router.successResponse{data=AdminCreateResponse} "Admin created"
// @Failure 403 {object} router.errorResponse "Unauthorized access."
// @Failure 409 {object} router.errorResponse "Request already processed"
// @Failure 422 {object} router.errorResponse "Validation error or duplicate"
// @Router /api/v1/admins [post]
func (h *HTTPEndpoint) AdminCreate(r *router.Request) (any, error) {
	var req AdminCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminCreate(r.Context(), usecase.AdminCreateInput{
		IdempotencyKey: r.Header.Get(HeaderIdempotencyKey),
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Role:           req.Role,
		Gender:         req.Gender,
		Designation:    req.Designation,
		Department:     req.Department,
		EmployeeID:     req.EmployeeID,
	})
	if err != nil {
		return nil, err
	}

	return AdminCreateResponse{ID: resp.ID}, nil
}

// UserCreate provisions a verified user on behalf of the calling admin.
// @Summary Create user
// @Tags Identity, Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Retry key"
// @Param request body UserCreateRequest true "User payload"
// @Success 201 {object} router.successResponse{data=UserCreateResponse} "User created"
// @Failure 403 {object} router.errorResponse "Unauthorized access."
// @Failure 422 {object} router.errorResponse "Validation error or duplicate"
// @Router /api/v1/admins/users [post]
func (h *HTTPEndpoint) UserCreate(r *router.Request) (any, error) {
	var req UserCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.UserCreate(r.Context(), usecase.UserCreateInput{
		IdempotencyKey: r.Header.Get(HeaderIdempotencyKey),
		FullName:       req.FullName,
		Phone:          req.Phone,
		UserType:       req.UserType,
		Email:          req.Email,
		PANNumber:      req.PANNumber,
	})
	if err != nil {
		return nil, err
	}

	return UserCreateResponse{ID: resp.ID}, nil
}

func (h *HTTPEndpoint) passwordChange(r *router.Request, v entity.Variant) (any, error) {
	var req PasswordChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordChange(r.Context(), v, usecase.PasswordChangeInput{
		CurrentPassword:         req.CurrentPassword,
		NewPassword:             req.NewPassword,
		NewPasswordConfirmation: req.NewPasswordConfirmation,
	}); err != nil {
		return nil, err
	}

	return PasswordChangeResponse{}, nil
}

func openDocument(fh *multipart.FileHeader) (*usecase.Document, func(), error) {
	if fh == nil {
		return nil, func() {}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}

	return &usecase.Document{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	}, func() { _ = f.Close() }, nil
}
