package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	UserSendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	UserVerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.UserVerifyOTPOutput, error)
	UserRegister(ctx context.Context, in usecase.UserRegisterInput) (*usecase.UserRegisterOutput, error)
	UserLogin(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	UserLoginVerify(ctx context.Context, in usecase.LoginVerifyInput) (*usecase.LoginVerifyOutput, error)

	AdminSendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	AdminVerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.AdminVerifyOTPOutput, error)
	AdminLogin(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	AdminLoginVerify(ctx context.Context, in usecase.LoginVerifyInput) (*usecase.LoginVerifyOutput, error)

	Logout(ctx context.Context, v entity.Variant) error
	PasswordChange(ctx context.Context, v entity.Variant, in usecase.PasswordChangeInput) error

	Dashboard(ctx context.Context) (*usecase.DashboardOutput, error)
	AdminCreate(ctx context.Context, in usecase.AdminCreateInput) (*usecase.AdminCreateOutput, error)
	UserCreate(ctx context.Context, in usecase.UserCreateInput) (*usecase.UserCreateOutput, error)
}

// PublicEndpoints lists the routes reachable without a bearer token.
func PublicEndpoints() map[string][]string {
	return map[string][]string{
		http.MethodPost: {
			"/api/v1/users/otp/send",
			"/api/v1/users/otp/verify",
			"/api/v1/users/login",
			"/api/v1/users/login/verify",
			"/api/v1/admins/otp/send",
			"/api/v1/admins/otp/verify",
			"/api/v1/admins/login",
			"/api/v1/admins/login/verify",
		},
	}
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}
	user := router.RequireVariant(entity.VariantUser.String())
	admin := router.RequireVariant(entity.VariantAdmin.String())

	// User (public)
	r.POST("/api/v1/users/otp/send", end.UserSendOTP)
	r.POST("/api/v1/users/otp/verify", end.UserVerifyOTP)
	r.POST("/api/v1/users/login", end.UserLogin)
	r.POST("/api/v1/users/login/verify", end.UserLoginVerify)

	// User (need user session)
	r.POST("/api/v1/users/register", end.UserRegister, user)
	r.POST("/api/v1/users/logout", end.UserLogout, user)
	r.POST("/api/v1/users/password", end.UserPasswordChange, user)

	// Admin (public)
	r.POST("/api/v1/admins/otp/send", end.AdminSendOTP)
	r.POST("/api/v1/admins/otp/verify", end.AdminVerifyOTP)
	r.POST("/api/v1/admins/login", end.AdminLogin)
	r.POST("/api/v1/admins/login/verify", end.AdminLoginVerify)

	// Admin (need admin session, role checked per action)
	r.POST("/api/v1/admins/logout", end.AdminLogout, admin)
	r.POST("/api/v1/admins/password", end.AdminPasswordChange, admin)
	r.GET("/api/v1/admins/dashboard", end.Dashboard, admin)
	r.POST("/api/v1/admins", end.AdminCreate, admin)
	r.POST("/api/v1/admins/users", end.UserCreate, admin)
}
