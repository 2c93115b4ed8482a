package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type SendOTPResponse struct {
	Phone string `json:"phone"`
}

func (SendOTPResponse) Message() string {
	return "OTP sent successfully"
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type UserVerifyOTPResponse struct {
	Token           string                 `json:"token"`
	RegistrationKey entity.RegistrationKey `json:"registration_key"`
}

func (UserVerifyOTPResponse) Message() string {
	return "OTP Verified Successfully"
}

type AdminVerifyOTPResponse struct {
	Token string `json:"token"`
}

func (AdminVerifyOTPResponse) Message() string {
	return "OTP Verified Successfully, welcome to your Dashboard."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Email string `json:"email"`
}

func (LoginResponse) Message() string {
	return "OTP sent successfully, Please check your Email"
}

type LoginVerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type LoginVerifyResponse struct {
	Token string `json:"token"`
}

func (LoginVerifyResponse) Message() string {
	return "Login successful, welcome to your Dashboard."
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Successfully logged out"
}

func (LogoutResponse) Payload() any {
	return nil
}

type PasswordChangeRequest struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

type PasswordChangeResponse struct{}

func (PasswordChangeResponse) Message() string {
	return "Password changed successfully."
}

func (PasswordChangeResponse) Payload() any {
	return nil
}

type RegisterResponse struct {
	Token string `json:"token"`
}

func (RegisterResponse) Message() string {
	return "User registered successfully. Password sent via Email."
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

type AdminCreateRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Role        int    `json:"role"`
	Gender      string `json:"gender"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
	EmployeeID  string `json:"employee_id"`
}

type AdminCreateResponse struct {
	ID int64 `json:"id,string"`
}

func (AdminCreateResponse) Message() string {
	return "Admin created and email sent successfully."
}

func (AdminCreateResponse) StatusCode() int {
	return http.StatusCreated
}

type UserCreateRequest struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	UserType  int    `json:"user_type"`
	Email     string `json:"email"`
	PANNumber string `json:"pan_number"`
}

type UserCreateResponse struct {
	ID int64 `json:"id,string"`
}

func (UserCreateResponse) Message() string {
	return "Admin User created and email sent successfully."
}

func (UserCreateResponse) StatusCode() int {
	return http.StatusCreated
}

type AdminResponse struct {
	ID          int64       `json:"id,string"`
	FullName    string      `json:"full_name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Role        entity.Role `json:"role"`
	Designation string      `json:"designation,omitempty"`
	Department  string      `json:"department,omitempty"`
	EmployeeID  string      `json:"employee_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type UserResponse struct {
	ID          int64           `json:"id,string"`
	FullName    string          `json:"full_name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	UserType    entity.UserType `json:"user_type,omitempty"`
	IsVerified  bool            `json:"is_verified"`
	ProfileLogo string          `json:"profile_logo,omitempty"`
	AdminID     *int64          `json:"admin_id,string,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DashboardResponse carries users only for roles that may see them, so an
// empty list and a hidden list stay distinguishable.
type DashboardResponse struct {
	Admins []AdminResponse
	Users  []UserResponse
}

func (DashboardResponse) Message() string {
	return "Dashboard data retrieved successfully."
}

func (r DashboardResponse) Payload() any {
	data := map[string]any{"admins": r.Admins}
	if r.Users != nil {
		data["users"] = r.Users
	}
	return data
}
