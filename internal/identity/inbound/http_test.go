package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/stretchr/testify/require"
)

type stubUC struct {
	register   usecase.UserRegisterInput
	docBodies  map[string]string
	adminInput usecase.AdminCreateInput
	dashboard  *usecase.DashboardOutput
	verifyErr  error
}

func (s *stubUC) UserSendOTP(_ context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error) {
	return &usecase.SendOTPOutput{MaskedPhone: entity.MaskPhone(in.Phone)}, nil
}

func (s *stubUC) UserVerifyOTP(context.Context, usecase.VerifyOTPInput) (*usecase.UserVerifyOTPOutput, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &usecase.UserVerifyOTPOutput{Token: "tok", RegistrationKey: entity.RegistrationRequired}, nil
}

func (s *stubUC) UserRegister(_ context.Context, in usecase.UserRegisterInput) (*usecase.UserRegisterOutput, error) {
	s.register = in
	s.docBodies = map[string]string{}
	for name, d := range map[string]*usecase.Document{
		entity.DocAddressProof:  in.AddressProof,
		entity.DocIdentityProof: in.IdentityProof,
		entity.DocProfileLogo:   in.ProfileLogo,
	} {
		if d == nil {
			continue
		}
		b, err := io.ReadAll(d.Content)
		if err != nil {
			return nil, err
		}
		s.docBodies[name] = string(b)
	}
	return &usecase.UserRegisterOutput{Token: "fresh"}, nil
}

func (s *stubUC) UserLogin(context.Context, usecase.LoginInput) (*usecase.LoginOutput, error) {
	return &usecase.LoginOutput{MaskedEmail: "u***@example.com"}, nil
}

func (s *stubUC) UserLoginVerify(context.Context, usecase.LoginVerifyInput) (*usecase.LoginVerifyOutput, error) {
	return &usecase.LoginVerifyOutput{Token: "tok"}, nil
}

func (s *stubUC) AdminSendOTP(_ context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error) {
	return &usecase.SendOTPOutput{MaskedPhone: entity.MaskPhone(in.Phone)}, nil
}

func (s *stubUC) AdminVerifyOTP(context.Context, usecase.VerifyOTPInput) (*usecase.AdminVerifyOTPOutput, error) {
	return &usecase.AdminVerifyOTPOutput{Token: "tok"}, nil
}

func (s *stubUC) AdminLogin(context.Context, usecase.LoginInput) (*usecase.LoginOutput, error) {
	return &usecase.LoginOutput{MaskedEmail: "a***@example.com"}, nil
}

func (s *stubUC) AdminLoginVerify(context.Context, usecase.LoginVerifyInput) (*usecase.LoginVerifyOutput, error) {
	return &usecase.LoginVerifyOutput{Token: "tok"}, nil
}

func (s *stubUC) Logout(context.Context, entity.Variant) error { return nil }

func (s *stubUC) PasswordChange(context.Context, entity.Variant, usecase.PasswordChangeInput) error {
	return nil
}

func (s *stubUC) Dashboard(context.Context) (*usecase.DashboardOutput, error) {
	return s.dashboard, nil
}

func (s *stubUC) AdminCreate(_ context.Context, in usecase.AdminCreateInput) (*usecase.AdminCreateOutput, error) {
	s.adminInput = in
	return &usecase.AdminCreateOutput{ID: 42}, nil
}

func (s *stubUC) UserCreate(context.Context, usecase.UserCreateInput) (*usecase.UserCreateOutput, error) {
	return &usecase.UserCreateOutput{ID: 43}, nil
}

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    map[string]any    `json:"data"`
	Error   map[string]string `json:"error"`
}

type harness struct {
	handler http.Handler
	jwt     jwt.JWT
	uc      *stubUC
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: otpgate\n"))
	require.NoError(t, err)

	tok, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("s", 64)),
		Issuer: "otpgate",
		TTL:    time.Hour,
		Clock:  clock.New(),
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:          cfg,
		UUID:            uid.NewUUID(),
		JWT:             tok,
		Instrument:      instrument.NewNoop(),
		PublicEndpoints: PublicEndpoints(),
	})
	st := &stubUC{}
	RegisterHTTPEndpoint(r, st)

	return &harness{handler: r, jwt: tok, uc: st}
}

func (h *harness) token(t *testing.T, v entity.Variant, role entity.Role) string {
	t.Helper()
	s, err := h.jwt.Generate(jwt.Subject{ID: 7, Variant: v.String(), Role: int(role)})
	require.NoError(t, err)
	return s
}

func (h *harness) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func jsonRequest(method, path, body, token string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestPublicOTPEndpoints(t *testing.T) {
	h := newHarness(t)

	t.Run("SendOTP", func(t *testing.T) {
		code, env := h.do(t, jsonRequest(http.MethodPost, "/api/v1/users/otp/send", `{"phone":"9000000001"}`, ""))

		require.Equal(t, http.StatusOK, code)
		require.True(t, env.Status)
		require.Equal(t, "OTP sent successfully", env.Message)
		require.Equal(t, "900XXXXX01", env.Data["phone"])
	})

	t.Run("VerifyOTP", func(t *testing.T) {
		code, env := h.do(t, jsonRequest(http.MethodPost, "/api/v1/users/otp/verify", `{"phone":"9000000001","otp":"123456"}`, ""))

		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "tok", env.Data["token"])
		require.EqualValues(t, 2, env.Data["registration_key"])
	})

	t.Run("VerifyOTPExpired", func(t *testing.T) {
		h.uc.verifyErr = goerror.NewBusiness("The OTP has expired. Please request a new one.", goerror.CodeExpired)
		defer func() { h.uc.verifyErr = nil }()

		code, env := h.do(t, jsonRequest(http.MethodPost, "/api/v1/users/otp/verify", `{"phone":"9000000001","otp":"123456"}`, ""))

		require.Equal(t, http.StatusUnauthorized, code)
		require.False(t, env.Status)
		require.Equal(t, "The OTP has expired. Please request a new one.", env.Message)
	})

	t.Run("UnknownField", func(t *testing.T) {
		code, env := h.do(t, jsonRequest(http.MethodPost, "/api/v1/admins/otp/send", `{"phone":"9000000001","x":1}`, ""))

		require.Equal(t, http.StatusBadRequest, code)
		require.False(t, env.Status)
	})
}

func TestSessionEndpoints(t *testing.T) {
	h := newHarness(t)

	t.Run("LogoutNeedsToken", func(t *testing.T) {
		code, _ := h.do(t, jsonRequest(http.MethodPost, "/api/v1/users/logout", `{}`, ""))
		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("UserLogout", func(t *testing.T) {
		code, env := h.do(t, jsonRequest(http.MethodPost, "/api/v1/users/logout", `{}`, h.token(t, entity.VariantUser, 0)))

		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "Successfully logged out", env.Message)
		require.Nil(t, env.Data)
	})

	t.Run("UserTokenOnAdminRoute", func(t *testing.T) {
		code, _ := h.do(t, httptestGet("/api/v1/admins/dashboard", h.token(t, entity.VariantUser, 0)))
		require.Equal(t, http.StatusForbidden, code)
	})

	t.Run("AdminTokenOnUserRoute", func(t *testing.T) {
		body := `{"current_password":"a","new_password":"b","new_password_confirmation":"b"}`
		code, _ := h.do(t, jsonRequest(http.MethodPost, "/api/v1/users/password", body, h.token(t, entity.VariantAdmin, entity.RoleAccounts)))
		require.Equal(t, http.StatusForbidden, code)
	})
}

func TestDashboardEndpoint(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, entity.VariantAdmin, entity.RoleSuperAdmin)

	t.Run("UsersKeyOmitted", func(t *testing.T) {
		h.uc.dashboard = &usecase.DashboardOutput{
			Role:   entity.RoleSuperAdmin,
			Admins: []entity.AdminSummary{{ID: 1, Role: entity.RoleSuperAdmin}},
		}

		code, env := h.do(t, httptestGet("/api/v1/admins/dashboard", tok))

		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "Dashboard data retrieved successfully.", env.Message)
		require.Len(t, env.Data["admins"], 1)
		require.NotContains(t, env.Data, "users")
	})

	t.Run("EmptyUsersKept", func(t *testing.T) {
		h.uc.dashboard = &usecase.DashboardOutput{
			Role:   entity.RoleSupportExecutive,
			Admins: []entity.AdminSummary{},
			Users:  []entity.UserSummary{},
		}

		_, env := h.do(t, httptestGet("/api/v1/admins/dashboard", tok))

		require.Contains(t, env.Data, "users")
		require.Empty(t, env.Data["users"])
	})
}

func TestAdminCreateEndpoint(t *testing.T) {
	h := newHarness(t)
	body := `{"full_name":"Asha","email":"asha@example.com","phone":"9200000001","role":3,"gender":"Female","designation":"Accountant","department":"Finance","employee_id":"E1"}`
	req := jsonRequest(http.MethodPost, "/api/v1/admins", body, h.token(t, entity.VariantAdmin, entity.RoleSuperAdmin))
	req.Header.Set(HeaderIdempotencyKey, "req-9")

	code, env := h.do(t, req)

	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "Admin created and email sent successfully.", env.Message)
	require.Equal(t, "42", env.Data["id"])
	require.Equal(t, "req-9", h.uc.adminInput.IdempotencyKey)
	require.Equal(t, 3, h.uc.adminInput.Role)
}

func TestUserRegisterEndpoint(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"full_name":            "Meera Iyer",
		"email":                "meera@example.com",
		"user_type":            "1",
		"gender":               "Female",
		"dob_or_incorporation": "1990-05-17",
		"aadhaar_number":       "123412341234",
		"pan_number":           "ABCDE1234F",
		"address_line":         " 12 MG Road ",
		"state":                "Karnataka",
		"city":                 "Bengaluru",
		"pincode":              "560001",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range map[string]string{
		entity.DocAddressProof:  "pdf-bytes",
		entity.DocIdentityProof: "png-bytes",
	} {
		fw, err := mw.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.token(t, entity.VariantUser, 0))

	code, env := h.do(t, req)

	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "fresh", env.Data["token"])
	require.Equal(t, "12 MG Road", h.uc.register.AddressLine)
	require.Equal(t, "1", h.uc.register.UserType)
	require.Nil(t, h.uc.register.ProfileLogo)
	require.Equal(t, "pdf-bytes", h.uc.docBodies[entity.DocAddressProof])
	require.Equal(t, "address_proof.png", h.uc.register.AddressProof.Filename)
}

func httptestGet(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
