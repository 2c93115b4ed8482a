package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("UserEmailOTP", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		user := f.seedUser(t, "9000000001", "user@example.com", "Secret#12")

		// Act
		out, err := f.uc.UserLogin(ctx, LoginInput{Email: "User@Example.com", Password: "Secret#12"})

		// Assert
		require.NoError(t, err)
		require.Equal(t, "u***@example.com", out.MaskedEmail)
		n := f.notifier.last()
		require.Equal(t, entity.ChannelEmail, n.Channel)
		require.Equal(t, "user@example.com", n.Destination)
		require.Equal(t, "Your login OTP", n.Subject)
		require.Contains(t, n.Body, "123456")

		verified, err := f.uc.UserLoginVerify(ctx, LoginVerifyInput{Email: "user@example.com", OTP: "123456"})
		require.NoError(t, err)
		clm, err := f.jwt.Verify(verified.Token)
		require.NoError(t, err)
		require.Equal(t, user.ID, clm.PrincipalID)
	})

	t.Run("AdminEmailOTPCarriesRole", func(t *testing.T) {
		f := newFixture(t)
		f.seedAdmin(t, entity.RoleAccounts, "9100000003", "acc@example.com", "Secret#12")

		_, err := f.uc.AdminLogin(ctx, LoginInput{Email: "acc@example.com", Password: "Secret#12"})
		require.NoError(t, err)

		out, err := f.uc.AdminLoginVerify(ctx, LoginVerifyInput{Email: "acc@example.com", OTP: "123456"})
		require.NoError(t, err)
		clm, err := f.jwt.Verify(out.Token)
		require.NoError(t, err)
		require.Equal(t, int(entity.RoleAccounts), clm.Role)
	})

	t.Run("LoginCodeLivesTenMinutes", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "9000000001", "user@example.com", "Secret#12")
		_, err := f.uc.UserLogin(ctx, LoginInput{Email: "user@example.com", Password: "Secret#12"})
		require.NoError(t, err)

		f.clock.Advance(10*time.Minute + time.Second)
		_, err = f.uc.UserLoginVerify(ctx, LoginVerifyInput{Email: "user@example.com", OTP: "123456"})

		requireCode(t, err, goerror.CodeExpired)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "9000000001", "user@example.com", "Secret#12")

		_, err := f.uc.UserLogin(ctx, LoginInput{Email: "user@example.com", Password: "Wrong#123"})

		requireCode(t, err, goerror.CodeInvalidCredential)
		require.Zero(t, f.notifier.count())
	})

	t.Run("UnknownEmailLooksTheSame", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.UserLogin(ctx, LoginInput{Email: "ghost@example.com", Password: "Secret#12"})

		requireCode(t, err, goerror.CodeInvalidCredential)
		require.Equal(t, "Invalid credentials", goerror.As(err).Msg())
	})

	t.Run("AccountWithoutPassword", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "9000000001", "user@example.com", "")

		_, err := f.uc.UserLogin(ctx, LoginInput{Email: "user@example.com", Password: "Secret#12"})

		requireCode(t, err, goerror.CodeInvalidCredential)
	})

	t.Run("EmailDeliveryFailure", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "9000000001", "user@example.com", "Secret#12")
		f.notifier.fail(errors.New("smtp: 554"))

		_, err := f.uc.UserLogin(ctx, LoginInput{Email: "user@example.com", Password: "Secret#12"})

		requireCode(t, err, goerror.CodeDeliveryFailed)
		require.Equal(t, "Failed to send OTP. Please try again.", goerror.As(err).Msg())
	})

	t.Run("VerifyUnknownEmail", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.AdminLoginVerify(ctx, LoginVerifyInput{Email: "ghost@example.com", OTP: "123456"})

		requireCode(t, err, goerror.CodeNotFound)
		require.Equal(t, "Admin not found", goerror.As(err).Msg())
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "9000000001", "user@example.com", "")
	admin := f.seedAdmin(t, entity.RoleSuperAdmin, "9100000001", "root@example.com", "")

	require.NoError(t, f.uc.Logout(asPrincipal(ctx, user), entity.VariantUser))
	require.NoError(t, f.uc.Logout(asPrincipal(ctx, admin), entity.VariantAdmin))

	requireCode(t, f.uc.Logout(ctx, entity.VariantUser), goerror.CodeUnauthorized)
	requireCode(t, f.uc.Logout(asPrincipal(ctx, user), entity.VariantAdmin), goerror.CodeForbidden)
}

func TestPasswordChange(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		user := f.seedUser(t, "9000000001", "user@example.com", "Old#pass1")
		uctx := asPrincipal(ctx, user)

		// Act
		err := f.uc.PasswordChange(uctx, entity.VariantUser, PasswordChangeInput{
			CurrentPassword:         "Old#pass1",
			NewPassword:             "New#pass2",
			NewPasswordConfirmation: "New#pass2",
		})

		// Assert
		require.NoError(t, err)

		_, err = f.uc.UserLogin(ctx, LoginInput{Email: "user@example.com", Password: "Old#pass1"})
		requireCode(t, err, goerror.CodeInvalidCredential)

		_, err = f.uc.UserLogin(ctx, LoginInput{Email: "user@example.com", Password: "New#pass2"})
		require.NoError(t, err)

		err = f.uc.PasswordChange(uctx, entity.VariantUser, PasswordChangeInput{
			CurrentPassword:         "Old#pass1",
			NewPassword:             "Other#pass3",
			NewPasswordConfirmation: "Other#pass3",
		})
		requireCode(t, err, goerror.CodeInvalidCredential)
	})

	t.Run("Admin", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedAdmin(t, entity.RoleAccounts, "9100000003", "acc@example.com", "Old#pass1")

		err := f.uc.PasswordChange(asPrincipal(ctx, admin), entity.VariantAdmin, PasswordChangeInput{
			CurrentPassword:         "Old#pass1",
			NewPassword:             "New#pass2",
			NewPasswordConfirmation: "New#pass2",
		})

		require.NoError(t, err)
		stored := f.repo.get(entity.VariantAdmin, admin.ID)
		require.True(t, f.password.Verify(stored.PasswordHash, "New#pass2"))
	})

	t.Run("Rejections", func(t *testing.T) {
		f := newFixture(t)
		user := f.seedUser(t, "9000000001", "user@example.com", "Old#pass1")
		uctx := asPrincipal(ctx, user)

		tests := []struct {
			name string
			in   PasswordChangeInput
			code goerror.Code
		}{
			{
				name: "confirmation mismatch",
				in:   PasswordChangeInput{CurrentPassword: "Old#pass1", NewPassword: "New#pass2", NewPasswordConfirmation: "New#pass3"},
				code: goerror.CodeInvalidInput,
			},
			{
				name: "too few classes",
				in:   PasswordChangeInput{CurrentPassword: "Old#pass1", NewPassword: "abcdefgh", NewPasswordConfirmation: "abcdefgh"},
				code: goerror.CodeWeakPassword,
			},
			{
				name: "too short",
				in:   PasswordChangeInput{CurrentPassword: "Old#pass1", NewPassword: "A#1a", NewPasswordConfirmation: "A#1a"},
				code: goerror.CodeWeakPassword,
			},
			{
				name: "same as current",
				in:   PasswordChangeInput{CurrentPassword: "Old#pass1", NewPassword: "Old#pass1", NewPasswordConfirmation: "Old#pass1"},
				code: goerror.CodeWeakPassword,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := f.uc.PasswordChange(uctx, entity.VariantUser, tt.in)
				requireCode(t, err, tt.code)
			})
		}

		stored := f.repo.get(entity.VariantUser, user.ID)
		require.True(t, f.password.Verify(stored.PasswordHash, "Old#pass1"))
	})

	t.Run("NoSession", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.PasswordChange(ctx, entity.VariantUser, PasswordChangeInput{
			CurrentPassword: "Old#pass1", NewPassword: "New#pass2", NewPasswordConfirmation: "New#pass2",
		})

		requireCode(t, err, goerror.CodeUnauthorized)
	})
}
