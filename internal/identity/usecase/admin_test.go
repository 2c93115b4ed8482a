package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*fixture, map[entity.Role]*entity.Principal) {
		f := newFixture(t)
		admins := map[entity.Role]*entity.Principal{
			entity.RoleSuperAdmin:       f.seedAdmin(t, entity.RoleSuperAdmin, "9100000001", "root@example.com", ""),
			entity.RoleSupportExecutive: f.seedAdmin(t, entity.RoleSupportExecutive, "9100000002", "se@example.com", ""),
			entity.RoleAccounts:         f.seedAdmin(t, entity.RoleAccounts, "9100000003", "acc@example.com", ""),
		}
		f.seedUser(t, "9000000001", "u1@example.com", "")
		f.seedUser(t, "9000000002", "u2@example.com", "")
		return f, admins
	}

	roles := func(list []entity.AdminSummary) []entity.Role {
		return lo.Uniq(lo.Map(list, func(a entity.AdminSummary, _ int) entity.Role { return a.Role }))
	}

	t.Run("SuperAdminSeesAllAdmins", func(t *testing.T) {
		f, admins := seed(t)

		out, err := f.uc.Dashboard(asPrincipal(ctx, admins[entity.RoleSuperAdmin]))

		require.NoError(t, err)
		require.Len(t, out.Admins, 3)
		require.ElementsMatch(t, entity.Roles, roles(out.Admins))
		require.Nil(t, out.Users)
	})

	t.Run("SupportExecutiveSeesPeersAndUsers", func(t *testing.T) {
		f, admins := seed(t)

		out, err := f.uc.Dashboard(asPrincipal(ctx, admins[entity.RoleSupportExecutive]))

		require.NoError(t, err)
		require.Equal(t, []entity.Role{entity.RoleSupportExecutive}, roles(out.Admins))
		require.Len(t, out.Users, 2)
	})

	t.Run("AccountsSeesPeersOnly", func(t *testing.T) {
		f, admins := seed(t)

		out, err := f.uc.Dashboard(asPrincipal(ctx, admins[entity.RoleAccounts]))

		require.NoError(t, err)
		require.Equal(t, []entity.Role{entity.RoleAccounts}, roles(out.Admins))
		require.Nil(t, out.Users)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		f, _ := seed(t)
		odd := f.seedAdmin(t, entity.Role(4), "9100000004", "odd@example.com", "")

		_, err := f.uc.Dashboard(asPrincipal(ctx, odd))

		requireCode(t, err, goerror.CodeInvalidRole)
		require.Equal(t, "Invalid role assigned.", goerror.As(err).Msg())
	})

	t.Run("UserTokenIsForbidden", func(t *testing.T) {
		f, _ := seed(t)
		user := f.seedUser(t, "9000000003", "u3@example.com", "")

		_, err := f.uc.Dashboard(asPrincipal(ctx, user))

		requireCode(t, err, goerror.CodeForbidden)
	})

	t.Run("ProfileLogoIsPresigned", func(t *testing.T) {
		f, admins := seed(t)
		user := f.seedUser(t, "9000000004", "", "")
		f.repo.profiles[user.ID] = entity.UserProfile{UserID: user.ID, ProfileLogo: "profile_logo/1/1_logo.png"}
		_, err := f.storage.PutObject(ctx, "documents", "profile_logo/1/1_logo.png", strings.NewReader("png"), storage.PutOptions{Size: 3})
		require.NoError(t, err)

		out, err := f.uc.Dashboard(asPrincipal(ctx, admins[entity.RoleSupportExecutive]))

		require.NoError(t, err)
		u, ok := lo.Find(out.Users, func(u entity.UserSummary) bool { return u.ID == user.ID })
		require.True(t, ok)
		require.True(t, strings.HasPrefix(u.ProfileLogo, "http://files.test/documents/"), u.ProfileLogo)
		require.Contains(t, u.ProfileLogo, "expires=15m0s")
	})
}

func TestAdminCreate(t *testing.T) {
	ctx := context.Background()
	input := AdminCreateInput{
		FullName:    "Asha Rao",
		Email:       "asha@example.com",
		Phone:       "9200000001",
		Role:        int(entity.RoleAccounts),
		Gender:      "Female",
		Designation: "Accountant",
		Department:  "Finance",
		EmployeeID:  "EMP-001",
	}

	t.Run("SuperAdminProvisions", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		root := f.seedAdmin(t, entity.RoleSuperAdmin, "9100000001", "root@example.com", "")

		// Act
		out, err := f.uc.AdminCreate(asPrincipal(ctx, root), input)

		// Assert
		require.NoError(t, err)
		stored := f.repo.get(entity.VariantAdmin, out.ID)
		require.NotNil(t, stored)
		require.Equal(t, entity.RoleAccounts, stored.Role)

		mail := f.notifier.last()
		require.Equal(t, entity.ChannelEmail, mail.Channel)
		require.Equal(t, "asha@example.com", mail.Destination)
		require.Equal(t, "Your Admin Account Password", mail.Subject)
		require.Len(t, f.bus.provisioned, 1)
		require.Equal(t, root.ID, f.bus.provisioned[0].CreatedBy)

		// the mailed password works for login
		_, err = f.uc.AdminLogin(ctx, LoginInput{Email: "asha@example.com", Password: mailedPassword(t, mail.Body)})
		require.NoError(t, err)
	})

	t.Run("OtherRolesForbidden", func(t *testing.T) {
		f := newFixture(t)
		se := f.seedAdmin(t, entity.RoleSupportExecutive, "9100000002", "se@example.com", "")

		_, err := f.uc.AdminCreate(asPrincipal(ctx, se), input)

		requireCode(t, err, goerror.CodeForbidden)
		require.Equal(t, "Unauthorized access.", goerror.As(err).Msg())
	})

	t.Run("RoleOutOfRange", func(t *testing.T) {
		f := newFixture(t)
		root := f.seedAdmin(t, entity.RoleSuperAdmin, "9100000001", "root@example.com", "")
		in := input
		in.Role = 4

		_, err := f.uc.AdminCreate(asPrincipal(ctx, root), in)

		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("MailFailureAborts", func(t *testing.T) {
		f := newFixture(t)
		root := f.seedAdmin(t, entity.RoleSuperAdmin, "9100000001", "root@example.com", "")
		f.notifier.fail(errors.New("smtp down"))

		_, err := f.uc.AdminCreate(asPrincipal(ctx, root), input)

		requireCode(t, err, goerror.CodeDeliveryFailed)
		_, err = f.repo.FindPrincipalByEmail(ctx, entity.VariantAdmin, "asha@example.com")
		require.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("Duplicate", func(t *testing.T) {
		f := newFixture(t)
		root := f.seedAdmin(t, entity.RoleSuperAdmin, "9100000001", "root@example.com", "")
		f.seedAdmin(t, entity.RoleAccounts, "9200000001", "other@example.com", "")

		_, err := f.uc.AdminCreate(asPrincipal(ctx, root), input)

		requireCode(t, err, goerror.CodeDuplicate)
	})
}

func TestUserCreate(t *testing.T) {
	ctx := context.Background()
	input := UserCreateInput{
		FullName:  "Ravi Kumar",
		Phone:     "9300000001",
		UserType:  int(entity.UserTypeBusiness),
		Email:     "ravi@example.com",
		PANNumber: "ABCDE1234F",
	}

	t.Run("SupportExecutiveProvisions", func(t *testing.T) {
		f := newFixture(t)
		se := f.seedAdmin(t, entity.RoleSupportExecutive, "9100000002", "se@example.com", "")

		out, err := f.uc.UserCreate(asPrincipal(ctx, se), input)

		require.NoError(t, err)
		stored := f.repo.get(entity.VariantUser, out.ID)
		require.True(t, stored.IsVerified)
		require.Equal(t, se.ID, f.repo.created[out.ID].AdminID)
		require.Equal(t, "Your Account Password", f.notifier.last().Subject)

		dash, err := f.uc.Dashboard(asPrincipal(ctx, se))
		require.NoError(t, err)
		u, ok := lo.Find(dash.Users, func(u entity.UserSummary) bool { return u.ID == out.ID })
		require.True(t, ok)
		require.Equal(t, se.ID, *u.AdminID)
	})

	t.Run("SuperAdminForbidden", func(t *testing.T) {
		f := newFixture(t)
		root := f.seedAdmin(t, entity.RoleSuperAdmin, "9100000001", "root@example.com", "")

		_, err := f.uc.UserCreate(asPrincipal(ctx, root), input)

		requireCode(t, err, goerror.CodeForbidden)
	})

	t.Run("IndividualTypeNotAllowed", func(t *testing.T) {
		f := newFixture(t)
		se := f.seedAdmin(t, entity.RoleSupportExecutive, "9100000002", "se@example.com", "")
		in := input
		in.UserType = int(entity.UserTypeIndividual)

		_, err := f.uc.UserCreate(asPrincipal(ctx, se), in)

		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("DuplicatePhone", func(t *testing.T) {
		f := newFixture(t)
		se := f.seedAdmin(t, entity.RoleSupportExecutive, "9100000002", "se@example.com", "")
		f.seedUser(t, "9300000001", "", "")

		_, err := f.uc.UserCreate(asPrincipal(ctx, se), input)

		requireCode(t, err, goerror.CodeDuplicate)
	})
}

func mailedPassword(t *testing.T, body string) string {
	t.Helper()
	_, rest, ok := strings.Cut(body, "temporary password: ")
	require.True(t, ok)
	pw, _, ok := strings.Cut(rest, "\n")
	require.True(t, ok)
	return pw
}
