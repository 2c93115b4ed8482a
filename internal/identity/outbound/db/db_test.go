package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("otpgate"),
		tcpostgres.WithUsername("otpgate"),
		tcpostgres.WithPassword("otpgate"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return NewDB(pool, instrument.NewNoop())
}

func TestDB_PendingOTPLifecycle(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	// Arrange
	user, err := db.FindOrCreateUserByPhone(ctx, 100, "9000000001")
	require.NoError(t, err)
	require.Equal(t, int64(100), user.ID)
	require.Nil(t, user.PendingOTP)

	again, err := db.FindOrCreateUserByPhone(ctx, 101, "9000000001")
	require.NoError(t, err)
	require.Equal(t, int64(100), again.ID)

	require.NoError(t, db.SetPendingOTP(ctx, entity.VariantUser, 100, entity.PendingOTP{
		CodeHash:  "digest-a",
		ExpiresAt: now.Add(5 * time.Minute),
	}))

	t.Run("StoredDigest", func(t *testing.T) {
		p, err := db.FindPrincipalByPhone(ctx, entity.VariantUser, "9000000001")
		require.NoError(t, err)
		require.NotNil(t, p.PendingOTP)
		require.Equal(t, "digest-a", p.PendingOTP.CodeHash)
		require.True(t, now.Add(5*time.Minute).Equal(p.PendingOTP.ExpiresAt))
		require.False(t, p.IsVerified)
	})

	t.Run("MismatchCounts", func(t *testing.T) {
		n, err := db.IncrementOTPAttempts(ctx, entity.VariantUser, 100, "digest-a")
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = db.IncrementOTPAttempts(ctx, entity.VariantUser, 100, "stale")
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("ExpiredIsNotConsumed", func(t *testing.T) {
		ok, err := db.ConsumePendingOTP(ctx, entity.VariantUser, 100, "digest-a", now.Add(6*time.Minute))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("ConsumedOnce", func(t *testing.T) {
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won int
		)
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := db.ConsumePendingOTP(ctx, entity.VariantUser, 100, "digest-a", now)
				if err == nil && ok {
					mu.Lock()
					won++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, won)

		p, err := db.FindPrincipalByID(ctx, entity.VariantUser, 100)
		require.NoError(t, err)
		require.Nil(t, p.PendingOTP)
		require.True(t, p.IsVerified)
	})

	t.Run("ClearOnlyMatchingDigest", func(t *testing.T) {
		require.NoError(t, db.SetPendingOTP(ctx, entity.VariantUser, 100, entity.PendingOTP{
			CodeHash: "digest-b", ExpiresAt: now.Add(time.Minute),
		}))
		require.NoError(t, db.ClearPendingOTP(ctx, entity.VariantUser, 100, "digest-a"))

		p, err := db.FindPrincipalByID(ctx, entity.VariantUser, 100)
		require.NoError(t, err)
		require.NotNil(t, p.PendingOTP)
		require.False(t, p.IsVerified)

		require.NoError(t, db.ClearPendingOTP(ctx, entity.VariantUser, 100, "digest-b"))
		p, err = db.FindPrincipalByID(ctx, entity.VariantUser, 100)
		require.NoError(t, err)
		require.Nil(t, p.PendingOTP)
	})

	t.Run("UnknownPrincipal", func(t *testing.T) {
		err := db.SetPendingOTP(ctx, entity.VariantAdmin, 100, entity.PendingOTP{CodeHash: "x", ExpiresAt: now})
		require.ErrorIs(t, err, goerror.ErrNotFound)

		_, err = db.FindPrincipalByEmail(ctx, entity.VariantUser, "nobody@example.com")
		require.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestDB_Provisioning(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	admin := entity.NewAdmin{
		ID:           1,
		FullName:     "Root Admin",
		Email:        "root@example.com",
		Phone:        "9000000010",
		Role:         entity.RoleSuperAdmin,
		Gender:       entity.GenderFemale,
		EmployeeID:   "EMP-1",
		PasswordHash: "hash-1",
	}
	require.NoError(t, db.CreateAdmin(ctx, admin))

	t.Run("DuplicateAdmin", func(t *testing.T) {
		dup := admin
		dup.ID = 2
		dup.Phone = "9000000011"
		require.ErrorIs(t, db.CreateAdmin(ctx, dup), goerror.ErrConflict)
	})

	t.Run("AdminCredentials", func(t *testing.T) {
		p, err := db.FindPrincipalByEmail(ctx, entity.VariantAdmin, "root@example.com")
		require.NoError(t, err)
		require.Equal(t, entity.RoleSuperAdmin, p.Role)
		require.Equal(t, "hash-1", p.PasswordHash)

		require.NoError(t, db.UpdatePassword(ctx, entity.VariantAdmin, 1, "hash-2"))
		p, err = db.FindPrincipalByID(ctx, entity.VariantAdmin, 1)
		require.NoError(t, err)
		require.Equal(t, "hash-2", p.PasswordHash)
	})

	t.Run("UserProvisionedAndProfiled", func(t *testing.T) {
		require.NoError(t, db.CreateUser(ctx, entity.NewUser{
			ID:           10,
			FullName:     "Agent One",
			Phone:        "9000000020",
			Email:        "agent@example.com",
			UserType:     entity.UserTypeAgent,
			PANNumber:    "ABCDE1234F",
			AdminID:      1,
			PasswordHash: "hash-u",
		}))

		_, err := db.FindOrCreateUserByPhone(ctx, 11, "9000000021")
		require.NoError(t, err)

		err = db.CompleteUserProfile(ctx, entity.UserProfile{
			UserID:             11,
			FullName:           "Jane",
			Email:              "agent@example.com",
			UserType:           entity.UserTypeIndividual,
			DOBOrIncorporation: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
			PasswordHash:       "hash-j",
		})
		require.ErrorIs(t, err, goerror.ErrConflict)

		require.NoError(t, db.CompleteUserProfile(ctx, entity.UserProfile{
			UserID:             11,
			FullName:           "Jane",
			Email:              "jane@example.com",
			UserType:           entity.UserTypeIndividual,
			DOBOrIncorporation: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
			ProfileLogo:        "profile_logo/11/1_logo.png",
			PasswordHash:       "hash-j",
		}))

		p, err := db.FindPrincipalByID(ctx, entity.VariantUser, 11)
		require.NoError(t, err)
		require.True(t, p.Registered())
	})

	t.Run("Listing", func(t *testing.T) {
		require.NoError(t, db.CreateAdmin(ctx, entity.NewAdmin{
			ID: 3, FullName: "Support", Email: "support@example.com", Phone: "9000000012",
			Role: entity.RoleSupportExecutive, EmployeeID: "EMP-3", PasswordHash: "h",
		}))

		admins, err := db.ListAdminsByRoles(ctx, []entity.Role{entity.RoleSupportExecutive})
		require.NoError(t, err)
		require.Len(t, admins, 1)
		require.Equal(t, int64(3), admins[0].ID)

		users, err := db.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)

		byID := map[int64]entity.UserSummary{}
		for _, u := range users {
			byID[u.ID] = u
		}
		require.NotNil(t, byID[10].AdminID)
		require.Equal(t, int64(1), *byID[10].AdminID)
		require.Nil(t, byID[11].AdminID)
		require.Equal(t, "profile_logo/11/1_logo.png", byID[11].ProfileLogo)
	})
}
