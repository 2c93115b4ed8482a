package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/authz"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/secret"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

const testConfig = `
modules:
  identity:
    otp:
      phone_ttl_minutes: 5
      login_ttl_minutes: 10
      max_attempts: 3
storage:
  bucket: documents
  presign_ttl_minutes: 15
`

type memRepo struct {
	mu         sync.Mutex
	principals map[entity.Variant]map[int64]*entity.Principal
	admins     map[int64]entity.NewAdmin
	profiles   map[int64]entity.UserProfile
	created    map[int64]entity.NewUser
}

func newMemRepo() *memRepo {
	return &memRepo{
		principals: map[entity.Variant]map[int64]*entity.Principal{
			entity.VariantUser:  {},
			entity.VariantAdmin: {},
		},
		admins:   map[int64]entity.NewAdmin{},
		profiles: map[int64]entity.UserProfile{},
		created:  map[int64]entity.NewUser{},
	}
}

func clonePrincipal(p *entity.Principal) *entity.Principal {
	cp := *p
	if p.PendingOTP != nil {
		otp := *p.PendingOTP
		cp.PendingOTP = &otp
	}
	return &cp
}

func (m *memRepo) put(p *entity.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.principals[p.Variant][p.ID] = clonePrincipal(p)
}

func (m *memRepo) get(v entity.Variant, id int64) *entity.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[v][id]
	if !ok {
		return nil
	}
	return clonePrincipal(p)
}

func (m *memRepo) find(v entity.Variant, match func(*entity.Principal) bool) (*entity.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals[v] {
		if match(p) {
			return clonePrincipal(p), nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memRepo) FindPrincipalByPhone(_ context.Context, v entity.Variant, phone string) (*entity.Principal, error) {
	return m.find(v, func(p *entity.Principal) bool { return p.Phone == phone })
}

func (m *memRepo) FindPrincipalByEmail(_ context.Context, v entity.Variant, email string) (*entity.Principal, error) {
	return m.find(v, func(p *entity.Principal) bool { return p.Email != "" && p.Email == email })
}

func (m *memRepo) FindPrincipalByID(_ context.Context, v entity.Variant, id int64) (*entity.Principal, error) {
	if p := m.get(v, id); p != nil {
		return p, nil
	}
	return nil, goerror.ErrNotFound
}

func (m *memRepo) FindOrCreateUserByPhone(_ context.Context, newID int64, phone string) (*entity.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals[entity.VariantUser] {
		if p.Phone == phone {
			return clonePrincipal(p), nil
		}
	}
	p := &entity.Principal{ID: newID, Variant: entity.VariantUser, Phone: phone}
	m.principals[entity.VariantUser][newID] = p
	return clonePrincipal(p), nil
}

func (m *memRepo) SetPendingOTP(_ context.Context, v entity.Variant, id int64, otp entity.PendingOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[v][id]
	if !ok {
		return goerror.ErrNotFound
	}
	otp.Attempts = 0
	p.PendingOTP = &otp
	p.IsVerified = false
	return nil
}

func (m *memRepo) ConsumePendingOTP(_ context.Context, v entity.Variant, id int64, codeHash string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[v][id]
	if !ok || p.PendingOTP == nil || p.PendingOTP.CodeHash != codeHash || p.PendingOTP.ExpiredAt(now) {
		return false, nil
	}
	p.PendingOTP = nil
	p.IsVerified = true
	return true, nil
}

func (m *memRepo) IncrementOTPAttempts(_ context.Context, v entity.Variant, id int64, codeHash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[v][id]
	if !ok || p.PendingOTP == nil || p.PendingOTP.CodeHash != codeHash {
		return 0, nil
	}
	p.PendingOTP.Attempts++
	return p.PendingOTP.Attempts, nil
}

func (m *memRepo) ClearPendingOTP(_ context.Context, v entity.Variant, id int64, codeHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[v][id]
	if ok && p.PendingOTP != nil && p.PendingOTP.CodeHash == codeHash {
		p.PendingOTP = nil
	}
	return nil
}

func (m *memRepo) CompleteUserProfile(_ context.Context, in entity.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals[entity.VariantUser] {
		if p.ID != in.UserID && p.Email == in.Email {
			return goerror.ErrConflict
		}
	}
	p, ok := m.principals[entity.VariantUser][in.UserID]
	if !ok {
		return goerror.ErrNotFound
	}
	p.Email = in.Email
	p.FullName = in.FullName
	p.PasswordHash = in.PasswordHash
	p.IsVerified = true
	m.profiles[in.UserID] = in
	return nil
}

func (m *memRepo) CreateAdmin(_ context.Context, in entity.NewAdmin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals[entity.VariantAdmin] {
		if p.Email == in.Email || p.Phone == in.Phone {
			return goerror.ErrConflict
		}
	}
	m.principals[entity.VariantAdmin][in.ID] = &entity.Principal{
		ID:           in.ID,
		Variant:      entity.VariantAdmin,
		Phone:        in.Phone,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		IsVerified:   true,
	}
	m.admins[in.ID] = in
	return nil
}

func (m *memRepo) CreateUser(_ context.Context, in entity.NewUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals[entity.VariantUser] {
		if p.Email == in.Email || p.Phone == in.Phone {
			return goerror.ErrConflict
		}
	}
	m.principals[entity.VariantUser][in.ID] = &entity.Principal{
		ID:           in.ID,
		Variant:      entity.VariantUser,
		Phone:        in.Phone,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: in.PasswordHash,
		IsVerified:   true,
	}
	m.created[in.ID] = in
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, v entity.Variant, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[v][id]
	if !ok {
		return goerror.ErrNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (m *memRepo) ListAdminsByRoles(_ context.Context, roles []entity.Role) ([]entity.AdminSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.AdminSummary
	for _, p := range m.principals[entity.VariantAdmin] {
		if slices.Contains(roles, p.Role) {
			out = append(out, entity.AdminSummary{ID: p.ID, FullName: p.FullName, Email: p.Email, Phone: p.Phone, Role: p.Role})
		}
	}
	slices.SortFunc(out, func(a, b entity.AdminSummary) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *memRepo) ListUsers(_ context.Context) ([]entity.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.UserSummary
	for _, p := range m.principals[entity.VariantUser] {
		u := entity.UserSummary{ID: p.ID, FullName: p.FullName, Email: p.Email, Phone: p.Phone, IsVerified: p.IsVerified}
		if prof, ok := m.profiles[p.ID]; ok {
			u.ProfileLogo = prof.ProfileLogo
		}
		if nu, ok := m.created[p.ID]; ok {
			u.AdminID = lo.ToPtr(nu.AdminID)
			u.UserType = nu.UserType
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b entity.UserSummary) int { return int(a.ID - b.ID) })
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeNotifier) last() Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return Notification{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeBus struct {
	mu          sync.Mutex
	verified    []PrincipalVerifiedEvent
	provisioned []PrincipalProvisionedEvent
}

func (f *fakeBus) PublishPrincipalVerified(_ context.Context, ev PrincipalVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, ev)
	return nil
}

func (f *fakeBus) PublishPrincipalProvisioned(_ context.Context, ev PrincipalProvisionedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisioned = append(f.provisioned, ev)
	return nil
}

// seqOTP hands out codes in order and repeats the last one.
type seqOTP struct {
	mu    sync.Mutex
	codes []string
}

func (s *seqOTP) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return "", errors.New("no codes left")
	}
	code := s.codes[0]
	if len(s.codes) > 1 {
		s.codes = s.codes[1:]
	}
	return code, nil
}

func (s *seqOTP) set(codes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = codes
}

type fixture struct {
	uc       *Usecase
	repo     *memRepo
	notifier *fakeNotifier
	bus      *fakeBus
	otp      *seqOTP
	clock    *clock.Frozen
	jwt      jwt.JWT
	storage  *storage.Memory
	password hash.Hash
	ids      int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	az, err := authz.New(lo.Map(entity.Permissions(), func(p entity.Permission, _ int) authz.Policy {
		return authz.Policy{Subject: p.Role.Subject(), Object: p.Object, Action: p.Action}
	}))
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := clock.NewFrozen(testNow)
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:    "otpgate",
		Audiences: []string{"otpgate"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	f := &fixture{
		repo:     newMemRepo(),
		notifier: &fakeNotifier{},
		bus:      &fakeBus{},
		otp:      &seqOTP{codes: []string{"123456"}},
		clock:    clk,
		jwt:      tokens,
		storage:  storage.NewMemory("http://files.test/"),
		password: hash.NewBcrypt(4, ""),
		ids:      100,
	}

	f.uc = New(Dependency{
		RepoDB:        f.repo,
		RepoNotifier:  f.notifier,
		RepoMessaging: f.bus,
		Validator:     v,
		Config:        cfg,
		Storage:       f.storage,
		Authorizer:    az,
		HMAC:          hash.NewHMACSHA256("otp-test-secret"),
		Password:      f.password,
		OTP:           f.otp,
		Secret:        secret.NewRandom(),
		UID:           sf,
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
	})

	return f
}

func (f *fixture) nextID() int64 {
	f.ids++
	return f.ids
}

func (f *fixture) hashPassword(t *testing.T, plain string) string {
	t.Helper()
	h, err := f.password.Hash(plain)
	require.NoError(t, err)
	return string(h)
}

func (f *fixture) seedAdmin(t *testing.T, role entity.Role, phone, email, password string) *entity.Principal {
	t.Helper()
	p := &entity.Principal{
		ID:         f.nextID(),
		Variant:    entity.VariantAdmin,
		Phone:      phone,
		Email:      email,
		FullName:   "Admin " + phone,
		Role:       role,
		IsVerified: true,
	}
	if password != "" {
		p.PasswordHash = f.hashPassword(t, password)
	}
	f.repo.put(p)
	return p
}

func (f *fixture) seedUser(t *testing.T, phone, email, password string) *entity.Principal {
	t.Helper()
	p := &entity.Principal{
		ID:         f.nextID(),
		Variant:    entity.VariantUser,
		Phone:      phone,
		Email:      email,
		FullName:   "User " + phone,
		IsVerified: true,
	}
	if password != "" {
		p.PasswordHash = f.hashPassword(t, password)
	}
	f.repo.put(p)
	return p
}

func asPrincipal(ctx context.Context, p *entity.Principal) context.Context {
	return jwt.SetAuth(ctx, jwt.Claims{PrincipalID: p.ID, Variant: p.Variant.String(), Role: int(p.Role)})
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	require.Error(t, err)
	gerr := goerror.As(err)
	require.NotNil(t, gerr, "expected goerror, got %v", err)
	require.Equal(t, code, gerr.Code(), gerr.Msg())
}
