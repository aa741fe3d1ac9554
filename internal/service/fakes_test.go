package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/config"
	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
	"github.com/johnlukeG/creator-cto-webkit/internal/security"
	jwtpkg "github.com/johnlukeG/creator-cto-webkit/pkg/jwt"
)

// fakeDB is an in-memory stand-in for the three tables, shared by the fake
// repositories below.
type fakeDB struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*model.Identity
	profiles   map[uuid.UUID]*model.Profile
	settings   map[model.SettingKey]*model.SiteSetting

	listErr       error
	writeErr      error
	failSettingOn map[model.SettingKey]error
	profileReads  int
}

func newFakeDB() *fakeDB {
	db := &fakeDB{
		identities:    make(map[uuid.UUID]*model.Identity),
		profiles:      make(map[uuid.UUID]*model.Profile),
		settings:      make(map[model.SettingKey]*model.SiteSetting),
		failSettingOn: make(map[model.SettingKey]error),
	}
	for _, meta := range model.KnownSettings() {
		raw, _ := meta.Default.Encode()
		db.settings[meta.Key] = &model.SiteSetting{ID: uuid.New(), Key: meta.Key, Value: datatypes.JSON(raw)}
	}
	return db
}

// addUser inserts an identity and its profile created at createdAt.
func (db *fakeDB) addUser(email string, isAdmin bool, createdAt time.Time) uuid.UUID {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := uuid.New()
	confirmed := createdAt
	db.identities[id] = &model.Identity{ID: id, Email: email, EmailConfirmedAt: &confirmed, CreatedAt: createdAt}
	db.profiles[id] = &model.Profile{ID: id, Email: email, IsAdmin: isAdmin, CreatedAt: createdAt}
	return id
}

func (db *fakeDB) profile(id uuid.UUID) model.Profile {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.profiles[id]
}

func (db *fakeDB) setRaw(key model.SettingKey, raw string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.settings[key].Value = datatypes.JSON(raw)
}

func (db *fakeDB) rawSetting(key model.SettingKey) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return string(db.settings[key].Value)
}

type fakeProfileRepo struct{ db *fakeDB }

func (r fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.profileReads++
	if r.db.listErr != nil {
		return nil, r.db.listErr
	}
	p, ok := r.db.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakeProfileRepo) ListNewestFirst(_ context.Context, limit int) ([]model.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.listErr != nil {
		return nil, r.db.listErr
	}
	out := make([]model.Profile, 0, len(r.db.profiles))
	for _, p := range r.db.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeProfileRepo) mutate(id uuid.UUID, fn func(p *model.Profile)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.writeErr != nil {
		return r.db.writeErr
	}
	p, ok := r.db.profiles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now()
	return nil
}

func (r fakeProfileRepo) SetAdmin(_ context.Context, id uuid.UUID, isAdmin bool) error {
	return r.mutate(id, func(p *model.Profile) { p.IsAdmin = isAdmin })
}

func (r fakeProfileRepo) Ban(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	return r.mutate(id, func(p *model.Profile) {
		p.IsBanned = true
		p.BannedAt = &at
		p.BannedReason = &reason
	})
}

func (r fakeProfileRepo) Unban(_ context.Context, id uuid.UUID) error {
	return r.mutate(id, func(p *model.Profile) {
		p.IsBanned = false
		p.BannedAt = nil
		p.BannedReason = nil
	})
}

func (r fakeProfileRepo) UpdateDetails(_ context.Context, id uuid.UUID, fullName, avatarURL *string) error {
	return r.mutate(id, func(p *model.Profile) {
		p.FullName = fullName
		p.AvatarURL = avatarURL
	})
}

type fakeIdentityRepo struct{ db *fakeDB }

func (r fakeIdentityRepo) CreateWithProfile(_ context.Context, identity *model.Identity, profile *model.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.writeErr != nil {
		return r.db.writeErr
	}
	for _, existing := range r.db.identities {
		if strings.EqualFold(existing.Email, identity.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	now := time.Now()
	identity.CreatedAt = now
	profile.ID = identity.ID
	if profile.Email == "" {
		profile.Email = identity.Email
	}
	profile.CreatedAt = now
	idCopy, pCopy := *identity, *profile
	r.db.identities[identity.ID] = &idCopy
	r.db.profiles[identity.ID] = &pCopy
	return nil
}

func (r fakeIdentityRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Identity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i, ok := r.db.identities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *i
	return &cp, nil
}

func (r fakeIdentityRepo) GetByEmail(_ context.Context, email string) (*model.Identity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, i := range r.db.identities {
		if strings.ToLower(i.Email) == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeIdentityRepo) update(id uuid.UUID, fn func(i *model.Identity)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i, ok := r.db.identities[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(i)
	return nil
}

func (r fakeIdentityRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	return r.update(id, func(i *model.Identity) { i.PasswordHash = hash })
}

func (r fakeIdentityRepo) ConfirmEmail(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.update(id, func(i *model.Identity) { i.EmailConfirmedAt = &at })
}

func (r fakeIdentityRepo) RecordSignIn(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.update(id, func(i *model.Identity) {
		i.LastSignInAt = &at
		if p, ok := r.db.profiles[id]; ok {
			p.LastSignInAt = &at
		}
	})
}

type fakeSettingRepo struct{ db *fakeDB }

func (r fakeSettingRepo) List(_ context.Context) ([]model.SiteSetting, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.listErr != nil {
		return nil, r.db.listErr
	}
	out := make([]model.SiteSetting, 0, len(r.db.settings))
	for _, s := range r.db.settings {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r fakeSettingRepo) UpdateValue(_ context.Context, key model.SettingKey, value []byte, updatedBy uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failSettingOn[key]; err != nil {
		return err
	}
	if r.db.writeErr != nil {
		return r.db.writeErr
	}
	s, ok := r.db.settings[key]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Value = datatypes.JSON(value)
	s.UpdatedBy = &updatedBy
	s.UpdatedAt = time.Now()
	return nil
}

// fakeAnalyticsRepo buckets profile creation times from the shared fakeDB
// the same way the postgres repository does.
type fakeAnalyticsRepo struct {
	db    *fakeDB
	err   error
	calls int
	mu    sync.Mutex
}

func (r *fakeAnalyticsRepo) Stats(_ context.Context, w repository.StatsWindow) (*model.AdminStats, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var st model.AdminStats
	for _, p := range r.db.profiles {
		st.TotalUsers++
		if p.IsAdmin {
			st.AdminUsers++
		}
		if p.IsBanned {
			st.BannedUsers++
		}
		if !p.CreatedAt.Before(w.DayStart) {
			st.UsersToday++
		}
		if !p.CreatedAt.Before(w.WeekStart) {
			st.UsersThisWeek++
		}
		if !p.CreatedAt.Before(w.MonthStart) {
			st.UsersThisMonth++
		}
	}
	return &st, nil
}

func (r *fakeAnalyticsRepo) SignupSeries(_ context.Context, from time.Time, days int) ([]model.SignupDataPoint, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.db.mu.Lock()
	to := from.AddDate(0, 0, days)
	var times []time.Time
	for _, p := range r.db.profiles {
		if !p.CreatedAt.Before(from) && p.CreatedAt.Before(to) {
			times = append(times, p.CreatedAt)
		}
	}
	r.db.mu.Unlock()
	return repository.DensifySignups(repository.BucketByDay(times, from.Location()), from, days), nil
}

func (r *fakeAnalyticsRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	return m.sent[len(m.sent)-1]
}

var errStore = errors.New("connection refused")

const testBaseURL = "https://creator.example.com"

// testEnv wires every service over the fakes.
type testEnv struct {
	db        *fakeDB
	store     repository.StateStore
	cache     *ViewCache
	analytics *fakeAnalyticsRepo
	mailer    *fakeMailer
	jwt       *jwtpkg.Manager

	guard    Guard
	settings SettingsService
	stats    AnalyticsService
	idp      IdentityProvider
	admin    AdminService
	account  AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	db := newFakeDB()
	store := repository.NewMemoryStateStore()
	cache := NewViewCache(store, time.Minute, nil, logger)
	analytics := &fakeAnalyticsRepo{db: db}
	mailer := &fakeMailer{}
	jwtManager := jwtpkg.NewManager("test-signing-key", "test", 15*time.Minute, time.Hour)
	sanitizer := security.NewTextSanitizer()

	profiles := fakeProfileRepo{db: db}
	identities := fakeIdentityRepo{db: db}
	settingRepo := fakeSettingRepo{db: db}

	env := &testEnv{db: db, store: store, cache: cache, analytics: analytics, mailer: mailer, jwt: jwtManager}
	env.guard = NewGuard(profiles, identities)
	env.settings = NewSettingsService(settingRepo, cache, sanitizer, logger)
	env.stats = NewAnalyticsService(analytics, cache, logger)
	env.idp = NewIdentityProvider(identities, profiles, env.settings, store, jwtManager, mailer, cache,
		config.SiteConfig{
			BaseURL:          testBaseURL,
			ResetTokenTTL:    time.Hour,
			ConfirmTokenTTL:  time.Hour,
			MinPasswordChars: 6,
		}, logger)
	env.admin = NewAdminService(env.guard, profiles, settingRepo, env.settings, env.stats, env.idp, cache, nil, logger)
	env.account = NewAccountService(env.guard, profiles, sanitizer, cache)
	return env
}

func ptr[T any](v T) *T { return &v }
