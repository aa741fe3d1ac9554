package middleware

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubGuard resolves callers from a fixed table of profiles.
type stubGuard struct {
	profiles map[uuid.UUID]*model.Profile
	err      error
}

func (g *stubGuard) ResolveCaller(_ context.Context, id *uuid.UUID) (*service.Caller, error) {
	if g.err != nil {
		return nil, g.err
	}
	if id == nil {
		return &service.Caller{Kind: service.CallerAnonymous}, nil
	}
	p, ok := g.profiles[*id]
	if !ok {
		return &service.Caller{Kind: service.CallerAnonymous}, nil
	}
	if p.IsAdmin && !p.IsBanned {
		return &service.Caller{Kind: service.CallerAdmin, Profile: p}, nil
	}
	return &service.Caller{Kind: service.CallerUser, Profile: p}, nil
}

func (g *stubGuard) RequireSignedIn(ctx context.Context, id *uuid.UUID) (*model.Profile, error) {
	caller, err := g.ResolveCaller(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Kind == service.CallerAnonymous {
		return nil, service.ErrUnauthenticated
	}
	if caller.Profile.IsBanned {
		return nil, service.ErrBanned
	}
	return caller.Profile, nil
}

func (g *stubGuard) RequireAdmin(ctx context.Context, id *uuid.UUID) (*model.Profile, error) {
	caller, err := g.ResolveCaller(ctx, id)
	if err != nil {
		return nil, err
	}
	switch caller.Kind {
	case service.CallerAnonymous:
		return nil, service.ErrUnauthenticated
	case service.CallerAdmin:
		return caller.Profile, nil
	default:
		return nil, service.ErrForbidden
	}
}

type stubSettings struct {
	snapshot model.SiteSnapshot
}

func (s *stubSettings) ListSettings(context.Context) ([]service.Setting, error) { return nil, nil }
func (s *stubSettings) Sections(context.Context) ([]service.SettingsSection, error) {
	return nil, nil
}
func (s *stubSettings) Snapshot(context.Context) model.SiteSnapshot { return s.snapshot }
func (s *stubSettings) Validate(string, json.RawMessage) (model.SettingMeta, model.SettingValue, error) {
	return model.SettingMeta{}, model.SettingValue{}, nil
}

// withIdentity stands in for SessionIdentity in gate tests.
func withIdentity(id *uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != nil {
			c.Set(ContextKeyIdentityID, *id)
		}
		c.Next()
	}
}

type fixture struct {
	admin, user, banned uuid.UUID
	guard               *stubGuard
}

func newFixture() *fixture {
	f := &fixture{admin: uuid.New(), user: uuid.New(), banned: uuid.New()}
	f.guard = &stubGuard{profiles: map[uuid.UUID]*model.Profile{
		f.admin:  {ID: f.admin, IsAdmin: true},
		f.user:   {ID: f.user},
		f.banned: {ID: f.banned, IsBanned: true},
	}}
	return f
}
