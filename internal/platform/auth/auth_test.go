package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/tenant"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc", "abc", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"missing", "", "", true},
		{"no bearer prefix", "Token abc123", "", true},
		{"missing token", "Bearer", "", true},
		{"empty value", "Bearer ", "", true},
		{"basic auth", "Basic dXNlcjpwYXNz", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bearerToken(tt.header)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	jm := NewJWTManager(testSecret, time.Hour)
	p := &Principal{ID: uuid.New(), AuthUserID: "local|1", Email: "a@b.com", EmpresaID: 12, Cargo: CargoAdmin}

	tok, exp, err := jm.Issue(p)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	id, err := jm.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "local|1", id.Subject)
	assert.Equal(t, "a@b.com", id.Email)
	assert.Equal(t, tenant.ID(12), id.EmpresaID)
	assert.Equal(t, CargoAdmin, id.Cargo)
}

func TestJWTManager_RejectsWrongSecretAndExpired(t *testing.T) {
	jm := NewJWTManager(testSecret, time.Hour)
	tok, _, err := jm.Issue(&Principal{ID: uuid.New(), EmpresaID: 1})
	require.NoError(t, err)

	other := NewJWTManager("another-secret-another-secret-123", time.Hour)
	_, err = other.Verify(context.Background(), tok)
	assert.Error(t, err)

	expired := NewJWTManager(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(&Principal{ID: uuid.New(), EmpresaID: 1})
	require.NoError(t, err)
	_, err = jm.Verify(context.Background(), old)
	assert.Error(t, err)
}

func TestJWTManager_SubjectDefaultsToID(t *testing.T) {
	jm := NewJWTManager(testSecret, time.Hour)
	p := &Principal{ID: uuid.New(), EmpresaID: 1}
	tok, _, err := jm.Issue(p)
	require.NoError(t, err)
	id, err := jm.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, p.ID.String(), id.Subject)
}

func TestParseDevToken(t *testing.T) {
	p, err := ParseDevToken("dev:5")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID(5), p.EmpresaID)
	assert.Equal(t, CargoAdmin, p.Cargo)
	assert.True(t, p.Ativo)

	again, err := ParseDevToken("dev:5")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID, "dev principal must be deterministic")

	_, err = ParseDevToken("dev:abc")
	assert.Error(t, err)
	_, err = ParseDevToken("dev:5:superuser")
	assert.Error(t, err)
}

func TestPermissions(t *testing.T) {
	admin, ok := PermissionsFor(CargoAdmin)
	require.True(t, ok)
	assert.True(t, admin.Allows(FeatureUsuarios, ActionDelete))

	rec, ok := PermissionsFor(CargoRecepcionista)
	require.True(t, ok)
	assert.True(t, rec.Allows(FeatureAgendamentos, ActionEdit))
	assert.False(t, rec.Allows(FeatureRelatorios, ActionView))
	assert.False(t, rec.Allows(FeaturePacientes, "unknown"))

	_, ok = PermissionsFor("astronauta")
	assert.False(t, ok)
	assert.Equal(t, []string{CargoAdmin, CargoDentista, CargoFinanceiro, CargoRecepcionista}, Cargos())
}

func TestPrincipal_EffectivePrefersOverride(t *testing.T) {
	override := Permissions{View: []string{FeatureRelatorios}}
	p := &Principal{Cargo: CargoRecepcionista, Permissoes: &override}
	assert.True(t, p.Effective().Allows(FeatureRelatorios, ActionView))
	assert.False(t, p.Effective().Allows(FeaturePacientes, ActionView))

	p.Permissoes = &Permissions{}
	assert.True(t, p.Effective().Allows(FeaturePacientes, ActionView))
}

func newEchoContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestMiddleware_AttachesPrincipal(t *testing.T) {
	r, _ := newResolver(newMockStore(), nil, true)
	c, rec := newEchoContext(http.MethodGet, "/api/v1/pacientes")
	c.Request().Header.Set("Authorization", "Bearer dev:9:dentista")

	h := Middleware(r, nil)(func(c echo.Context) error {
		id, err := tenant.Require(c)
		if err != nil {
			return err
		}
		if got, ok := tenant.FromContext(c.Request().Context()); !ok || got != id {
			t.Errorf("expected empresa id on request context")
		}
		if PrincipalFromCtx(c.Request().Context()) == nil {
			t.Error("expected principal on request context")
		}
		return c.String(http.StatusOK, id.String())
	})
	require.NoError(t, h(c))
	assert.Equal(t, "9", rec.Body.String())
}

func TestMiddleware_MissingHeader(t *testing.T) {
	r, _ := newResolver(newMockStore(), nil, false)
	c, _ := newEchoContext(http.MethodGet, "/api/v1/pacientes")

	err := Middleware(r, nil)(func(c echo.Context) error { return nil })(c)
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))
}

func TestMiddleware_SkipsPublicPaths(t *testing.T) {
	r, _ := newResolver(newMockStore(), nil, false)
	for _, path := range []string{"/health", "/metrics", "/api/v1/auth/login", "/api/v1/chatbot/webhook"} {
		c, _ := newEchoContext(http.MethodGet, path)
		called := false
		err := Middleware(r, AuthSkipper)(func(c echo.Context) error {
			called = true
			return nil
		})(c)
		require.NoError(t, err, path)
		assert.True(t, called, path)
	}
	assert.False(t, IsPublicPath("/api/v1/pacientes"))
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name  string
		cargo string
		want  int
	}{
		{"admin", CargoAdmin, http.StatusOK},
		{"financeiro can view reports", CargoFinanceiro, http.StatusOK},
		{"recepcionista cannot", CargoRecepcionista, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newEchoContext(http.MethodGet, "/")
			Attach(c, &Principal{Cargo: tt.cargo, EmpresaID: 1, Ativo: true})
			err := RequirePermission(FeatureRelatorios, ActionView)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			if tt.want == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			assert.Equal(t, tt.want, apperr.Status(err))
		})
	}
}

func TestRequirePermission_NoPrincipal(t *testing.T) {
	c, _ := newEchoContext(http.MethodGet, "/")
	err := RequirePermission(FeaturePacientes, ActionView)(func(c echo.Context) error { return nil })(c)
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))
}

func TestRequireRole(t *testing.T) {
	c, _ := newEchoContext(http.MethodGet, "/")
	Attach(c, &Principal{Cargo: CargoDentista, EmpresaID: 1})
	err := RequireRole(CargoFinanceiro)(func(c echo.Context) error { return nil })(c)
	assert.Equal(t, http.StatusForbidden, apperr.Status(err))

	c, _ = newEchoContext(http.MethodGet, "/")
	Attach(c, &Principal{Cargo: CargoAdmin, EmpresaID: 1})
	assert.NoError(t, RequireRole(CargoFinanceiro)(func(c echo.Context) error { return nil })(c))
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "s", &Principal{Email: "a@b.com"}))
	p, ok := cache.Get(ctx, "s")
	require.True(t, ok)
	assert.Equal(t, "a@b.com", p.Email)

	cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = cache.Get(ctx, "s")
	assert.False(t, ok)
	assert.Empty(t, cache.items, "expired entry should be dropped on read")
}

func TestMemoryCache_SweepsExpiredOnSet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	for _, sub := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, sub, &Principal{Email: sub + "@x.com"}))
	}
	require.Len(t, cache.items, 3)

	cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	require.NoError(t, cache.Set(ctx, "d", &Principal{Email: "d@x.com"}))
	assert.Len(t, cache.items, 1)
	_, ok := cache.Get(ctx, "d")
	assert.True(t, ok)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client, time.Minute)
	ctx := context.Background()

	p := &Principal{ID: uuid.New(), Email: "a@b.com", EmpresaID: 4, Ativo: true, Empresa: &EmpresaRef{ID: 4, Nome: "X"}}
	require.NoError(t, cache.Set(ctx, "sub", p))
	assert.True(t, mr.Exists(redisKeyPrefix+"sub"))

	got, ok := cache.Get(ctx, "sub")
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, tenant.ID(4), got.Empresa.ID)

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "sub")
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "sub", p))
	require.NoError(t, cache.Invalidate(ctx, "sub"))
	_, ok = cache.Get(ctx, "sub")
	assert.False(t, ok)
}

type mockAccounts struct {
	principal *Principal
	password  string
}

func (m *mockAccounts) Authenticate(_ context.Context, email, password string) (*Principal, error) {
	if m.principal == nil || email != m.principal.Email || password != m.password {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	return m.principal, nil
}

func (m *mockAccounts) Register(_ context.Context, in RegisterInput) (*Principal, error) {
	if in.EmpresaNome == "" {
		return nil, apperr.Validation("empresa_nome is required")
	}
	return &Principal{ID: uuid.New(), Email: in.Email, EmpresaID: 2, Cargo: CargoAdmin, Ativo: true}, nil
}

func TestHandler_Login(t *testing.T) {
	jm := NewJWTManager(testSecret, time.Hour)
	accounts := &mockAccounts{
		principal: &Principal{ID: uuid.New(), Email: "ana@clinica.com", EmpresaID: 3, Cargo: CargoDentista, Ativo: true},
		password:  "segredo123",
	}
	h := NewHandler(accounts, jm)

	e := echo.New()
	body := `{"email":"ANA@clinica.com","password":"segredo123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	id, err := jm.Verify(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID(3), id.EmpresaID)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ana@clinica.com","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err = h.Login(e.NewContext(req, httptest.NewRecorder()))
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))
}

func TestHandler_Me(t *testing.T) {
	h := NewHandler(&mockAccounts{}, NewJWTManager(testSecret, time.Hour))
	c, rec := newEchoContext(http.MethodGet, "/auth/me")
	Attach(c, &Principal{ID: uuid.New(), Cargo: CargoFinanceiro, EmpresaID: 1, Ativo: true})

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), FeatureRelatorios)
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)

	hash, err := HashPassword("segredo123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "segredo123"))
	assert.False(t, CheckPassword(hash, "segredo124"))
	assert.False(t, CheckPassword("", "segredo123"))
}
