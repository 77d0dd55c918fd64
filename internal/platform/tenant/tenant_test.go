package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odonto/odonto/internal/platform/apperr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    ID
		wantErr bool
	}{
		{"5", 5, false},
		{" 42 ", 42, false},
		{5, 5, false},
		{int64(7), 7, false},
		{5.0, 5, false},
		{"5.0", 5, false},
		{json.Number("9"), 9, false},
		{ID(3), 3, false},
		{"abc", 0, true},
		{"", 0, true},
		{5.5, 0, true},
		{math.NaN(), 0, true},
		{0, 0, true},
		{"-1", 0, true},
		{nil, 0, true},
		{true, 0, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "Parse(%v)", tt.in)
			continue
		}
		require.NoError(t, err, "Parse(%v)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSame(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want bool
	}{
		{"5", 5, true},
		{5, "5", true},
		{5.0, "5", true},
		{"5", "5.0", true},
		{ID(5), int64(5), true},
		{"5", 6, false},
		{"abc", 5, false},
		{5, "abc", false},
		{"abc", "abc", true},
		{"abc", "xyz", false},
		{math.NaN(), math.NaN(), false},
		{"NaN", "nan", false},
		{nil, nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Same(tt.a, tt.b), "Same(%v, %v)", tt.a, tt.b)
	}
}

func TestID_String(t *testing.T) {
	assert.Equal(t, "12", ID(12).String())
}

type fakePrincipal struct {
	empresaID ID
	empresa   *fakeEmpresa
}

func (p *fakePrincipal) TenantID() (ID, bool) { return p.empresaID, p.empresaID != 0 }

func (p *fakePrincipal) TenantEmpresa() Carrier {
	if p.empresa == nil {
		return nil
	}
	return p.empresa
}

type fakeEmpresa struct{ id ID }

func (e *fakeEmpresa) TenantID() (ID, bool) { return e.id, true }

func newContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequire_PrincipalField(t *testing.T) {
	c := newContext()
	c.Set(PrincipalKey, &fakePrincipal{empresaID: 3})
	c.Set(EmpresaKey, &fakeEmpresa{id: 9})

	id, err := Require(c)
	require.NoError(t, err)
	assert.Equal(t, ID(3), id)
}

func TestRequire_AttachedEmpresa(t *testing.T) {
	c := newContext()
	c.Set(PrincipalKey, &fakePrincipal{})
	c.Set(EmpresaKey, &fakeEmpresa{id: 9})

	id, err := Require(c)
	require.NoError(t, err)
	assert.Equal(t, ID(9), id)
}

func TestRequire_NestedEmpresa(t *testing.T) {
	c := newContext()
	c.Set(PrincipalKey, &fakePrincipal{empresa: &fakeEmpresa{id: 4}})

	id, err := Require(c)
	require.NoError(t, err)
	assert.Equal(t, ID(4), id)
}

func TestRequire_Missing(t *testing.T) {
	c := newContext()

	_, err := Require(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, "empresa id not found", err.Error())
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), 8)
	id, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, ID(8), id)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

type fakeOwner map[uuid.UUID]ID

func (f fakeOwner) PatientEmpresa(_ context.Context, id uuid.UUID) (ID, error) {
	empresa, ok := f[id]
	if !ok {
		return 0, apperr.NotFound("patient")
	}
	return empresa, nil
}

func TestEnsurePatient(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	owner := fakeOwner{p1: 1, p2: 2}
	ctx := context.Background()

	assert.NoError(t, EnsurePatient(ctx, owner, p1, 1))

	err := EnsurePatient(ctx, owner, p2, 1)
	assert.True(t, apperr.IsNotFound(err), "other tenant's patient must look absent")

	err = EnsurePatient(ctx, owner, uuid.New(), 1)
	assert.True(t, apperr.IsNotFound(err))

	err = EnsurePatient(ctx, owner, uuid.Nil, 1)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestID_PgxInt8RoundTrip(t *testing.T) {
	v, err := ID(42).Int64Value()
	if err != nil || !v.Valid || v.Int64 != 42 {
		t.Fatalf("unexpected encode: %+v %v", v, err)
	}
	var id ID
	if err := id.ScanInt64(v); err != nil || id != 42 {
		t.Fatalf("unexpected scan: %d %v", id, err)
	}
	if err := id.ScanInt64(pgtype.Int8{}); err != nil || id != 0 {
		t.Fatalf("NULL should scan as zero, got %d %v", id, err)
	}
}
