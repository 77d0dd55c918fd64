// Package tenant holds the canonical empresa (tenant) identifier and the
// request-scoped accessor every handler calls before reaching a service.
package tenant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ID is the canonical empresa identifier. It matches empresas.id (BIGSERIAL)
// and every empresa_id column.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Valid reports whether id can reference an empresa row.
func (id ID) Valid() bool { return id > 0 }

// Int64Value encodes id as a BIGINT query argument.
func (id ID) Int64Value() (pgtype.Int8, error) {
	return pgtype.Int8{Int64: int64(id), Valid: true}, nil
}

// ScanInt64 decodes a BIGINT column. NULL scans as the zero ID.
func (id *ID) ScanInt64(v pgtype.Int8) error {
	if !v.Valid {
		*id = 0
		return nil
	}
	*id = ID(v.Int64)
	return nil
}

// Parse coerces an ingested value (JWT claim, dev token segment, webhook
// payload field) into an ID. JSON numbers, numeric strings and integral
// floats such as 5.0 are accepted.
func Parse(v interface{}) (ID, error) {
	n, ok := coerce(v)
	if !ok {
		return 0, fmt.Errorf("invalid empresa id %v", v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid empresa id %d", n)
	}
	return ID(n), nil
}

// Same compares two raw tenant references. Both sides are compared
// numerically when they coerce; otherwise they are equal only when both are
// identical strings.
func Same(a, b interface{}) bool {
	na, okA := coerce(a)
	nb, okB := coerce(b)
	if okA && okB {
		return na == nb
	}
	sa, isStrA := a.(string)
	sb, isStrB := b.(string)
	return isStrA && isStrB && sa == sb
}

func coerce(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case ID:
		return int64(x), true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		return fromString(x.String())
	case string:
		return fromString(x)
	default:
		return 0, false
	}
}

func fromString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return fromFloat(f)
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
