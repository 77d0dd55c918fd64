package db

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// FilterType defines how a list filter is turned into SQL.
type FilterType int

const (
	FilterExact    FilterType = iota // column = value
	FilterText                       // case-insensitive substring match over one or more columns
	FilterUUID                       // column = value::uuid, invalid ids match nothing
	FilterDateFrom                   // column >= value (YYYY-MM-DD)
	FilterDateTo                     // column < value + 1 day (inclusive end date)
	FilterBool                       // column = true|false
)

// FilterConfig maps a query-string filter to its database representation.
type FilterConfig struct {
	Type    FilterType
	Columns []string
}

// Query builds tenant-scoped list queries. The tenant clause is added first
// so it can never be dropped by a later filter.
type Query struct {
	from    string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewQuery creates a Query over from (a table or join expression) selecting cols.
func NewQuery(from, cols string) *Query {
	return &Query{from: from, cols: cols, idx: 1}
}

// Idx returns the next available parameter index.
func (q *Query) Idx() int { return q.idx }

// Add appends a raw WHERE clause fragment (without leading "AND").
func (q *Query) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// Eq adds "column = $n".
func (q *Query) Eq(column string, value interface{}) {
	q.Add(fmt.Sprintf("%s = $%d", column, q.idx), value)
}

// Text adds a case-insensitive substring match over any of the columns.
func (q *Query) Text(value string, columns ...string) {
	if len(columns) == 0 {
		return
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, q.idx)
	}
	q.Add("("+strings.Join(parts, " OR ")+")", "%"+escapeLike(value)+"%")
}

// ApplyFilter applies a single filter using its config.
func (q *Query) ApplyFilter(config FilterConfig, value string) {
	if value == "" || len(config.Columns) == 0 {
		return
	}
	col := config.Columns[0]
	switch config.Type {
	case FilterExact:
		q.Eq(col, value)
	case FilterText:
		q.Text(value, config.Columns...)
	case FilterUUID:
		id, err := uuid.Parse(value)
		if err != nil {
			q.Add("FALSE")
			return
		}
		q.Eq(col, id)
	case FilterDateFrom:
		q.Add(fmt.Sprintf("%s >= $%d::date", col, q.idx), value)
	case FilterDateTo:
		q.Add(fmt.Sprintf("%s < $%d::date + 1", col, q.idx), value)
	case FilterBool:
		switch strings.ToLower(value) {
		case "true", "1", "sim":
			q.Eq(col, true)
		case "false", "0", "nao", "não":
			q.Eq(col, false)
		}
	}
}

// ApplyFilters applies all matching filters from the given map. Unknown keys
// are ignored.
func (q *Query) ApplyFilters(filters map[string]string, configs map[string]FilterConfig) {
	for _, name := range sortedKeys(filters) {
		if config, ok := configs[name]; ok {
			q.ApplyFilter(config, filters[name])
		}
	}
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword). It should
// end with a unique column so that pages are disjoint.
func (q *Query) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// CountSQL returns the count query SQL.
func (q *Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.from, q.where)
}

// CountArgs returns the arguments for the count query.
func (q *Query) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET.
func (q *Query) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.from, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the arguments for the data query (filter args + limit + offset).
func (q *Query) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// AllSQL returns the data query without pagination.
func (q *Query) AllSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.from, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	return sql
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
