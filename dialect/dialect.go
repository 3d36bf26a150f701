// Package dialect implements the SQL Dialect Layer (C3): per-backend
// identifier quoting, built-in type names, LIMIT/OFFSET syntax, upsert
// syntax, generated-key retrieval behavior, and CREATE SCHEMA support.
package dialect

import (
	"fmt"
	"reflect"
	"time"
)

// Capability flags advertise what a backend can do, so the core never
// has to hard-code a per-backend branch outside this package (mirrors
// the teacher's orm/driver/capability.go bitmask).
type Capability int

const (
	CapNone Capability = 0
	// CapNativeUpsert means Dialect.Upsert can emit a single statement
	// (INSERT ... ON CONFLICT / ON DUPLICATE KEY UPDATE).
	CapNativeUpsert Capability = 1 << iota
	// CapAllGeneratedKeys means batch inserts return every generated
	// key rather than only the last (SQLite returns only the last;
	// this is the documented, non-fixable limit from spec §4.3/§9).
	CapAllGeneratedKeys
	// CapSchema means the backend supports qualifying tables with a
	// schema (PostgreSQL).
	CapSchema
)

// Name identifies a supported backend, per spec §6.
type Name string

const (
	SQLite     Name = "sqlite"
	MySQL      Name = "mysql"
	PostgreSQL Name = "postgresql"
)

// Dialect is the closed interface a backend must implement (spec §4.3).
type Dialect interface {
	Name() Name
	// DriverName is the database/sql driver name registered by the
	// backing package (e.g. "sqlite3", "mysql", "postgres").
	DriverName() string
	Capabilities() Capability

	// Quote quotes a single identifier (table or column name).
	Quote(identifier string) string

	// Placeholder returns the parameter placeholder for the n-th
	// (1-based) bound value in a statement.
	Placeholder(n int) string

	// ColumnType returns the column type name for a Go runtime type,
	// honoring the defaults table in spec §6. length is only used for
	// strings (0 means "use the 64 default").
	ColumnType(t reflect.Type, length int) (string, error)

	// LimitOffset renders the LIMIT/OFFSET clause. limit/offset < 0
	// means "omit".
	LimitOffset(limit, offset int) string

	// CreateSchema renders "CREATE SCHEMA IF NOT EXISTS" for backends
	// that support schemas; returns "" otherwise.
	CreateSchema(schema string) string

	// Upsert renders an upsert statement given the table, all column
	// names/placeholders for the row, the conflict columns (primary
	// or secondary key) and the columns that should be updated on
	// conflict. Only called when Capabilities() & CapNativeUpsert != 0.
	Upsert(table string, columns []string, conflictColumns []string, updateColumns []string) string
}

// EncodeBool/DecodeBool centralize the Boolean -> integer 0/1 mapping
// required by spec §6 for every backend (none of the three drivers in
// this corpus model Go bool as a native column type the same way).
func EncodeBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func DecodeBool(v int64) bool {
	return v != 0
}

// EncodeTime/DecodeTime centralize the time.Time <-> storage mapping.
// SQLite has no native timestamp type, so time.Time is stored as a
// Unix timestamp (mirrors the teacher's sqlite backend TransformOutValue).
func EncodeTime(name Name, t time.Time) any {
	switch name {
	case SQLite:
		if t.IsZero() {
			return nil
		}
		return t.UTC().Unix()
	default:
		return t
	}
}

func DecodeTime(name Name, v any) (time.Time, error) {
	switch name {
	case SQLite:
		switch x := v.(type) {
		case int64:
			return time.Unix(x, 0).UTC(), nil
		case nil:
			return time.Time{}, nil
		default:
			return time.Time{}, fmt.Errorf("dialect: cannot decode %T as sqlite timestamp", v)
		}
	default:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case nil:
			return time.Time{}, nil
		default:
			return time.Time{}, fmt.Errorf("dialect: cannot decode %T as timestamp", v)
		}
	}
}

var registry = map[Name]Dialect{}

// Register makes a Dialect available by name. Called from the init
// function of each dialect's backing file.
func Register(d Dialect) {
	registry[d.Name()] = d
}

// Get returns the Dialect registered under name, or nil.
func Get(name Name) Dialect {
	return registry[name]
}
