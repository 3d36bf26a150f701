package dialect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteDialect struct{}

func init() {
	Register(sqliteDialect{})
}

func (sqliteDialect) Name() Name         { return SQLite }
func (sqliteDialect) DriverName() string { return "sqlite3" }

func (sqliteDialect) Capabilities() Capability {
	// SQLite only returns the last generated key from a batch insert;
	// this is the documented limit from spec §4.3/§9.
	return CapNativeUpsert
}

func (sqliteDialect) Quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (sqliteDialect) Placeholder(int) string {
	return "?"
}

var timeType = reflect.TypeOf(time.Time{})

func (sqliteDialect) ColumnType(t reflect.Type, length int) (string, error) {
	switch t.Kind() {
	case reflect.Bool:
		return "INTEGER", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "INTEGER", nil
	case reflect.Float32, reflect.Float64:
		return "REAL", nil
	case reflect.String:
		return "TEXT", nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "BLOB", nil
		}
	case reflect.Struct:
		if t == timeType {
			return "INTEGER", nil
		}
	}
	return "", fmt.Errorf("dialect: sqlite cannot map Go type %v to a column type", t)
}

func (sqliteDialect) LimitOffset(limit, offset int) string {
	var b strings.Builder
	if limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	} else if offset >= 0 {
		// SQLite requires a LIMIT before OFFSET; -1 means "no limit".
		b.WriteString(" LIMIT -1")
	}
	if offset >= 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}

func (sqliteDialect) CreateSchema(string) string {
	return ""
}

func (d sqliteDialect) Upsert(table string, columns []string, conflictColumns []string, updateColumns []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (", d.Quote(table))
	for i, c := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d.Quote(c))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d.Placeholder(i + 1))
	}
	b.WriteString(") ON CONFLICT (")
	for i, c := range conflictColumns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d.Quote(c))
	}
	b.WriteString(") DO UPDATE SET ")
	for i, c := range updateColumns {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=excluded.%s", d.Quote(c), d.Quote(c))
	}
	return b.String()
}
