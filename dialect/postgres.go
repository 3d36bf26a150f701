package dialect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

type postgresDialect struct{}

func init() {
	Register(postgresDialect{})
}

func (postgresDialect) Name() Name         { return PostgreSQL }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) Capabilities() Capability {
	return CapNativeUpsert | CapAllGeneratedKeys | CapSchema
}

func (postgresDialect) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (postgresDialect) ColumnType(t reflect.Type, length int) (string, error) {
	switch t.Kind() {
	case reflect.Bool:
		return "BOOLEAN", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return "INTEGER", nil
	case reflect.Int64, reflect.Uint64:
		return "BIGINT", nil
	case reflect.Float32, reflect.Float64:
		return "DOUBLE PRECISION", nil
	case reflect.String:
		if length <= 0 {
			length = 64
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "BYTEA", nil
		}
	case reflect.Struct:
		if t == timeType {
			return "TIMESTAMP WITH TIME ZONE", nil
		}
	}
	return "", fmt.Errorf("dialect: postgresql cannot map Go type %v to a column type", t)
}

func (postgresDialect) LimitOffset(limit, offset int) string {
	var b strings.Builder
	if limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	}
	if offset >= 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}

func (postgresDialect) CreateSchema(schema string) string {
	if schema == "" {
		return ""
	}
	return fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, schema)
}

func (d postgresDialect) Upsert(table string, columns []string, conflictColumns []string, updateColumns []string) string {
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
		fmt.Fprintf(&b, "%s=EXCLUDED.%s", d.Quote(c), d.Quote(c))
	}
	return b.String()
}
