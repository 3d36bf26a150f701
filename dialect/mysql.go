package dialect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

type mysqlDialect struct{}

func init() {
	Register(mysqlDialect{})
}

func (mysqlDialect) Name() Name         { return MySQL }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) Capabilities() Capability {
	return CapNativeUpsert | CapAllGeneratedKeys
}

func (mysqlDialect) Quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (mysqlDialect) Placeholder(int) string {
	return "?"
}

func (mysqlDialect) ColumnType(t reflect.Type, length int) (string, error) {
	switch t.Kind() {
	case reflect.Bool:
		return "TINYINT(1)", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return "INT", nil
	case reflect.Int64:
		return "BIGINT", nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return "INT UNSIGNED", nil
	case reflect.Uint64:
		return "BIGINT UNSIGNED", nil
	case reflect.Float32, reflect.Float64:
		return "DOUBLE", nil
	case reflect.String:
		if length <= 0 {
			length = 64
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "BLOB", nil
		}
	case reflect.Struct:
		if t == timeType {
			return "DATETIME", nil
		}
	}
	return "", fmt.Errorf("dialect: mysql cannot map Go type %v to a column type", t)
}

func (mysqlDialect) LimitOffset(limit, offset int) string {
	var b strings.Builder
	if limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	} else if offset >= 0 {
		b.WriteString(" LIMIT 18446744073709551615")
	}
	if offset >= 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}

func (mysqlDialect) CreateSchema(string) string {
	return ""
}

func (d mysqlDialect) Upsert(table string, columns []string, conflictColumns []string, updateColumns []string) string {
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
	b.WriteString(") ON DUPLICATE KEY UPDATE ")
	for i, c := range updateColumns {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=VALUES(%s)", d.Quote(c), d.Quote(c))
	}
	return b.String()
}
