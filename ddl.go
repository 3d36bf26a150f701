package ptcorm

import (
	"fmt"
	"strings"

	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/dialect"
)

func effectiveType(dial dialect.Dialect, c *Column) string {
	if dial.Name() == dialect.SQLite {
		return c.SQLiteType
	}
	return c.SQLType
}

func columnDDL(dial dialect.Dialect, c *Column) string {
	typ := effectiveType(dial, c)
	if strings.Contains(strings.ToUpper(typ), "VARCHAR") && c.Length > 0 && !strings.Contains(typ, "(") {
		typ = fmt.Sprintf("%s(%d)", typ, c.Length)
	}
	parts := []string{dial.Quote(c.ColumnName), typ}
	if c.IsPrimaryKey {
		parts = append(parts, "PRIMARY KEY")
		if c.IsAutoKey {
			switch dial.Name() {
			case dialect.SQLite:
				parts = append(parts, "AUTOINCREMENT")
			case dialect.MySQL:
				parts = append(parts, "AUTO_INCREMENT")
			case dialect.PostgreSQL:
				// handled via column type override (SERIAL) at the caller
			}
		}
	} else if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

// createTableSQL renders the CREATE TABLE IF NOT EXISTS statement for
// a descriptor's own table (spec §4.5 step 1), including one nullable
// foreign-key column per link field.
func createTableSQL(dial dialect.Dialect, d *Descriptor) string {
	table := qualifiedTable(dial, d)
	var cols []string
	for _, c := range d.Columns {
		col := *c
		if c.IsPrimaryKey && c.IsAutoKey && dial.Name() == dialect.PostgreSQL {
			col.SQLType = "SERIAL"
		}
		cols = append(cols, columnDDL(dial, &col))
	}
	for _, lf := range d.LinkFields {
		pk := lf.Target.PrimaryKey
		cols = append(cols, columnDDL(dial, &Column{ColumnName: lf.FKColumn, SQLType: pk.SQLType, SQLiteType: pk.SQLiteType, Length: pk.Length, Nullable: true}))
	}
	if len(d.SecondaryKeys) > 0 {
		var names []string
		for _, c := range d.SecondaryKeys {
			names = append(names, dial.Quote(c.ColumnName))
		}
		cols = append(cols, fmt.Sprintf("UNIQUE (%s)", strings.Join(names, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", table, strings.Join(cols, ",\n  "))
}

func qualifiedTable(dial dialect.Dialect, d *Descriptor) string {
	if d.Schema != "" && dial.Capabilities()&dialect.CapSchema != 0 {
		return dial.Quote(d.Schema) + "." + dial.Quote(d.Table)
	}
	return dial.Quote(d.Table)
}

// indexDDL renders CREATE INDEX statements for Options.Indexes.
func indexDDL(dial dialect.Dialect, d *Descriptor) []string {
	var out []string
	for i, idx := range d.Indexes {
		var cols []string
		for _, f := range idx.Fields {
			if c, ok := d.ColumnByField(f); ok {
				cols = append(cols, dial.Quote(c.ColumnName))
			} else {
				cols = append(cols, dial.Quote(f))
			}
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		name := fmt.Sprintf("idx_%s_%d", d.Table, i)
		out = append(out, fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)", unique, dial.Quote(name), qualifiedTable(dial, d), strings.Join(cols, ", ")))
	}
	return out
}

const metaTableName = "_ptc_meta"

func metaTableSQL(dial dialect.Dialect) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (table_name TEXT PRIMARY KEY, version INTEGER NOT NULL)", dial.Quote(metaTableName))
}

// childTableSQL renders the CREATE TABLE for one child-table-backed
// collection field (spec §4.9).
func childTableSQL(dial dialect.Dialect, d *Descriptor, cf *CollectionField) string {
	pkCol := d.PrimaryKey
	parentCol := "parent_" + pkCol.ColumnName
	idType := effectiveType(dial, pkCol)

	var extra []string
	switch cf.Kind {
	case codec.KindList:
		extra = []string{
			columnDDL(dial, &Column{ColumnName: "value", SQLType: "TEXT", SQLiteType: "TEXT", Nullable: true}),
			columnDDL(dial, &Column{ColumnName: "sort_order", SQLType: "INTEGER", SQLiteType: "INTEGER", Nullable: false}),
		}
	case codec.KindSet:
		extra = []string{
			columnDDL(dial, &Column{ColumnName: "value", SQLType: "TEXT", SQLiteType: "TEXT", Nullable: true}),
		}
	case codec.KindMap:
		extra = []string{
			columnDDL(dial, &Column{ColumnName: "map_key", SQLType: "TEXT", SQLiteType: "TEXT", Nullable: false}),
			columnDDL(dial, &Column{ColumnName: "map_value", SQLType: "TEXT", SQLiteType: "TEXT", Nullable: true}),
		}
	}

	autoCol := Column{ColumnName: "id", SQLType: "BIGINT", SQLiteType: "INTEGER", IsPrimaryKey: true, IsAutoKey: true}
	if dial.Name() == dialect.PostgreSQL {
		autoCol.SQLType = "SERIAL"
	}
	cols := []string{
		columnDDL(dial, &autoCol),
		fmt.Sprintf("%s %s NOT NULL", dial.Quote(parentCol), idType),
	}
	cols = append(cols, extra...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", dial.Quote(cf.ChildTable), strings.Join(cols, ",\n  "))
}
