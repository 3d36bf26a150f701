package ptcorm

import (
	"reflect"
	"testing"

	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/query"
)

func testDescriptor(t *testing.T) *Descriptor {
	t.Helper()
	dial := sqliteDialect(t)
	d, err := buildDescriptor(codec.NewRegistry(), dial, reflect.TypeOf(simpleUser{}), nil)
	if err != nil {
		t.Fatalf("buildDescriptor: %v", err)
	}
	return d
}

func TestRenderCondEq(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	sql, args, next := renderCond(dial, desc, query.EqF("Name", "bob"), 1)
	if sql != "`name` = ?" {
		t.Errorf("sql = %q, want `name` = ?", sql)
	}
	if len(args) != 1 || args[0] != "bob" {
		t.Errorf("args = %v, want [bob]", args)
	}
	if next != 2 {
		t.Errorf("next = %d, want 2", next)
	}
}

func TestRenderCondResolvesByFieldOrColumnName(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	byField, _, _ := renderCond(dial, desc, query.EqF("Name", "bob"), 1)
	byColumn, _, _ := renderCond(dial, desc, query.EqF("name", "bob"), 1)
	if byField != byColumn {
		t.Errorf("resolving by field name (%q) should match resolving by column name (%q)", byField, byColumn)
	}
}

func TestRenderCondUnknownColumnPassesThrough(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	sql, _, _ := renderCond(dial, desc, query.EqF("t1.other", "x"), 1)
	if sql != "t1.other = ?" {
		t.Errorf("sql = %q, want t1.other = ?", sql)
	}
}

func TestRenderCondIn(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	sql, args, next := renderCond(dial, desc, query.InF("id", []int64{1, 2, 3}), 1)
	if sql != "`id` IN (?, ?, ?)" {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3 values", args)
	}
	if next != 4 {
		t.Errorf("next = %d, want 4", next)
	}
}

func TestRenderCondInEmptyIsAlwaysFalse(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	sql, args, next := renderCond(dial, desc, query.InF("id", []int64{}), 5)
	if sql != "1=0" {
		t.Errorf("sql = %q, want 1=0", sql)
	}
	if args != nil {
		t.Errorf("args = %v, want nil", args)
	}
	if next != 5 {
		t.Errorf("next = %d, want unchanged 5", next)
	}
}

func TestRenderCondBetween(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	sql, args, next := renderCond(dial, desc, query.Between("id", 1, 10), 1)
	if sql != "`id` BETWEEN ? AND ?" {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 2 || args[0] != 1 || args[1] != 10 {
		t.Errorf("args = %v, want [1 10]", args)
	}
	if next != 3 {
		t.Errorf("next = %d, want 3", next)
	}
}

func TestRenderCondAndOr(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	cond := query.AndOf(query.EqF("name", "bob"), query.OrOf(query.GtF("id", 1), query.LtF("id", 10)))
	sql, args, next := renderCond(dial, desc, cond, 1)
	want := "(`name` = ?) AND ((`id` > ?) OR (`id` < ?))"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3 values", args)
	}
	if next != 4 {
		t.Errorf("next = %d, want 4", next)
	}
}

func TestRenderCondNot(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	sql, args, _ := renderCond(dial, desc, query.Not(query.EqF("name", "bob")), 1)
	if sql != "NOT (`name` = ?)" {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 {
		t.Errorf("args = %v, want 1 value", args)
	}
}

// offsetStatus deliberately stores its EnumIndex offset from its
// underlying int representation, so a test binding the raw value
// instead of EnumIndex() would catch the wrong row.
type offsetStatus int

func (s offsetStatus) EnumIndex() int64 { return int64(s) + 100 }

func TestRenderFieldNormalizesIndexEnumOperand(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	_, args, _ := renderCond(dial, desc, query.EqF("name", offsetStatus(2)), 1)
	if len(args) != 1 || args[0] != int64(102) {
		t.Errorf("args = %v, want [102] (bound via EnumIndex, not the raw offsetStatus value)", args)
	}
}

func TestRenderFieldWithColumnReference(t *testing.T) {
	dial := sqliteDialect(t)
	desc := testDescriptor(t)
	sql, args, next := renderCond(dial, desc, query.EqF("name", query.Pre("email")), 1)
	if sql != "`name` = `email`" {
		t.Errorf("sql = %q, want a column-to-column comparison", sql)
	}
	if args != nil {
		t.Errorf("args = %v, want nil (no bound parameter for a column reference)", args)
	}
	if next != 1 {
		t.Errorf("next = %d, want unchanged 1", next)
	}
}
