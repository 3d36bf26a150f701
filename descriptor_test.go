package ptcorm

import (
	"reflect"
	"testing"

	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/dialect"
)

type simpleUser struct {
	ID    int64  `db:"id,pk,auto"`
	Name  string `db:"name"`
	Email string `db:"email,key"`
}

type noPKThing struct {
	Label string `db:"label"`
}

type tagged struct {
	Name   string `db:"name"`
	Hidden string `db:"-,default:redacted"`
	Tags   []string
	Unique Set[string]
	Props  map[string]string
}

func sqliteDialect(t *testing.T) dialect.Dialect {
	t.Helper()
	d := dialect.Get(dialect.SQLite)
	if d == nil {
		t.Fatal("sqlite dialect not registered")
	}
	return d
}

func TestBuildDescriptorPrimaryKeyAndSecondaryKey(t *testing.T) {
	dial := sqliteDialect(t)
	d, err := buildDescriptor(codec.NewRegistry(), dial, reflect.TypeOf(simpleUser{}), nil)
	if err != nil {
		t.Fatalf("buildDescriptor: %v", err)
	}
	if d.Table != "simple_user" {
		t.Errorf("Table = %q, want simple_user", d.Table)
	}
	if d.SyntheticPK {
		t.Error("expected an explicit primary key, not a synthetic one")
	}
	if d.PrimaryKey == nil || d.PrimaryKey.ColumnName != "id" {
		t.Fatalf("PrimaryKey = %+v, want column \"id\"", d.PrimaryKey)
	}
	if !d.PrimaryKey.IsAutoKey {
		t.Error("expected id to be an auto key")
	}
	if len(d.SecondaryKeys) != 1 || d.SecondaryKeys[0].ColumnName != "email" {
		t.Fatalf("SecondaryKeys = %+v, want [email]", d.SecondaryKeys)
	}
	if c, ok := d.ColumnByField("Name"); !ok || c.ColumnName != "name" {
		t.Errorf("ColumnByField(Name) = %+v, %v", c, ok)
	}
	if c, ok := d.ColumnByName("email"); !ok || c.FieldName != "Email" {
		t.Errorf("ColumnByName(email) = %+v, %v", c, ok)
	}
}

func TestBuildDescriptorSyntheticPrimaryKey(t *testing.T) {
	dial := sqliteDialect(t)
	d, err := buildDescriptor(codec.NewRegistry(), dial, reflect.TypeOf(noPKThing{}), nil)
	if err != nil {
		t.Fatalf("buildDescriptor: %v", err)
	}
	if !d.SyntheticPK {
		t.Error("expected a synthetic primary key to be injected")
	}
	if d.PrimaryKey.ColumnName != "id" || !d.PrimaryKey.IsAutoKey {
		t.Errorf("synthetic PrimaryKey = %+v", d.PrimaryKey)
	}
	if d.Columns[0] != d.PrimaryKey {
		t.Error("synthetic primary key should be prepended to Columns")
	}
}

func TestBuildDescriptorDuplicatePrimaryKeyErrors(t *testing.T) {
	type dup struct {
		A int64 `db:"a,pk"`
		B int64 `db:"b,pk"`
	}
	dial := sqliteDialect(t)
	_, err := buildDescriptor(codec.NewRegistry(), dial, reflect.TypeOf(dup{}), nil)
	if err == nil {
		t.Fatal("expected an error for duplicate primary keys")
	}
}

func TestBuildDescriptorIgnoredAndCollectionFields(t *testing.T) {
	dial := sqliteDialect(t)
	d, err := buildDescriptor(codec.NewRegistry(), dial, reflect.TypeOf(tagged{}), nil)
	if err != nil {
		t.Fatalf("buildDescriptor: %v", err)
	}
	if len(d.DefaultedFields) != 1 || d.DefaultedFields[0].FieldName != "Hidden" {
		t.Fatalf("DefaultedFields = %+v, want [Hidden]", d.DefaultedFields)
	}
	if got := d.DefaultedFields[0].Default.String(); got != "redacted" {
		t.Errorf("Hidden default = %q, want %q", got, "redacted")
	}
	if len(d.CollectionFields) != 3 {
		t.Fatalf("CollectionFields = %+v, want 3 entries", d.CollectionFields)
	}
	byField := map[string]*CollectionField{}
	for _, cf := range d.CollectionFields {
		byField[cf.FieldName] = cf
	}
	if cf := byField["Tags"]; cf == nil || cf.Kind != codec.KindList {
		t.Errorf("Tags field = %+v, want KindList", cf)
	}
	if cf := byField["Unique"]; cf == nil || cf.Kind != codec.KindSet {
		t.Errorf("Unique field = %+v, want KindSet", cf)
	}
	if cf := byField["Props"]; cf == nil || cf.Kind != codec.KindMap {
		t.Errorf("Props field = %+v, want KindMap", cf)
	}
	if byField["Tags"].ChildTable != "tagged_tags" {
		t.Errorf("Tags.ChildTable = %q, want tagged_tags", byField["Tags"].ChildTable)
	}
}

func TestBuildDescriptorIgnoredNonNullableFieldWithoutDefaultErrors(t *testing.T) {
	type noDefault struct {
		Name   string `db:"name"`
		Hidden string `db:"-"`
	}
	dial := sqliteDialect(t)
	_, err := buildDescriptor(codec.NewRegistry(), dial, reflect.TypeOf(noDefault{}), nil)
	if err == nil {
		t.Fatal("expected an error for a non-nullable @Ignore field with no default")
	}
}

func TestBuildDescriptorIgnoredNullablePointerFieldNeedsNoDefault(t *testing.T) {
	type withPointer struct {
		Name   string  `db:"name"`
		Hidden *string `db:"-"`
	}
	dial := sqliteDialect(t)
	d, err := buildDescriptor(codec.NewRegistry(), dial, reflect.TypeOf(withPointer{}), nil)
	if err != nil {
		t.Fatalf("buildDescriptor: %v", err)
	}
	if len(d.DefaultedFields) != 1 || !d.DefaultedFields[0].Default.IsNil() {
		t.Fatalf("DefaultedFields = %+v, want a single nil-pointer default", d.DefaultedFields)
	}
}

func TestDescribeSelfReferentialLinkFieldErrorsInsteadOfRecursingForever(t *testing.T) {
	type node struct {
		ID     int64  `db:"id,pk,auto"`
		Name   string `db:"name"`
		Parent *node  `db:",link"`
	}
	dial := sqliteDialect(t)
	// describe, not buildDescriptor directly: the in-progress guard
	// lives in describe, which is the entry point buildLinkField uses
	// to resolve a link's target type.
	_, err := describe(codec.NewRegistry(), dial, reflect.TypeOf(node{}), nil)
	if err == nil {
		t.Fatal("expected a self-reference error instead of recursing into node's own descriptor")
	}
}

func TestCollectionKindOf(t *testing.T) {
	kind, elem := collectionKindOf(reflect.TypeOf([]string(nil)))
	if kind != codec.KindList || elem.Kind() != reflect.String {
		t.Errorf("[]string => (%v, %v), want (KindList, string)", kind, elem)
	}
	kind, elem = collectionKindOf(reflect.TypeOf(Set[int](nil)))
	if kind != codec.KindSet || elem.Kind() != reflect.Int {
		t.Errorf("Set[int] => (%v, %v), want (KindSet, int)", kind, elem)
	}
	kind, elem = collectionKindOf(reflect.TypeOf(map[string]string(nil)))
	if kind != codec.KindMap || elem.Kind() != reflect.String {
		t.Errorf("map[string]string => (%v, %v), want (KindMap, string)", kind, elem)
	}
}

func TestIsCollectionKindExcludesByteSlices(t *testing.T) {
	if isCollectionKind(reflect.TypeOf([]byte(nil))) {
		t.Error("[]byte should not be treated as a collection (it's a scalar blob)")
	}
	if !isCollectionKind(reflect.TypeOf([]int(nil))) {
		t.Error("[]int should be treated as a collection")
	}
}

func TestDescribeIsCachedPerDialect(t *testing.T) {
	dial := sqliteDialect(t)
	reg := codec.NewRegistry()
	d1, err := describe(reg, dial, reflect.TypeOf(simpleUser{}), nil)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	d2, err := describe(reg, dial, reflect.TypeOf(simpleUser{}), nil)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if d1 != d2 {
		t.Error("describe should return the same cached *Descriptor for repeated calls")
	}
}
