package ptcorm

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/dialect"
	"github.com/FxRayHughes/ptcorm/util/types"
)

// Column is the Column Descriptor from spec §3.
type Column struct {
	FieldName      string
	FieldIndex     []int
	ColumnName     string
	GoType         reflect.Type
	SQLType        string
	SQLiteType     string
	Length         int
	Nullable       bool
	IsPrimaryKey   bool
	IsSecondaryKey bool
	IsAutoKey      bool
	IsMutable      bool

	enumFactory codec.EnumFactory
	single      *codec.Single
}

// LinkField is the "(field_name, foreign_key_column, target_entity_
// descriptor) triple" from spec §3.
type LinkField struct {
	FieldName  string
	FieldIndex []int
	FKColumn   string
	Target     *Descriptor
	Nullable   bool
}

// CollectionField is the "(field_name, child_table_name, kind)" tuple
// from spec §3. When Flatten is non-nil, the field is instead a
// single flattened column named by FlattenColumn.
type CollectionField struct {
	FieldName      string
	FieldIndex     []int
	ChildTable     string
	Kind           codec.Kind
	ElementType    reflect.Type
	Flatten        *codec.Collection
	FlattenColumn  string
}

// DefaultedField is an @Ignore'd field: never read from or written to
// storage, materialized with the recorded default (spec §3).
type DefaultedField struct {
	FieldName  string
	FieldIndex []int
	Default    reflect.Value
}

// Descriptor is the immutable Entity Descriptor from spec §3, built
// once per (record type, dialect) pair and cached process-wide.
type Descriptor struct {
	Type    reflect.Type
	Table   string
	Schema  string

	Columns          []*Column
	PrimaryKey       *Column
	SyntheticPK      bool
	SecondaryKeys    []*Column
	LinkFields       []*LinkField
	CollectionFields []*CollectionField
	DefaultedFields  []*DefaultedField
	Indexes          []*Index
	Migrations       []MigrationStep
	ManualDDL        string

	byField map[string]*Column
	byName  map[string]*Column
}

// ColumnByField looks up a column by its Go field name.
func (d *Descriptor) ColumnByField(name string) (*Column, bool) {
	c, ok := d.byField[name]
	return c, ok
}

// ColumnByName looks up a column by its db column name.
func (d *Descriptor) ColumnByName(name string) (*Column, bool) {
	c, ok := d.byName[name]
	return c, ok
}

// MutableColumns returns only the columns that participate in
// UPDATE ... SET ... (spec §3 invariant: pk/secondary-key columns are
// locator-only).
func (d *Descriptor) MutableColumns() []*Column {
	var out []*Column
	for _, c := range d.Columns {
		if c.IsMutable {
			out = append(out, c)
		}
	}
	return out
}

var (
	descriptorCacheMu sync.Mutex
	descriptorCache   = map[descriptorCacheKey]*Descriptor{}
	buildingTypes     = map[descriptorCacheKey]bool{}
)

type descriptorCacheKey struct {
	typ    reflect.Type
	dialect dialect.Name
}

var timeType = reflect.TypeOf(time.Time{})

// describe builds (or returns the cached) Descriptor for t under the
// given dialect and codec registry. It is the single entry point used
// by NewMapper and by link-field resolution, which is why link target
// descriptors are obtained through it too (spec §3 "Lifecycle:
// Descriptors are built lazily ... and then cached process-wide").
func describe(reg *codec.Registry, dial dialect.Dialect, t reflect.Type, opts *Options) (*Descriptor, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &DescriptorError{Type: t.String(), Reason: "only structs can be registered as entities"}
	}
	key := descriptorCacheKey{typ: t, dialect: dial.Name()}
	descriptorCacheMu.Lock()
	if d, ok := descriptorCache[key]; ok {
		descriptorCacheMu.Unlock()
		return d, nil
	}
	// A link field whose target is the same type currently being
	// described (direct self-reference, e.g. a Node with a Parent
	// *Node link) would otherwise recurse through buildLinkField =>
	// describe => buildDescriptor without ever hitting the cache
	// check above, since the in-progress Descriptor isn't cached until
	// it finishes building. That's a stack overflow rather than a
	// spec'd behavior (self-referential links are out of scope), so
	// it's turned into a plain error here instead.
	if buildingTypes[key] {
		descriptorCacheMu.Unlock()
		return nil, &DescriptorError{Type: t.String(), Reason: "self-referential link field: " + t.String() + " links back to its own type before its descriptor finished building"}
	}
	buildingTypes[key] = true
	descriptorCacheMu.Unlock()

	d, err := buildDescriptor(reg, dial, t, opts)

	descriptorCacheMu.Lock()
	delete(buildingTypes, key)
	if err == nil {
		descriptorCache[key] = d
	}
	descriptorCacheMu.Unlock()
	return d, err
}

// ignoredFieldDefault resolves the zero-on-load value for an @Ignore'd
// field. A pointer-typed field is nullable, so nil is a legitimate
// default. A non-pointer field has no nil representation in Go, so an
// @Ignore on one without an explicit db:"-,default:<value>" leaves no
// value the core could assign at load time without silently
// fabricating one; that case refuses to build the descriptor rather
// than quietly defaulting to the Go zero value.
func ignoredFieldDefault(t reflect.Type, f reflect.StructField, tag fieldTag) (reflect.Value, error) {
	if f.Type.Kind() == reflect.Ptr {
		return reflect.Zero(f.Type), nil
	}
	if !tag.has("default") {
		return reflect.Value{}, &DescriptorError{
			Type:   t.String(),
			Reason: fmt.Sprintf("field %s is @Ignore'd but not nullable and has no db:\"-,default:<value>\" option", f.Name),
		}
	}
	def := tag.value("default")
	if f.Type.Kind() == reflect.Bool {
		b, err := strconv.ParseBool(def)
		if err != nil {
			return reflect.Value{}, &DescriptorError{Type: t.String(), Reason: fmt.Sprintf("field %s default %q: %v", f.Name, def, err)}
		}
		return reflect.ValueOf(b), nil
	}
	ptr := reflect.New(f.Type)
	if err := types.Convert(def, ptr.Interface()); err != nil {
		return reflect.Value{}, &DescriptorError{Type: t.String(), Reason: fmt.Sprintf("field %s default %q: %v", f.Name, def, err)}
	}
	return ptr.Elem(), nil
}

func buildDescriptor(reg *codec.Registry, dial dialect.Dialect, t reflect.Type, opts *Options) (*Descriptor, error) {
	if opts == nil {
		opts = &Options{}
	}
	d := &Descriptor{
		Type:       t,
		Table:      opts.Table,
		Schema:     opts.Schema,
		Indexes:    opts.Indexes,
		Migrations: opts.Migrations,
		ManualDDL:  opts.ManualDDL,
		byField:    map[string]*Column{},
		byName:     map[string]*Column{},
	}
	if d.Table == "" {
		d.Table = camelToSnake(t.Name())
	}

	n := t.NumField()
	for i := 0; i < n; i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		tag := parseFieldTag(f.Tag.Get("db"))

		if tag.ignored {
			zero, err := ignoredFieldDefault(t, f, tag)
			if err != nil {
				return nil, err
			}
			d.DefaultedFields = append(d.DefaultedFields, &DefaultedField{
				FieldName:  f.Name,
				FieldIndex: []int{i},
				Default:    zero,
			})
			continue
		}

		ft := f.Type
		nullable := false
		for ft.Kind() == reflect.Ptr {
			nullable = true
			ft = ft.Elem()
		}

		switch {
		case isLinkField(ft, tag):
			link, err := buildLinkField(reg, dial, f, i, ft, tag, nullable)
			if err != nil {
				return nil, err
			}
			d.LinkFields = append(d.LinkFields, link)
			continue
		case isCollectionKind(f.Type):
			cf, err := buildCollectionField(reg, f, i, opts, d.Table)
			if err != nil {
				return nil, err
			}
			d.CollectionFields = append(d.CollectionFields, cf)
			if cf.Flatten == nil {
				continue // child-table backed: no column on this table
			}
			// Flattened: falls through to single-column handling below
			// using the flatten codec's declared SQL type.
			col, err := flattenedColumn(cf, f, i, tag)
			if err != nil {
				return nil, err
			}
			d.Columns = append(d.Columns, col)
			d.byField[col.FieldName] = col
			d.byName[col.ColumnName] = col
			continue
		}

		col, err := buildColumn(reg, dial, f, i, ft, tag, nullable)
		if err != nil {
			return nil, err
		}
		d.Columns = append(d.Columns, col)
		d.byField[col.FieldName] = col
		d.byName[col.ColumnName] = col

		if col.IsPrimaryKey {
			if d.PrimaryKey != nil {
				return nil, &DescriptorError{Type: t.String(), Reason: fmt.Sprintf("duplicate primary key (%s and %s)", d.PrimaryKey.FieldName, col.FieldName)}
			}
			d.PrimaryKey = col
		}
		if col.IsSecondaryKey {
			d.SecondaryKeys = append(d.SecondaryKeys, col)
		}
	}

	if d.PrimaryKey == nil {
		synthetic := &Column{
			FieldName:    "",
			ColumnName:   "id",
			GoType:       reflect.TypeOf(int64(0)),
			SQLType:      "BIGINT",
			SQLiteType:   "INTEGER",
			IsPrimaryKey: true,
			IsAutoKey:    true,
			IsMutable:    false,
		}
		d.PrimaryKey = synthetic
		d.SyntheticPK = true
		d.Columns = append([]*Column{synthetic}, d.Columns...)
		d.byName[synthetic.ColumnName] = synthetic
	}

	return d, nil
}

func isLinkField(ft reflect.Type, tag fieldTag) bool {
	return tag.has("link") && ft.Kind() == reflect.Struct && ft != timeType
}

func isCollectionKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8 // []byte is a scalar, not a List
	case reflect.Map:
		return true
	}
	return false
}

// collectionKindOf tells List/Set/Map apart. Go has no built-in Set,
// so Set-kind fields are declared with the ptcorm.Set[T] marker type
// (itself just a named []T); anything else sliced is a List.
func collectionKindOf(t reflect.Type) (codec.Kind, reflect.Type) {
	switch t.Kind() {
	case reflect.Slice:
		if strings.HasPrefix(t.Name(), "Set[") {
			return codec.KindSet, t.Elem()
		}
		return codec.KindList, t.Elem()
	case reflect.Map:
		return codec.KindMap, t.Elem()
	}
	return codec.KindList, nil
}

func buildColumn(reg *codec.Registry, dial dialect.Dialect, f reflect.StructField, index int, ft reflect.Type, tag fieldTag, nullable bool) (*Column, error) {
	name := tag.name
	if name == "" {
		name = camelToSnake(f.Name)
	}
	length := tag.intValue("length", 0)

	col := &Column{
		FieldName:      f.Name,
		FieldIndex:     []int{index},
		ColumnName:     name,
		GoType:         f.Type,
		Length:         length,
		Nullable:       nullable,
		IsPrimaryKey:   tag.has("pk"),
		IsSecondaryKey: tag.has("key"),
		IsAutoKey:      tag.has("auto"),
	}
	col.IsMutable = !col.IsPrimaryKey && !col.IsSecondaryKey

	if codec.IsIndexEnum(ft) {
		factory, ok := codec.EnumFactoryFor(ft)
		if !ok {
			return nil, &DescriptorError{Type: ft.String(), Reason: "implements codec.IndexEnum but has no codec.RegisterEnum factory"}
		}
		col.enumFactory = factory
		col.SQLType = "BIGINT"
		col.SQLiteType = "INTEGER"
	} else if single, ok := reg.Single(ft); ok {
		col.single = single
		col.SQLType = single.SQLType
		col.SQLiteType = single.SQLiteType
		if col.Length == 0 {
			col.Length = single.Length
		}
	} else {
		sqlType, err := dial.ColumnType(ft, length)
		if err != nil {
			return nil, &DescriptorError{Type: f.Name, Reason: err.Error()}
		}
		col.SQLType = sqlType
		col.SQLiteType = sqlType
	}

	if v := tag.value("sqltype"); v != "" {
		col.SQLType = v
	}
	if v := tag.value("sqlitetype"); v != "" {
		col.SQLiteType = v
	}
	return col, nil
}

func flattenedColumn(cf *CollectionField, f reflect.StructField, index int, tag fieldTag) (*Column, error) {
	name := tag.name
	if name == "" {
		name = camelToSnake(f.Name)
	}
	cf.FlattenColumn = name
	return &Column{
		FieldName:  f.Name,
		FieldIndex: []int{index},
		ColumnName: name,
		GoType:     f.Type,
		SQLType:    cf.Flatten.SQLType,
		SQLiteType: cf.Flatten.SQLiteType,
		Length:     cf.Flatten.Length,
		Nullable:   true,
		IsMutable:  true,
	}, nil
}

func buildLinkField(reg *codec.Registry, dial dialect.Dialect, f reflect.StructField, index int, ft reflect.Type, tag fieldTag, nullable bool) (*LinkField, error) {
	target, err := describe(reg, dial, ft, nil)
	if err != nil {
		return nil, fmt.Errorf("link field %s: %w", f.Name, err)
	}
	fk := tag.value("link")
	if fk == "" {
		fk = camelToSnake(f.Name) + "_id"
	}
	return &LinkField{
		FieldName:  f.Name,
		FieldIndex: []int{index},
		FKColumn:   fk,
		Target:     target,
		Nullable:   nullable,
	}, nil
}

func buildCollectionField(reg *codec.Registry, f reflect.StructField, index int, opts *Options, parentTable string) (*CollectionField, error) {
	kind, elem := collectionKindOf(f.Type)
	cf := &CollectionField{
		FieldName:   f.Name,
		FieldIndex:  []int{index},
		ChildTable:  parentTable + "_" + camelToSnake(f.Name),
		Kind:        kind,
		ElementType: elem,
	}
	if c, ok := reg.Collection(kind, elem); ok {
		cf.Flatten = c
	}
	return cf, nil
}
