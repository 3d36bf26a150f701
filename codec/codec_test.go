package codec

import (
	"fmt"
	"reflect"
	"testing"
)

type fahrenheit float64

func TestRegisterAndLookupSingle(t *testing.T) {
	reg := NewRegistry()
	target := reflect.TypeOf(fahrenheit(0))
	err := reg.RegisterSingle(&Single{
		Target:     target,
		SQLType:    "DOUBLE",
		SQLiteType: "REAL",
		Serialize: func(v any) (any, error) {
			return float64(v.(fahrenheit)), nil
		},
		Deserialize: func(scalar any) (any, error) {
			return fahrenheit(scalar.(float64)), nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterSingle: %v", err)
	}
	got, ok := reg.Single(target)
	if !ok {
		t.Fatal("Single lookup failed after registration")
	}
	if got.SQLType != "DOUBLE" {
		t.Errorf("SQLType = %q, want DOUBLE", got.SQLType)
	}
	if _, ok := reg.Single(reflect.TypeOf(0)); ok {
		t.Error("expected no codec registered for int")
	}
}

func TestRegisterSingleRequiresTarget(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterSingle(&Single{}); err == nil {
		t.Error("expected an error when Target is nil")
	}
}

func TestRegisterAndLookupCollection(t *testing.T) {
	reg := NewRegistry()
	elem := reflect.TypeOf("")
	err := reg.RegisterCollection(&Collection{
		Single: Single{SQLType: "TEXT", SQLiteType: "TEXT"},
		Kind:   KindList,
		Element: elem,
	})
	if err != nil {
		t.Fatalf("RegisterCollection: %v", err)
	}
	if _, ok := reg.Collection(KindList, elem); !ok {
		t.Fatal("Collection lookup failed after registration")
	}
	if _, ok := reg.Collection(KindSet, elem); ok {
		t.Error("expected no codec for (KindSet, string)")
	}
}

func TestRegisterCollectionRequiresElement(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCollection(&Collection{Kind: KindList}); err == nil {
		t.Error("expected an error when Element is nil")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	reg := NewRegistry()
	target := reflect.TypeOf(fahrenheit(0))
	reg.RegisterSingle(&Single{Target: target, SQLType: "DOUBLE"})

	clone := reg.Clone()
	if _, ok := clone.Single(target); !ok {
		t.Fatal("clone should carry over existing registrations")
	}

	other := reflect.TypeOf(int32(0))
	clone.RegisterSingle(&Single{Target: other, SQLType: "INTEGER"})
	if _, ok := reg.Single(other); ok {
		t.Error("mutating a clone should not affect the original registry")
	}
}

type statusEnum int

const (
	statusActive statusEnum = iota
	statusInactive
)

func (s statusEnum) EnumIndex() int64 { return int64(s) }

func TestIsIndexEnumAndFactory(t *testing.T) {
	t.Cleanup(func() {
		enumMu.Lock()
		delete(enumFactories, reflect.TypeOf(statusEnum(0)))
		enumMu.Unlock()
	})

	typ := reflect.TypeOf(statusEnum(0))
	if !IsIndexEnum(typ) {
		t.Fatal("statusEnum implements EnumIndex; IsIndexEnum should be true")
	}
	if _, ok := EnumFactoryFor(typ); ok {
		t.Error("no factory registered yet, EnumFactoryFor should report false")
	}

	RegisterEnum(typ, func(index int64) (IndexEnum, error) {
		switch index {
		case 0:
			return statusActive, nil
		case 1:
			return statusInactive, nil
		default:
			return nil, fmt.Errorf("unknown status index %d", index)
		}
	})

	factory, ok := EnumFactoryFor(typ)
	if !ok {
		t.Fatal("expected factory to be registered")
	}
	v, err := factory(1)
	if err != nil {
		t.Fatalf("factory(1): %v", err)
	}
	if v.(statusEnum) != statusInactive {
		t.Errorf("factory(1) = %v, want statusInactive", v)
	}
	if _, err := factory(99); err == nil {
		t.Error("expected an error for an unknown index")
	}
}

func TestIsIndexEnumFalseForPlainType(t *testing.T) {
	if IsIndexEnum(reflect.TypeOf("")) {
		t.Error("plain string type should not be considered an IndexEnum")
	}
}
