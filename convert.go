package ptcorm

import (
	"fmt"
	"reflect"
	"time"

	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/dialect"
	"github.com/FxRayHughes/ptcorm/util/types"
)

func fieldAt(rv reflect.Value, index []int) reflect.Value {
	return rv.FieldByIndex(index)
}

// columnValue converts one struct field into the value bound against
// col's placeholder, applying codecs, indexed-enum encoding and the
// dialect's bool/time storage mapping (spec §4.1, §6).
func columnValue(dial dialect.Dialect, col *Column, fv reflect.Value) (any, error) {
	if col.Nullable && fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
	}
	if !fv.IsValid() {
		return nil, nil
	}

	if col.enumFactory != nil {
		ie, ok := fv.Interface().(codec.IndexEnum)
		if !ok {
			if fv.CanAddr() {
				if ie2, ok2 := fv.Addr().Interface().(codec.IndexEnum); ok2 {
					ie = ie2
					ok = true
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("ptcorm: field %s does not implement codec.IndexEnum", col.FieldName)
		}
		return ie.EnumIndex(), nil
	}

	if col.single != nil {
		return col.single.Serialize(fv.Interface())
	}

	switch v := fv.Interface().(type) {
	case time.Time:
		return dialect.EncodeTime(dial.Name(), v), nil
	case bool:
		return dialect.EncodeBool(v), nil
	}

	return fv.Interface(), nil
}

// setColumnValue writes a scanned raw value back into the struct field
// for col, reversing columnValue's encoding.
func setColumnValue(dial dialect.Dialect, col *Column, fv reflect.Value, raw any) error {
	target := fv
	if col.Nullable && fv.Kind() == reflect.Ptr {
		if raw == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		target = fv.Elem()
	} else if raw == nil {
		return nil
	}

	if col.enumFactory != nil {
		idx, err := toInt64(raw)
		if err != nil {
			return err
		}
		ie, err := col.enumFactory(idx)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(ie).Convert(target.Type()))
		return nil
	}

	if col.single != nil {
		dv, err := col.single.Deserialize(raw)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(dv).Convert(target.Type()))
		return nil
	}

	switch target.Interface().(type) {
	case time.Time:
		t, err := dialect.DecodeTime(dial.Name(), raw)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(t))
		return nil
	case bool:
		n, err := toInt64(raw)
		if err != nil {
			return err
		}
		target.SetBool(dialect.DecodeBool(n))
		return nil
	}

	return assign(target, raw)
}

func toInt64(raw any) (int64, error) {
	if b, ok := raw.([]byte); ok {
		return types.ToInt64(string(b))
	}
	return types.ToInt64(raw)
}

// assign performs a best-effort conversion of a database/sql scan
// result into the exact field type, covering the numeric/string width
// mismatches every one of the three corpus drivers introduces.
func assign(target reflect.Value, raw any) error {
	if b, ok := raw.([]byte); ok {
		if target.Kind() == reflect.String {
			target.SetString(string(b))
			return nil
		}
		raw = string(b)
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().ConvertibleTo(target.Type()) {
		target.Set(rv.Convert(target.Type()))
		return nil
	}
	if !target.CanAddr() {
		v := reflect.New(target.Type())
		if err := types.Convert(raw, v.Interface()); err != nil {
			return fmt.Errorf("ptcorm: cannot assign %T into %s: %w", raw, target.Type(), err)
		}
		target.Set(v.Elem())
		return nil
	}
	if err := types.Convert(raw, target.Addr().Interface()); err != nil {
		return fmt.Errorf("ptcorm: cannot assign %T into %s: %w", raw, target.Type(), err)
	}
	return nil
}
