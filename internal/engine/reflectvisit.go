// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Reflection-based binding: turns a composed Value into a concrete Go
// value via reflect, built on top of Visitor/dispatch rather than walking
// the Value tree itself. decodeValue is the recursive entry point used for
// struct fields, slice elements, and map entries; it is where
// Unmarshaler/TextUnmarshaler hooks are honored, since those need the raw
// node before dispatch commits to a particular Visit call.

package engine

import (
	"fmt"
	"math/big"
	"reflect"
)

type textUnmarshaler interface {
	UnmarshalText([]byte) error
}

// TaggedValue is what a generic (interface{}) decode produces for a node
// whose tag the schema did not classify as one of the standard kinds.
type TaggedValue struct {
	Tag   string
	Value any
}

// decodeValue binds v onto target, which must be addressable. It is the
// recursive workhorse behind struct fields, slice elements, and map
// entries, and the one place Unmarshaler/TextUnmarshaler are checked.
func decodeValue(v Value, ctx *dispatchContext, target reflect.Value) error {
	if v.Kind == AliasKind {
		resolved, err := resolveAlias(v, ctx)
		if err != nil {
			return err
		}
		v = resolved
	}

	for target.Kind() == reflect.Pointer {
		if target.IsNil() {
			if v.Kind == NullKind {
				return nil
			}
			target.Set(reflect.New(target.Type().Elem()))
		}
		target = target.Elem()
	}

	if target.CanAddr() {
		addr := target.Addr()
		if u, ok := addr.Interface().(Unmarshaler); ok {
			return u.UnmarshalYAML(&v)
		}
		if v.Kind == StringKind {
			if tu, ok := addr.Interface().(textUnmarshaler); ok {
				return tu.UnmarshalText([]byte(v.Str))
			}
		}
	}

	if target.Kind() == reflect.Interface && target.NumMethod() == 0 {
		out, err := dispatch(v, ctx, &genericVisitor{ctx: ctx})
		if err != nil {
			return err
		}
		if out == nil {
			target.Set(reflect.Zero(target.Type()))
		} else {
			target.Set(reflect.ValueOf(out))
		}
		return nil
	}

	visitor := &reflectVisitor{target: target, ctx: ctx, mark: v.Mark}
	_, err := dispatch(v, ctx, visitor)
	return err
}

// reflectVisitor implements Visitor by assigning into a fixed reflect
// target. Its VisitSequence/VisitMapping implementations recognize the
// concrete sliceSeqAccess/mappingAccess types from this package and call
// decodeValue directly per element, rather than going through the public
// SeqAccess/MapAccess indirection — the indirection exists for Visitor
// implementations outside this package; here it would only cost the
// Unmarshaler hook on every element.
type reflectVisitor struct {
	target reflect.Value
	ctx    *dispatchContext
	mark   Mark
}

func (r *reflectVisitor) typeError(cause string) error {
	return &TypeError{Mark: r.mark, Cause: cause}
}

func (r *reflectVisitor) VisitNull() (any, error) {
	if r.target.CanSet() {
		r.target.Set(reflect.Zero(r.target.Type()))
	}
	return nil, nil
}

func (r *reflectVisitor) VisitBool(v bool) (any, error) {
	if r.target.Kind() != reflect.Bool {
		return nil, r.typeError(fmt.Sprintf("cannot decode !!bool into %s", r.target.Type()))
	}
	r.target.SetBool(v)
	return nil, nil
}

func (r *reflectVisitor) VisitInt(v int64) (any, error) {
	switch r.target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if r.target.OverflowInt(v) {
			return nil, r.typeError(fmt.Sprintf("%d overflows %s", v, r.target.Type()))
		}
		r.target.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if v < 0 || r.target.OverflowUint(uint64(v)) {
			return nil, r.typeError(fmt.Sprintf("%d overflows %s", v, r.target.Type()))
		}
		r.target.SetUint(uint64(v))
	case reflect.Float32, reflect.Float64:
		r.target.SetFloat(float64(v))
	default:
		return nil, r.typeError(fmt.Sprintf("cannot decode !!int into %s", r.target.Type()))
	}
	return nil, nil
}

func (r *reflectVisitor) VisitBigInt(v *big.Int) (any, error) {
	if r.target.Type() == bigIntType {
		r.target.Set(reflect.ValueOf(*v))
		return nil, nil
	}
	if n, ok := int64IfFits(v); ok {
		return r.VisitInt(n)
	}
	return nil, r.typeError(fmt.Sprintf("%s overflows %s", v.String(), r.target.Type()))
}

func (r *reflectVisitor) VisitFloat(v float64) (any, error) {
	switch r.target.Kind() {
	case reflect.Float32, reflect.Float64:
		r.target.SetFloat(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v != float64(int64(v)) {
			return nil, r.typeError(fmt.Sprintf("%v is not an integer value for %s", v, r.target.Type()))
		}
		return r.VisitInt(int64(v))
	default:
		return nil, r.typeError(fmt.Sprintf("cannot decode !!float into %s", r.target.Type()))
	}
	return nil, nil
}

func (r *reflectVisitor) VisitString(v string) (any, error) {
	switch r.target.Kind() {
	case reflect.String:
		r.target.SetString(v)
	case reflect.Slice:
		if r.target.Type().Elem().Kind() == reflect.Uint8 {
			r.target.SetBytes([]byte(v))
			break
		}
		return nil, r.typeError(fmt.Sprintf("cannot decode !!str into %s", r.target.Type()))
	default:
		return nil, r.typeError(fmt.Sprintf("cannot decode !!str into %s", r.target.Type()))
	}
	return nil, nil
}

func (r *reflectVisitor) VisitBinary(v []byte) (any, error) {
	switch {
	case r.target.Kind() == reflect.Slice && r.target.Type().Elem().Kind() == reflect.Uint8:
		r.target.SetBytes(v)
	case r.target.Kind() == reflect.String:
		r.target.SetString(string(v))
	default:
		return nil, r.typeError(fmt.Sprintf("cannot decode !!binary into %s", r.target.Type()))
	}
	return nil, nil
}

func (r *reflectVisitor) VisitTagged(tag string, inner Value) (any, error) {
	return nil, decodeValue(inner, r.ctx, r.target)
}

func (r *reflectVisitor) VisitSequence(seq SeqAccess) (any, error) {
	if r.target.Kind() != reflect.Slice && r.target.Kind() != reflect.Array {
		return nil, r.typeError(fmt.Sprintf("cannot decode a sequence into %s", r.target.Type()))
	}
	sa, ok := seq.(*sliceSeqAccess)
	if !ok {
		return r.visitSequenceForeign(seq)
	}
	items := sa.items[sa.pos:]
	sa.pos = len(sa.items)

	if r.target.Kind() == reflect.Array {
		n := r.target.Len()
		for i := 0; i < n; i++ {
			if i < len(items) {
				if err := decodeValue(items[i], sa.ctx, r.target.Index(i)); err != nil {
					return nil, err
				}
			} else {
				r.target.Index(i).Set(reflect.Zero(r.target.Type().Elem()))
			}
		}
		return nil, nil
	}

	out := reflect.MakeSlice(r.target.Type(), len(items), len(items))
	for i, item := range items {
		if err := decodeValue(item, sa.ctx, out.Index(i)); err != nil {
			return nil, err
		}
	}
	r.target.Set(out)
	return nil, nil
}

// visitSequenceForeign handles a SeqAccess implementation this package
// does not own (none ship today, but Visitor is a public interface).
func (r *reflectVisitor) visitSequenceForeign(seq SeqAccess) (any, error) {
	n := seq.Len()
	out := reflect.MakeSlice(r.target.Type(), 0, n)
	for {
		elem := reflect.New(r.target.Type().Elem()).Elem()
		elemVisitor := &reflectVisitor{target: elem, ctx: r.ctx, mark: r.mark}
		_, ok, err := seq.NextElement(elemVisitor)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = reflect.Append(out, elem)
	}
	r.target.Set(out)
	return nil, nil
}

func (r *reflectVisitor) VisitMapping(m MapAccess) (any, error) {
	ma, ok := m.(*mappingAccess)
	if !ok {
		return nil, r.typeError("unsupported MapAccess implementation")
	}
	switch r.target.Kind() {
	case reflect.Struct:
		return nil, r.bindStruct(ma)
	case reflect.Map:
		return nil, r.bindMap(ma)
	default:
		return nil, r.typeError(fmt.Sprintf("cannot decode a mapping into %s", r.target.Type()))
	}
}

func (r *reflectVisitor) bindStruct(ma *mappingAccess) error {
	sinfo, err := getStructInfo(r.target.Type())
	if err != nil {
		return err
	}

	if len(sinfo.InlineUnmarshalers) > 0 {
		whole := Value{Mark: r.mark, Kind: MappingKind, Mapping: &Mapping{Entries: ma.entries}}
		for _, path := range sinfo.InlineUnmarshalers {
			field := r.target
			for _, idx := range path {
				if field.Kind() == reflect.Pointer {
					if field.IsNil() {
						field.Set(reflect.New(field.Type().Elem()))
					}
					field = field.Elem()
				}
				field = field.Field(idx)
			}
			u, ok := field.Addr().Interface().(Unmarshaler)
			if !ok {
				return r.typeError("inlined field does not implement Unmarshaler")
			}
			if err := u.UnmarshalYAML(&whole); err != nil {
				return err
			}
		}
	}

	var inlineMapVal reflect.Value
	if sinfo.InlineMap >= 0 {
		inlineMapVal = r.target.Field(sinfo.InlineMap)
		if inlineMapVal.IsNil() {
			inlineMapVal.Set(reflect.MakeMap(inlineMapVal.Type()))
		}
	}

	entries := ma.entries[ma.pos:]
	ma.pos = len(ma.entries)
	for _, e := range entries {
		keyStr, ok := scalarKeyString(e.Key)
		if !ok {
			return r.typeError("mapping key is not a plain scalar and cannot bind to a struct field")
		}
		if finfo, found := sinfo.FieldsMap[keyStr]; found {
			field := fieldByIndexPath(r.target, finfo)
			if err := decodeValue(e.Value, ma.ctx, field); err != nil {
				return err
			}
			continue
		}
		if inlineMapVal.IsValid() {
			keyV := reflect.New(inlineMapVal.Type().Key()).Elem()
			keyV.SetString(keyStr)
			elemV := reflect.New(inlineMapVal.Type().Elem()).Elem()
			if err := decodeValue(e.Value, ma.ctx, elemV); err != nil {
				return err
			}
			inlineMapVal.SetMapIndex(keyV, elemV)
			continue
		}
		if ma.ctx.knownFields {
			return &TypeError{Mark: e.Key.Mark, Cause: fmt.Sprintf("field %q not found in type %s", keyStr, r.target.Type())}
		}
	}
	return nil
}

func fieldByIndexPath(v reflect.Value, finfo fieldInfo) reflect.Value {
	if finfo.Inline == nil {
		return v.Field(finfo.Num)
	}
	for _, idx := range finfo.Inline {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(idx)
	}
	return v
}

func (r *reflectVisitor) bindMap(ma *mappingAccess) error {
	if r.target.IsNil() {
		r.target.Set(reflect.MakeMap(r.target.Type()))
	}
	keyType := r.target.Type().Key()
	elemType := r.target.Type().Elem()
	entries := ma.entries[ma.pos:]
	ma.pos = len(ma.entries)
	for _, e := range entries {
		keyV := reflect.New(keyType).Elem()
		if err := decodeValue(e.Key, ma.ctx, keyV); err != nil {
			return err
		}
		elemV := reflect.New(elemType).Elem()
		if err := decodeValue(e.Value, ma.ctx, elemV); err != nil {
			return err
		}
		r.target.SetMapIndex(keyV, elemV)
	}
	return nil
}

func scalarKeyString(v Value) (string, bool) {
	switch v.Kind {
	case StringKind:
		return v.Str, true
	case BoolKind:
		return fmt.Sprint(v.Bool), true
	case IntKind:
		return fmt.Sprint(v.Int), true
	case FloatKind:
		return fmt.Sprint(v.Float), true
	}
	return "", false
}

var bigIntType = reflect.TypeOf(big.Int{})

const (
	maxInt = int64(^uint(0) >> 1)
	minInt = -maxInt - 1
)

func int64IfFits(v *big.Int) (int64, bool) {
	if v.IsInt64() {
		return v.Int64(), true
	}
	return 0, false
}

// genericVisitor produces an any tree for decode targets typed as
// interface{} or map[string]any: map[string]any for mappings, []any for
// sequences, native Go scalar types otherwise.
type genericVisitor struct {
	ctx *dispatchContext
}

func (g *genericVisitor) VisitNull() (any, error)             { return nil, nil }
func (g *genericVisitor) VisitBool(v bool) (any, error)       { return v, nil }
func (g *genericVisitor) VisitFloat(v float64) (any, error)   { return v, nil }
func (g *genericVisitor) VisitString(v string) (any, error)   { return v, nil }
func (g *genericVisitor) VisitBinary(v []byte) (any, error)   { return v, nil }

func (g *genericVisitor) VisitInt(v int64) (any, error) {
	if v >= minInt && v <= maxInt {
		return int(v), nil
	}
	return v, nil
}

func (g *genericVisitor) VisitBigInt(v *big.Int) (any, error) {
	if n, ok := int64IfFits(v); ok {
		return g.VisitInt(n)
	}
	return v, nil
}

func (g *genericVisitor) VisitTagged(tag string, inner Value) (any, error) {
	v, err := dispatch(inner, g.ctx, g)
	if err != nil {
		return nil, err
	}
	return TaggedValue{Tag: tag, Value: v}, nil
}

func (g *genericVisitor) VisitSequence(seq SeqAccess) (any, error) {
	out := make([]any, 0, seq.Len())
	for {
		v, ok, err := seq.NextElement(g)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

func (g *genericVisitor) VisitMapping(m MapAccess) (any, error) {
	out := make(map[string]any, m.Len())
	for {
		key, ok, err := m.NextKey(g)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		val, err := m.NextValue(g)
		if err != nil {
			return nil, err
		}
		out[fmt.Sprint(key)] = val
	}
	return out, nil
}
