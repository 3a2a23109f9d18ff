// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package cip23

import (
	"reflect"

	"github.com/pkg/errors"
)

// Well-known domain-root struct names. A type table may declare either one;
// declaring both is ambiguous and rejected before any data is walked.
const (
	DomainRootEIP712 = "EIP712Domain"
	DomainRootCIP23  = "CIP23Domain"
)

// BuildImplementation flattens the concrete domain and message data into the
// ordered entry stream replayed to the device: a root entry per struct
// context, an array entry per array expansion, and a field entry per leaf
// value, in exact pre-order.
func BuildImplementation(meta StructMetaMap, data TypedData) ([]ImplementationEntry, error) {
	b := &implementationBuilder{meta: meta}

	domainRoot, err := resolveDomainRoot(meta)
	if err != nil {
		return nil, err
	}
	if domainRoot != "" {
		b.emitRoot(domainRoot)
		if err := b.encodeStruct(domainRoot, data.Domain); err != nil {
			return nil, errors.Wrap(err, "domain")
		}
	}

	if _, ok := meta[data.PrimaryType]; !ok {
		return nil, errors.Errorf("primary type %q not declared in type table", data.PrimaryType)
	}
	b.emitRoot(data.PrimaryType)
	if err := b.encodeStruct(data.PrimaryType, data.Message); err != nil {
		return nil, errors.Wrap(err, "message")
	}
	return b.entries, nil
}

func resolveDomainRoot(meta StructMetaMap) (string, error) {
	_, has712 := meta[DomainRootEIP712]
	_, hasCIP := meta[DomainRootCIP23]
	switch {
	case has712 && hasCIP:
		return "", errors.Errorf("type table declares both %s and %s", DomainRootEIP712, DomainRootCIP23)
	case has712:
		return DomainRootEIP712, nil
	case hasCIP:
		return DomainRootCIP23, nil
	default:
		return "", nil
	}
}

type implementationBuilder struct {
	meta    StructMetaMap
	entries []ImplementationEntry
}

func (b *implementationBuilder) emitRoot(name string) {
	b.entries = append(b.entries, ImplementationEntry{Kind: EntryRoot, StructName: name})
}

func (b *implementationBuilder) encodeStruct(name string, data map[string]interface{}) error {
	fields, ok := b.meta[name]
	if !ok {
		return errors.Errorf("unknown struct reference %q", name)
	}
	for _, field := range fields {
		// Absence is an error; null, zero and false are valid leaf values.
		value, present := data[field.Name]
		if !present {
			return errors.Errorf("struct %q is missing field %q", name, field.Name)
		}
		if err := b.encodeField(field.Type, field.ArrayLevels, value); err != nil {
			return errors.Wrapf(err, "field %q", field.Name)
		}
	}
	return nil
}

func (b *implementationBuilder) encodeField(typ FieldType, levels []ArrayLevel, value interface{}) error {
	if len(levels) > 0 {
		return b.encodeArray(typ, levels, value)
	}
	if custom, ok := typ.(Custom); ok {
		obj, ok := value.(map[string]interface{})
		if !ok || obj == nil {
			return errors.Errorf("expected object for struct %q, got %T", custom.StructName, value)
		}
		return b.encodeStruct(custom.StructName, obj)
	}

	raw, err := EncodeValue(typ, value)
	if err != nil {
		return err
	}
	if len(raw) > MaxFieldValueLength {
		return errors.Errorf("value of %d bytes exceeds the %d byte limit", len(raw), MaxFieldValueLength)
	}
	b.entries = append(b.entries, ImplementationEntry{Kind: EntryField, Value: raw})
	return nil
}

// encodeArray consumes the outermost array level, emits the array entry and
// recurses into each element with the remaining levels. Recursion bottoms
// out at the scalar or struct encoding once all levels are consumed.
func (b *implementationBuilder) encodeArray(typ FieldType, levels []ArrayLevel, value interface{}) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return errors.Errorf("expected array, got %T", value)
	}
	size := rv.Len()
	if level := levels[0]; level.Length != nil && size != *level.Length {
		return errors.Errorf("array length %d does not match fixed length %d", size, *level.Length)
	}
	if size > 255 {
		return errors.Errorf("array length %d exceeds 255", size)
	}

	b.entries = append(b.entries, ImplementationEntry{Kind: EntryArray, Size: size})
	for i := 0; i < size; i++ {
		if err := b.encodeField(typ, levels[1:], rv.Index(i).Interface()); err != nil {
			return errors.Wrapf(err, "index %d", i)
		}
	}
	return nil
}
