// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package cip23

import (
	"sort"

	"github.com/pkg/errors"
)

// Descriptor-byte flags, combined with the FieldKind wire code in the low
// nibble.
const (
	descriptorTypeSize    = 0x40
	descriptorArrayLevels = 0x80
)

// BuildDefinitions turns a caller-supplied type table into the ordered
// struct definitions that must be sent to the device, plus the metadata map
// used later to walk the concrete data. Struct names are emitted in
// lexicographic order; the device associates definitions by name, so the
// ordering is part of the wire contract.
func BuildDefinitions(types map[string][]FieldDecl) ([]StructDefinition, StructMetaMap, error) {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]StructDefinition, 0, len(names))
	meta := make(StructMetaMap, len(names))
	for _, name := range names {
		fields := make([]FieldDefinition, 0, len(types[name]))
		for _, decl := range types[name] {
			typ, levels, err := ParseType(decl.Type)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "struct %q field %q", name, decl.Name)
			}
			fields = append(fields, FieldDefinition{
				Name:        decl.Name,
				Type:        typ,
				ArrayLevels: levels,
			})
		}
		defs = append(defs, StructDefinition{Name: name, Fields: fields})
		meta[name] = fields
	}
	return defs, meta, nil
}

// EncodeFieldDefinition serializes one field definition into the device wire
// format: a descriptor byte, the struct-name reference for custom types, the
// type size for sized types, the array levels if any, and finally the
// length-prefixed field name.
func EncodeFieldDefinition(def FieldDefinition) ([]byte, error) {
	descriptor := byte(def.Type.Kind())

	var typeName, typeSize []byte
	switch t := def.Type.(type) {
	case Custom:
		if len(t.StructName) == 0 || len(t.StructName) > 255 {
			return nil, errors.Errorf("struct reference name length %d out of range", len(t.StructName))
		}
		typeName = append([]byte{byte(len(t.StructName))}, t.StructName...)
	case Int:
		typeSize = []byte{byte(t.Size)}
		descriptor |= descriptorTypeSize
	case Uint:
		typeSize = []byte{byte(t.Size)}
		descriptor |= descriptorTypeSize
	case FixedBytes:
		typeSize = []byte{byte(t.Size)}
		descriptor |= descriptorTypeSize
	}

	var arrayLevels []byte
	if len(def.ArrayLevels) > 0 {
		if len(def.ArrayLevels) > 255 {
			return nil, errors.Errorf("too many array levels: %d", len(def.ArrayLevels))
		}
		descriptor |= descriptorArrayLevels
		arrayLevels = []byte{byte(len(def.ArrayLevels))}
		for _, level := range def.ArrayLevels {
			if level.Length == nil {
				arrayLevels = append(arrayLevels, 0)
				continue
			}
			if *level.Length < 1 || *level.Length > 255 {
				return nil, errors.Errorf("fixed array length %d out of range", *level.Length)
			}
			arrayLevels = append(arrayLevels, 1, byte(*level.Length))
		}
	}

	if len(def.Name) == 0 || len(def.Name) > 255 {
		return nil, errors.Errorf("field name length %d out of range", len(def.Name))
	}

	payload := []byte{descriptor}
	payload = append(payload, typeName...)
	payload = append(payload, typeSize...)
	payload = append(payload, arrayLevels...)
	payload = append(payload, byte(len(def.Name)))
	payload = append(payload, def.Name...)
	return payload, nil
}
