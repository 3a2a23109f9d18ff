// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

// Package cip23 encodes CIP-23/EIP-712 typed data into the binary struct
// definitions and struct implementations consumed by the Conflux Ledger app.
// It is a pure encoder: transmission is left to the caller.
package cip23

// FieldKind enumerates the type families a struct member can have. The
// numeric values are the wire codes carried in the low nibble of a field
// definition's descriptor byte.
type FieldKind byte

const (
	KindCustom       FieldKind = 0
	KindInt          FieldKind = 1
	KindUint         FieldKind = 2
	KindAddress      FieldKind = 3
	KindBool         FieldKind = 4
	KindString       FieldKind = 5
	KindFixedBytes   FieldKind = 6
	KindDynamicBytes FieldKind = 7
)

// FieldType is the closed set of member types. Each variant carries exactly
// the data its kind needs: a struct reference for Custom, a byte size for
// Int, Uint and FixedBytes, nothing for the rest.
type FieldType interface {
	// Kind returns the wire code of the variant.
	Kind() FieldKind
}

// Custom references another struct declared in the same type table.
type Custom struct {
	StructName string
}

// Int is a signed integer of Size bytes, 1 <= Size <= 32.
type Int struct {
	Size int
}

// Uint is an unsigned integer of Size bytes, 1 <= Size <= 32.
type Uint struct {
	Size int
}

// Address is a 20-byte account address.
type Address struct{}

// Bool is a boolean, encoded through the integer path.
type Bool struct{}

// String is arbitrary UTF-8 text.
type String struct{}

// FixedBytes is a byte string of exactly Size bytes, 1 <= Size <= 32.
type FixedBytes struct {
	Size int
}

// DynamicBytes is a byte string of arbitrary length.
type DynamicBytes struct{}

func (Custom) Kind() FieldKind       { return KindCustom }
func (Int) Kind() FieldKind          { return KindInt }
func (Uint) Kind() FieldKind         { return KindUint }
func (Address) Kind() FieldKind      { return KindAddress }
func (Bool) Kind() FieldKind         { return KindBool }
func (String) Kind() FieldKind       { return KindString }
func (FixedBytes) Kind() FieldKind   { return KindFixedBytes }
func (DynamicBytes) Kind() FieldKind { return KindDynamicBytes }

// ArrayLevel describes one dimension of an array type, outermost first.
// A nil Length means the dimension is dynamic; otherwise the dimension is
// fixed to exactly *Length elements, 1 <= *Length <= 255.
type ArrayLevel struct {
	Length *int
}

// Dynamic returns an ArrayLevel whose length is determined at encode time.
func Dynamic() ArrayLevel {
	return ArrayLevel{}
}

// Fixed returns an ArrayLevel of exactly n elements.
func Fixed(n int) ArrayLevel {
	return ArrayLevel{Length: &n}
}

// FieldDefinition is one member of a struct definition. It is immutable once
// built: created by the definition builder, consumed by the wire codec and
// the implementation builder.
type FieldDefinition struct {
	Name        string
	Type        FieldType
	ArrayLevels []ArrayLevel
}

// StructMetaMap maps a struct name to its ordered member definitions. Built
// once per signing request and read-only afterwards. A Custom member may
// reference a name missing from the map; the dangling reference only fails
// when the corresponding data is actually walked.
type StructMetaMap map[string][]FieldDefinition

// StructDefinition pairs a struct name with its encoded members, in the
// order they must reach the device.
type StructDefinition struct {
	Name   string
	Fields []FieldDefinition
}

// EntryKind tags the variants of an implementation entry.
type EntryKind byte

const (
	// EntryRoot announces the struct context for the entries that follow.
	EntryRoot EntryKind = iota
	// EntryArray announces that the next Size element groups belong to an array.
	EntryArray
	// EntryField carries one leaf value's canonical encoding.
	EntryField
)

// ImplementationEntry is one step of the flattened pre-order traversal of
// the concrete data tree. The device replays the stream 1:1, so emission
// order is part of the wire contract.
type ImplementationEntry struct {
	Kind EntryKind

	// StructName is set for EntryRoot.
	StructName string
	// Size is set for EntryArray, 0 <= Size <= 255.
	Size int
	// Value is set for EntryField.
	Value []byte
}

// FieldDecl is one `{name, type}` pair of a caller-supplied type table.
type FieldDecl struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedData is the caller-facing CIP-23/EIP-712 document. Domain and Message
// are owned by the caller and are only traversed, never mutated.
type TypedData struct {
	Types       map[string][]FieldDecl `json:"types"`
	PrimaryType string                 `json:"primaryType"`
	Domain      map[string]interface{} `json:"domain"`
	Message     map[string]interface{} `json:"message"`
}
