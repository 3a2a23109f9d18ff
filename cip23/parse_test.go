// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package cip23

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScalarTypes(t *testing.T) {
	tests := []struct {
		typeString string
		want       FieldType
	}{
		{"uint8", Uint{Size: 1}},
		{"uint256", Uint{Size: 32}},
		{"int8", Int{Size: 1}},
		{"int256", Int{Size: 32}},
		{"address", Address{}},
		{"bool", Bool{}},
		{"string", String{}},
		{"bytes", DynamicBytes{}},
		{"bytes1", FixedBytes{Size: 1}},
		{"bytes32", FixedBytes{Size: 32}},
		{"Person", Custom{StructName: "Person"}},
		{"Order2", Custom{StructName: "Order2"}},
	}
	for _, tt := range tests {
		typ, levels, err := ParseType(tt.typeString)
		require.NoError(t, err, tt.typeString)
		require.Equal(t, tt.want, typ, tt.typeString)
		require.Empty(t, levels, tt.typeString)
	}
}

func TestParseArrayLevels(t *testing.T) {
	typ, levels, err := ParseType("bytes32[2][]")
	require.NoError(t, err)
	require.Equal(t, FixedBytes{Size: 32}, typ)
	require.Len(t, levels, 2)
	require.NotNil(t, levels[0].Length)
	require.Equal(t, 2, *levels[0].Length)
	require.Nil(t, levels[1].Length)

	typ, levels, err = ParseType("Person[]")
	require.NoError(t, err)
	require.Equal(t, Custom{StructName: "Person"}, typ)
	require.Len(t, levels, 1)
	require.Nil(t, levels[0].Length)

	_, levels, err = ParseType("uint256[3]")
	require.NoError(t, err)
	require.Len(t, levels, 1)
	require.Equal(t, 3, *levels[0].Length)
}

func TestParseRejectsMalformedTypes(t *testing.T) {
	for _, typeString := range []string{
		"",
		"uint",      // missing width
		"int",       // missing width
		"uint7",     // not a multiple of 8
		"uint264",   // beyond 32 bytes
		"int0",      // zero width
		"bytes0",    // below range
		"bytes33",   // beyond range
		"uint256[",  // dangling bracket
		"[3]uint8",  // suffix in front
		"a-b",       // invalid identifier
		"uint8[0]",   // fixed length below range
		"uint8[256]", // fixed length beyond range
	} {
		_, _, err := ParseType(typeString)
		require.Error(t, err, typeString)
	}
}

// Parsing then re-encoding the definition must reproduce the structural
// decomposition of the type string.
func TestParseEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		typeString string
		fieldName  string
		want       []byte
	}{
		{"uint256", "amount", []byte{0x42, 32, 6, 'a', 'm', 'o', 'u', 'n', 't'}},
		{"bytes32[3]", "ids", []byte{0xc6, 32, 1, 1, 3, 3, 'i', 'd', 's'}},
		{"Person[]", "to", []byte{0x80, 6, 'P', 'e', 'r', 's', 'o', 'n', 1, 0, 2, 't', 'o'}},
		{"bytes[2][]", "blobs", []byte{0x87, 2, 1, 2, 0, 5, 'b', 'l', 'o', 'b', 's'}},
		{"address", "wallet", []byte{0x03, 6, 'w', 'a', 'l', 'l', 'e', 't'}},
	}
	for _, tt := range tests {
		typ, levels, err := ParseType(tt.typeString)
		require.NoError(t, err, tt.typeString)
		encoded, err := EncodeFieldDefinition(FieldDefinition{Name: tt.fieldName, Type: typ, ArrayLevels: levels})
		require.NoError(t, err, tt.typeString)
		require.Equal(t, tt.want, encoded, tt.typeString)
	}
}
