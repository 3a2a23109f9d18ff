// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package cip23

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

var (
	arraySuffixRe = regexp.MustCompile(`\[(\d*)\]$`)
	baseTypeRe    = regexp.MustCompile(`^(\w+?)(\d*)$`)
)

// ParseType parses a typed-data type string such as "Person", "uint256" or
// "bytes32[2][]" into its base FieldType and its array levels, outermost
// first. An empty level slice means the type is a scalar.
func ParseType(typeString string) (FieldType, []ArrayLevel, error) {
	base := typeString

	// Strip array suffixes innermost-first, then reverse so that index 0 is
	// the outermost dimension.
	var levels []ArrayLevel
	for {
		m := arraySuffixRe.FindStringSubmatch(base)
		if m == nil {
			break
		}
		if m[1] == "" {
			levels = append(levels, Dynamic())
		} else {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, errors.Wrapf(err, "invalid array length in %q", typeString)
			}
			if n < 1 || n > 255 {
				return nil, nil, errors.Errorf("array length %d out of range in %q", n, typeString)
			}
			levels = append(levels, Fixed(n))
		}
		base = base[:len(base)-len(m[0])]
	}
	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}

	m := baseTypeRe.FindStringSubmatch(base)
	if m == nil {
		return nil, nil, errors.Errorf("malformed type string %q", typeString)
	}
	name, suffix := m[1], m[2]

	typ, err := resolveBaseType(name, suffix)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "type string %q", typeString)
	}
	return typ, levels, nil
}

func resolveBaseType(name, suffix string) (FieldType, error) {
	switch name {
	case "int", "uint":
		if suffix == "" {
			return nil, errors.Errorf("%s requires an explicit bit width", name)
		}
		bits, err := strconv.Atoi(suffix)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s width", name)
		}
		if bits == 0 || bits%8 != 0 || bits/8 > 32 {
			return nil, errors.Errorf("invalid %s width %d", name, bits)
		}
		if name == "int" {
			return Int{Size: bits / 8}, nil
		}
		return Uint{Size: bits / 8}, nil

	case "bytes":
		if suffix == "" {
			return DynamicBytes{}, nil
		}
		size, err := strconv.Atoi(suffix)
		if err != nil {
			return nil, errors.Wrap(err, "invalid bytes size")
		}
		if size < 1 || size > 32 {
			return nil, errors.Errorf("invalid bytes size %d", size)
		}
		return FixedBytes{Size: size}, nil

	case "address":
		return Address{}, nil
	case "bool":
		return Bool{}, nil
	case "string":
		return String{}, nil

	default:
		// Anything else references a struct declared in the same type table.
		return Custom{StructName: name + suffix}, nil
	}
}
