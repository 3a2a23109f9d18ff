// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package cip23

import (
	"encoding/hex"
	"math"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// MaxFieldValueLength caps a single encoded field value; longer values
// cannot be length-prefixed with two bytes on the wire.
const MaxFieldValueLength = 65535

// EncodeValue produces the canonical byte representation of one leaf value
// for the given field type. Integers are minimally encoded (the device
// left-pads on its side); strings are raw UTF-8; addresses and byte strings
// are hex-decoded.
func EncodeValue(typ FieldType, value interface{}) ([]byte, error) {
	switch t := typ.(type) {
	case Int:
		return encodeInteger(value, t.Size*8)
	case Uint:
		return encodeInteger(value, t.Size*8)
	case Bool:
		return encodeInteger(value, 256)
	case Address:
		return encodeHexSlice(value, 20)
	case FixedBytes:
		return encodeHexSlice(value, t.Size)
	case DynamicBytes:
		return encodeDynamicBytes(value)
	case String:
		return encodeString(value)
	case Custom:
		return nil, errors.Errorf("struct reference %q is not a leaf value", t.StructName)
	default:
		return nil, errors.Errorf("unsupported field type %T", typ)
	}
}

// encodeInteger turns the accepted integer representations into minimal
// big-endian bytes. Negative values are encoded as their two's-complement
// representation modulo 2^bits. A nil value encodes as empty, as does zero;
// absence of a key is the caller's error to catch, not this layer's.
func encodeInteger(value interface{}, bits int) ([]byte, error) {
	if value == nil {
		return []byte{}, nil
	}

	v := new(big.Int)
	switch n := value.(type) {
	case string:
		if strings.HasPrefix(n, "0x") || strings.HasPrefix(n, "0X") {
			return decodeHex(n)
		}
		if _, ok := v.SetString(n, 10); !ok {
			return nil, errors.Errorf("invalid decimal integer %q", n)
		}
	case bool:
		if n {
			v.SetInt64(1)
		}
	case int:
		v.SetInt64(int64(n))
	case int8:
		v.SetInt64(int64(n))
	case int16:
		v.SetInt64(int64(n))
	case int32:
		v.SetInt64(int64(n))
	case int64:
		v.SetInt64(n)
	case uint:
		v.SetUint64(uint64(n))
	case uint8:
		v.SetUint64(uint64(n))
	case uint16:
		v.SetUint64(uint64(n))
	case uint32:
		v.SetUint64(uint64(n))
	case uint64:
		v.SetUint64(n)
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > float64(math.MaxInt64) {
			return nil, errors.Errorf("number %v is not a safe integer", n)
		}
		v.SetInt64(int64(n))
	case *big.Int:
		if n == nil {
			return []byte{}, nil
		}
		v.Set(n)
	default:
		return nil, errors.Errorf("cannot encode %T as integer", value)
	}

	if v.Sign() < 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		v.Mod(v, modulus)
	}
	return v.Bytes(), nil
}

// encodeHexSlice hex-decodes a string value and slices it to at most size
// bytes.
func encodeHexSlice(value interface{}, size int) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, errors.Errorf("expected hex string, got %T", value)
	}
	raw, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	if len(raw) > size {
		raw = raw[:size]
	}
	return raw, nil
}

func encodeDynamicBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return []byte{}, nil
	case []byte:
		return v, nil
	case string:
		return decodeHex(v)
	default:
		return nil, errors.Errorf("expected byte string, got %T", value)
	}
}

func encodeString(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return []byte{}, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.Errorf("expected string, got %T", value)
	}
}

// decodeHex accepts hex with or without the 0x prefix; an odd nibble count
// is padded with a leading zero to align on whole bytes.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex value")
	}
	return raw, nil
}
