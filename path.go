// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/pkg/errors"
)

// The device refuses derivation paths beyond ten components.
const maxPathComponents = 10

// serializePath parses a BIP-32 path string such as "m/44'/503'/0'/0/0" and
// flattens it into the device layout: a component count byte followed by one
// big-endian uint32 per component.
func serializePath(path string) ([]byte, error) {
	parsed, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "derivation path %q", path)
	}
	if len(parsed) > maxPathComponents {
		return nil, errors.Errorf("derivation path %q has %d components, at most %d supported", path, len(parsed), maxPathComponents)
	}

	out := make([]byte, 1+4*len(parsed))
	out[0] = byte(len(parsed))
	for i, component := range parsed {
		binary.BigEndian.PutUint32(out[1+4*i:], component)
	}
	return out, nil
}
