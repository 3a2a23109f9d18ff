// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/Conflux-Chain/hw-app-conflux/cip23"
)

// App is a client for the Conflux app running on a Ledger device. All
// methods issue strictly sequential blocking exchanges; concurrent use of
// the same device must be serialized by the caller, since the app keeps
// implicit parsing state between commands.
type App struct {
	device Device
}

// NewApp wraps an open device connection.
func NewApp(device Device) *App {
	return &App{device: device}
}

// Signature is a recoverable signature as returned by the device.
type Signature struct {
	V byte
	R [32]byte
	S [32]byte
}

func parseSignature(reply []byte) (*Signature, error) {
	if len(reply) != 65 {
		return nil, errors.Errorf("reply of %d bytes lacks a signature", len(reply))
	}
	sig := &Signature{V: reply[0]}
	copy(sig.R[:], reply[1:33])
	copy(sig.S[:], reply[33:65])
	return sig, nil
}

// AppConfiguration reports the app's feature flags and version.
type AppConfiguration struct {
	ArbitraryDataEnabled bool
	Version              string
}

// GetAppConfiguration retrieves the Conflux app configuration.
//
// The reply layout is one flags byte (bit 0: arbitrary data signing enabled)
// followed by the major, minor and patch version bytes.
func (a *App) GetAppConfiguration() (*AppConfiguration, error) {
	reply, err := a.exchange(opGetConfiguration, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	if len(reply) != 4 {
		return nil, errors.Errorf("configuration reply of %d bytes, want 4", len(reply))
	}
	return &AppConfiguration{
		ArbitraryDataEnabled: reply[0]&0x01 != 0,
		Version:              fmt.Sprintf("%d.%d.%d", reply[1], reply[2], reply[3]),
	}, nil
}

// AddressInfo is the device's answer to an address retrieval: the
// uncompressed public key, the account address as reported by the app, and
// the chain code when requested. Address formatting and checksumming are the
// caller's concern.
type AddressInfo struct {
	PublicKey []byte
	Address   []byte
	ChainCode []byte
}

// GetAddress retrieves the public key and address for the given BIP-32 path.
// With confirm set the device displays the address and waits for the user;
// with chainCode set the BIP-32 chain code is returned as well.
func (a *App) GetAddress(path string, confirm, chainCode bool) (*AddressInfo, error) {
	pathBytes, err := serializePath(path)
	if err != nil {
		return nil, err
	}

	p1 := p1DirectAddress
	if confirm {
		p1 = p1ConfirmAddress
	}
	p2 := p2NoChainCode
	if chainCode {
		p2 = p2ChainCode
	}
	reply, err := a.exchange(opGetAddress, p1, p2, pathBytes)
	if err != nil {
		return nil, err
	}

	info := &AddressInfo{}
	if len(reply) < 1 || len(reply) < 1+int(reply[0]) {
		return nil, errors.New("reply lacks public key entry")
	}
	info.PublicKey = append([]byte{}, reply[1:1+int(reply[0])]...)
	reply = reply[1+int(reply[0]):]

	if len(reply) < 1 || len(reply) < 1+int(reply[0]) {
		return nil, errors.New("reply lacks address entry")
	}
	info.Address = append([]byte{}, reply[1:1+int(reply[0])]...)
	reply = reply[1+int(reply[0]):]

	if chainCode {
		if len(reply) < 32 {
			return nil, errors.New("reply lacks chain code entry")
		}
		info.ChainCode = append([]byte{}, reply[:32]...)
	}
	return info, nil
}

// SignPersonalMessage asks the device to sign a personal message. The
// payload is the serialized path, the 4-byte big-endian message length and
// the message itself, streamed in APDU-sized blocks.
func (a *App) SignPersonalMessage(path string, message []byte) (*Signature, error) {
	pathBytes, err := serializePath(path)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 0, len(pathBytes)+4+len(message))
	payload = append(payload, pathBytes...)
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(message)))
	payload = append(payload, message...)

	reply, err := a.sendBlocks(opSignPersonalMessage, 0, payload)
	if err != nil {
		return nil, err
	}
	return parseSignature(reply)
}

// SignTransaction asks the device to sign an unsigned transaction. The app
// version is probed at call time and the transaction layout is dispatched
// against it: dynamic-fee transactions need a 2.x app, legacy layouts work
// everywhere.
func (a *App) SignTransaction(path string, tx Transaction) (*Signature, error) {
	pathBytes, err := serializePath(path)
	if err != nil {
		return nil, err
	}

	config, err := a.GetAppConfiguration()
	if err != nil {
		return nil, errors.Wrap(err, "probe app version")
	}
	version, err := parseVersion(config.Version)
	if err != nil {
		return nil, err
	}
	if min := tx.minVersion(); versionBefore(version, min) {
		return nil, errors.Errorf(
			"app v%s does not support this transaction type, v%d.%d.%d or later required",
			config.Version, min[0], min[1], min[2])
	}

	raw, err := tx.encodeForSigning()
	if err != nil {
		return nil, err
	}
	reply, err := a.sendBlocks(opSignTransaction, 0, append(pathBytes, raw...))
	if err != nil {
		return nil, err
	}
	return parseSignature(reply)
}

// SignTypedData runs the full CIP-23/EIP-712 signing session: struct
// definitions first, then the flattened struct implementation, then the
// final signature request for the given path. A nil document skips straight
// to the signature request, continuing a previously submitted implementation
// (the caller is responsible for having submitted one).
func (a *App) SignTypedData(path string, data *cip23.TypedData) (*Signature, error) {
	pathBytes, err := serializePath(path)
	if err != nil {
		return nil, err
	}

	if data != nil {
		if err := a.sendTypedData(data); err != nil {
			return nil, err
		}
	}

	reply, err := a.exchange(opSignTypedData, 0, p2FullImplementation, pathBytes)
	if err != nil {
		return nil, err
	}
	sig, err := parseSignature(reply)
	if err != nil {
		return nil, err
	}
	log.Debugf("typed data signature v=%d r=%s s=%s", sig.V, hexutil.Encode(sig.R[:]), hexutil.Encode(sig.S[:]))
	return sig, nil
}

// sendTypedData encodes the whole document up front, so malformed input
// fails before the first frame is sent, then transmits the definitions in
// sorted order followed by the implementation entries in pre-order.
func (a *App) sendTypedData(data *cip23.TypedData) error {
	definitions, meta, err := cip23.BuildDefinitions(data.Types)
	if err != nil {
		return err
	}
	type structFrames struct {
		name   string
		fields [][]byte
	}
	frames := make([]structFrames, 0, len(definitions))
	for _, def := range definitions {
		sf := structFrames{name: def.Name}
		for _, field := range def.Fields {
			encoded, err := cip23.EncodeFieldDefinition(field)
			if err != nil {
				return errors.Wrapf(err, "struct %q field %q", def.Name, field.Name)
			}
			if len(encoded) > maxChunkLength {
				return errors.Errorf("struct %q field %q definition of %d bytes exceeds %d",
					def.Name, field.Name, len(encoded), maxChunkLength)
			}
			sf.fields = append(sf.fields, encoded)
		}
		frames = append(frames, sf)
	}
	entries, err := cip23.BuildImplementation(meta, *data)
	if err != nil {
		return err
	}

	for _, sf := range frames {
		if _, err := a.exchange(opTypedStructDef, p1Complete, p2StructName, []byte(sf.name)); err != nil {
			return errors.Wrapf(err, "send struct name %q", sf.name)
		}
		for _, field := range sf.fields {
			if _, err := a.exchange(opTypedStructDef, p1Complete, p2StructField, field); err != nil {
				return errors.Wrapf(err, "send field definition of %q", sf.name)
			}
		}
	}

	rootSeen := false
	for _, entry := range entries {
		switch entry.Kind {
		case cip23.EntryRoot:
			rootSeen = true
			if _, err := a.exchange(opTypedStructImpl, p1Complete, p2RootStruct, []byte(entry.StructName)); err != nil {
				return errors.Wrapf(err, "send root struct %q", entry.StructName)
			}
		case cip23.EntryArray:
			if !rootSeen {
				return errors.New("array entry before any root struct")
			}
			if _, err := a.sendChunked(opTypedStructImpl, p2Array, []byte{byte(entry.Size)}); err != nil {
				return errors.Wrap(err, "send array size")
			}
		case cip23.EntryField:
			if !rootSeen {
				return errors.New("field entry before any root struct")
			}
			payload := binary.BigEndian.AppendUint16(make([]byte, 0, 2+len(entry.Value)), uint16(len(entry.Value)))
			payload = append(payload, entry.Value...)
			if _, err := a.sendChunked(opTypedStructImpl, p2StructField, payload); err != nil {
				return errors.Wrap(err, "send field value")
			}
		default:
			return errors.Errorf("unknown implementation entry kind %d", entry.Kind)
		}
	}
	return nil
}

// parseVersion parses an "x.y.z" app version string.
func parseVersion(version string) ([3]byte, error) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) != 3 {
		return [3]byte{}, errors.Errorf("malformed app version %q", version)
	}
	var out [3]byte
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return [3]byte{}, errors.Errorf("malformed app version %q", version)
		}
		out[i] = byte(n)
	}
	return out, nil
}

func versionBefore(version, min [3]byte) bool {
	for i := 0; i < 3; i++ {
		if version[i] != min[i] {
			return version[i] < min[i]
		}
	}
	return false
}
