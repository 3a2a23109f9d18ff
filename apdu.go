// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"fmt"

	"github.com/pkg/errors"
)

// opcode enumerates the instructions supported by the Conflux Ledger app.
type opcode byte

// param1 enumerates the first-parameter values of specific opcodes. The same
// value may be reused between opcodes.
type param1 byte

// param2 enumerates the second-parameter values of specific opcodes. The
// same value may be reused between opcodes.
type param2 byte

const (
	claConflux = 0xe0

	opGetAddress          opcode = 0x02 // Returns the public key and address for a BIP-32 path
	opSignTransaction     opcode = 0x04 // Signs a transaction after user validation
	opGetConfiguration    opcode = 0x06 // Returns the app configuration and version
	opSignPersonalMessage opcode = 0x08 // Signs a personal message after user validation
	opSignTypedData       opcode = 0x0c // Requests the signature over previously sent typed data
	opTypedStructDef      opcode = 0x1a // Sends one typed-data struct definition element
	opTypedStructImpl     opcode = 0x1c // Sends one typed-data struct implementation element

	p1DirectAddress  param1 = 0x00 // Return the address without confirmation
	p1ConfirmAddress param1 = 0x01 // Display the address and confirm before returning
	p1InitData       param1 = 0x00 // First data block of a signing payload
	p1ContData       param1 = 0x80 // Subsequent data block of a signing payload
	p1Complete       param1 = 0x00 // Final chunk of a typed-data element
	p1Partial        param1 = 0x01 // Non-final chunk of a typed-data element

	p2NoChainCode        param2 = 0x00 // Do not return the chain code with the address
	p2ChainCode          param2 = 0x01 // Return the chain code with the address
	p2StructName         param2 = 0x00 // Typed-data definition: struct name
	p2StructField        param2 = 0xff // Typed-data definition/implementation: struct field
	p2RootStruct         param2 = 0x00 // Typed-data implementation: root struct
	p2Array              param2 = 0x0f // Typed-data implementation: array
	p2FullImplementation param2 = 0x01 // Final signature over the full implementation
)

// maxChunkLength bounds a single APDU payload; the length field is one byte.
const maxChunkLength = 255

const swOK = 0x9000

// swInvalidData is reported when the app rejects the payload, most commonly
// because blind signing is disabled.
const swInvalidData = 0x6a80

// StatusError is a device-reported failure carrying the APDU status word.
type StatusError struct {
	Status uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned status 0x%04x", e.Status)
}

// statusError converts a non-success status word into an error, remapping
// well-known statuses to a friendlier hint while preserving the original
// failure as the cause.
func statusError(status uint16) error {
	if status == swOK {
		return nil
	}
	err := &StatusError{Status: status}
	if status == swInvalidData {
		return errors.Wrap(err, "payload rejected, enable blind signing in the Conflux app settings")
	}
	return err
}

// exchange frames one APDU command, performs the blocking round trip and
// strips the status word from the response.
func (a *App) exchange(op opcode, p1 param1, p2 param2, data []byte) ([]byte, error) {
	if len(data) > maxChunkLength {
		return nil, errors.Errorf("APDU payload of %d bytes exceeds %d", len(data), maxChunkLength)
	}

	command := make([]byte, 0, 5+len(data))
	command = append(command, claConflux, byte(op), byte(p1), byte(p2), byte(len(data)))
	command = append(command, data...)

	response, err := a.device.Exchange(command)
	if err != nil {
		return nil, errors.Wrap(err, "device exchange")
	}
	if len(response) < 2 {
		return nil, errors.Errorf("response of %d bytes lacks a status word", len(response))
	}
	status := uint16(response[len(response)-2])<<8 | uint16(response[len(response)-1])
	if err := statusError(status); err != nil {
		return nil, err
	}
	return response[:len(response)-2], nil
}

// sendChunked transmits an arbitrary-length typed-data payload on the given
// channel, splitting it at the APDU payload ceiling. Every chunk but the
// last is marked partial; an empty payload is sent as a single zero-length
// complete chunk. Chunks are strictly sequential: each response is awaited
// before the next chunk goes out.
func (a *App) sendChunked(op opcode, channel param2, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return a.exchange(op, p1Complete, channel, nil)
	}

	var (
		reply []byte
		err   error
	)
	for len(payload) > 0 {
		n := len(payload)
		if n > maxChunkLength {
			n = maxChunkLength
		}
		marker := p1Partial
		if n == len(payload) {
			marker = p1Complete
		}
		if reply, err = a.exchange(op, marker, channel, payload[:n]); err != nil {
			return nil, err
		}
		payload = payload[n:]
	}
	return reply, nil
}

// sendBlocks streams a signing payload (path plus data) in APDU-sized blocks
// with the init/continuation markers used by the transaction and
// personal-message opcodes.
func (a *App) sendBlocks(op opcode, p2 param2, payload []byte) ([]byte, error) {
	var (
		marker = p1InitData
		reply  []byte
		err    error
	)
	for len(payload) > 0 {
		n := len(payload)
		if n > maxChunkLength {
			n = maxChunkLength
		}
		if reply, err = a.exchange(op, marker, p2, payload[:n]); err != nil {
			return nil, err
		}
		payload = payload[n:]
		marker = p1ContData
	}
	return reply, nil
}
