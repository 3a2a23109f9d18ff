// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapCommandSingleFrame(t *testing.T) {
	command := []byte{0xe0, 0x06, 0x00, 0x00, 0x00}
	frames, err := wrapCommand(0x0101, command, 64)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	frame := frames[0]
	require.Len(t, frame, 64)
	require.Equal(t, []byte{0x01, 0x01, hidTagAPDU, 0x00, 0x00}, frame[:5])
	// Two-byte length, then the command, zero padded.
	require.Equal(t, []byte{0x00, 0x05}, frame[5:7])
	require.Equal(t, command, frame[7:12])
	require.Equal(t, bytes.Repeat([]byte{0}, 64-12), frame[12:])
}

func TestWrapCommandMultiFrame(t *testing.T) {
	command := make([]byte, 200)
	for i := range command {
		command[i] = byte(i)
	}
	frames, err := wrapCommand(0x0101, command, 64)
	require.NoError(t, err)
	// 202 bytes of stream at 59 per frame.
	require.Len(t, frames, 4)
	for i, frame := range frames {
		require.Equal(t, byte(i), frame[4])
	}

	// Reassemble and compare.
	var stream []byte
	for _, frame := range frames {
		stream = append(stream, frame[5:]...)
	}
	require.Equal(t, byte(0), stream[0])
	require.Equal(t, byte(200), stream[1])
	require.Equal(t, command, stream[2:202])
}

func TestUnwrapResponseFrame(t *testing.T) {
	frame := make([]byte, 64)
	frame[0], frame[1] = 0x01, 0x01
	frame[2] = hidTagAPDU
	frame[5], frame[6] = 0x00, 0x04
	copy(frame[7:], []byte{0xde, 0xad, 0x90, 0x00})

	payload, total, err := unwrapResponseFrame(0x0101, frame, 0)
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Equal(t, []byte{0xde, 0xad, 0x90, 0x00}, payload[:4])

	// Wrong channel, tag or sequence are all rejected.
	_, _, err = unwrapResponseFrame(0x0202, frame, 0)
	require.Error(t, err)

	_, _, err = unwrapResponseFrame(0x0101, frame, 1)
	require.Error(t, err)

	bad := append([]byte{}, frame...)
	bad[2] = 0x02
	_, _, err = unwrapResponseFrame(0x0101, bad, 0)
	require.Error(t, err)
}
