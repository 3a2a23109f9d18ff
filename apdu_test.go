// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendChunkedSplitsAtCeiling(t *testing.T) {
	device := newScriptedDevice()
	app := NewApp(device)

	payload := bytes.Repeat([]byte{0xab}, 600)
	_, err := app.sendChunked(opTypedStructImpl, p2StructField, payload)
	require.NoError(t, err)

	require.Len(t, device.frames, 3)
	require.Len(t, device.frames[0].data, 255)
	require.Len(t, device.frames[1].data, 255)
	require.Len(t, device.frames[2].data, 90)
	require.Equal(t, byte(p1Partial), device.frames[0].p1)
	require.Equal(t, byte(p1Partial), device.frames[1].p1)
	require.Equal(t, byte(p1Complete), device.frames[2].p1)
	for _, f := range device.frames {
		require.Equal(t, byte(p2StructField), f.p2)
	}
}

func TestSendChunkedExactBoundary(t *testing.T) {
	device := newScriptedDevice()
	app := NewApp(device)

	_, err := app.sendChunked(opTypedStructImpl, p2StructField, bytes.Repeat([]byte{1}, 255))
	require.NoError(t, err)
	require.Len(t, device.frames, 1)
	require.Equal(t, byte(p1Complete), device.frames[0].p1)
}

func TestSendChunkedEmptyPayload(t *testing.T) {
	device := newScriptedDevice()
	app := NewApp(device)

	_, err := app.sendChunked(opTypedStructImpl, p2Array, nil)
	require.NoError(t, err)
	require.Len(t, device.frames, 1)
	require.Empty(t, device.frames[0].data)
	require.Equal(t, byte(p1Complete), device.frames[0].p1)
}

func TestSendBlocksMarkers(t *testing.T) {
	device := newScriptedDevice()
	app := NewApp(device)

	_, err := app.sendBlocks(opSignTransaction, 0, bytes.Repeat([]byte{2}, 300))
	require.NoError(t, err)
	require.Len(t, device.frames, 2)
	require.Equal(t, byte(p1InitData), device.frames[0].p1)
	require.Equal(t, byte(p1ContData), device.frames[1].p1)
}

func TestExchangeRejectsOversizePayload(t *testing.T) {
	device := newScriptedDevice()
	app := NewApp(device)

	_, err := app.exchange(opSignTransaction, 0, 0, make([]byte, 256))
	require.Error(t, err)
	require.Empty(t, device.frames)
}

func TestStatusErrorMessage(t *testing.T) {
	require.NoError(t, statusError(swOK))

	err := statusError(0x6985)
	require.Error(t, err)
	require.Contains(t, err.Error(), "0x6985")
}
