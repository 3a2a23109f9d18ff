// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const hidTagAPDU = 0x05

// wrapCommand frames an APDU command into fixed-size HID report frames. Each
// frame starts with the channel id, the APDU tag and a big-endian sequence
// index; the sequence-zero frame additionally carries the total command
// length so the device knows when the command is complete.
func wrapCommand(channel uint16, command []byte, packetSize int) ([][]byte, error) {
	if packetSize < 8 {
		return nil, errors.Errorf("packet size %d too small for framing", packetSize)
	}
	if len(command) > 0xffff {
		return nil, errors.Errorf("command of %d bytes exceeds frame length field", len(command))
	}

	stream := make([]byte, 2, 2+len(command))
	binary.BigEndian.PutUint16(stream, uint16(len(command)))
	stream = append(stream, command...)

	var frames [][]byte
	space := packetSize - 5
	for seq := uint16(0); len(stream) > 0; seq++ {
		frame := make([]byte, packetSize)
		binary.BigEndian.PutUint16(frame[0:2], channel)
		frame[2] = hidTagAPDU
		binary.BigEndian.PutUint16(frame[3:5], seq)

		copy(frame[5:], stream)
		if len(stream) > space {
			stream = stream[space:]
		} else {
			stream = nil
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// unwrapResponseFrame validates one HID response frame and returns its
// payload. For the sequence-zero frame the total response length is returned
// as well; the caller accumulates payloads until that many bytes arrived.
func unwrapResponseFrame(channel uint16, frame []byte, wantSeq uint16) (payload []byte, total int, err error) {
	if len(frame) < 5 {
		return nil, 0, errors.Errorf("response frame of %d bytes too short", len(frame))
	}
	if got := binary.BigEndian.Uint16(frame[0:2]); got != channel {
		return nil, 0, errors.Errorf("response channel 0x%04x does not match 0x%04x", got, channel)
	}
	if frame[2] != hidTagAPDU {
		return nil, 0, errors.Errorf("unexpected response tag 0x%02x", frame[2])
	}
	if seq := binary.BigEndian.Uint16(frame[3:5]); seq != wantSeq {
		return nil, 0, errors.Errorf("response sequence %d, want %d", seq, wantSeq)
	}

	if wantSeq == 0 {
		if len(frame) < 7 {
			return nil, 0, errors.Errorf("first response frame of %d bytes too short", len(frame))
		}
		return frame[7:], int(binary.BigEndian.Uint16(frame[5:7])), nil
	}
	return frame[5:], 0, nil
}
