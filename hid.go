//go:build !ledger_mock
// +build !ledger_mock

// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"sync"
	"time"

	"github.com/luxfi/hid"
	"github.com/pkg/errors"
)

const (
	ledgerVendorID  = 0x2c97
	ledgerUsagePage = 0xffa0
	hidChannel      = 0x0101
	hidPacketSize   = 64

	hidReadTimeout = 20 * time.Second
)

// list of supported product ids as well as their corresponding interfaces
// based on https://github.com/LedgerHQ/ledger-live/blob/develop/libs/ledgerjs/packages/devices/src/index.ts
var supportedLedgerProductID = map[uint8]int{
	0x40: 0, // Ledger Nano X
	0x10: 0, // Ledger Nano S
	0x50: 0, // Ledger Nano S Plus
	0x60: 0, // Ledger Stax
	0x70: 0, // Ledger Flex
}

type hidAdmin struct{}

type hidDevice struct {
	device      *hid.Device
	readOnce    *sync.Once
	readChannel chan []byte
}

// NewDeviceAdmin returns a DeviceAdmin backed by USB HID enumeration.
func NewDeviceAdmin() DeviceAdmin {
	return &hidAdmin{}
}

func (admin *hidAdmin) ListDevices() ([]string, error) {
	devices := hid.Enumerate(0, 0)
	if len(devices) == 0 {
		log.Debug("No devices. Ledger locked, or another process may have control of the device.")
	}

	var paths []string
	for _, d := range devices {
		logDeviceInfo(d)
		if d.VendorID == ledgerVendorID && isLedgerDevice(d) {
			paths = append(paths, d.Path)
		}
	}
	return paths, nil
}

func logDeviceInfo(d hid.DeviceInfo) {
	log.Debugf("============ %s", d.Path)
	log.Debugf("VendorID      : %x", d.VendorID)
	log.Debugf("ProductID     : %x", d.ProductID)
	log.Debugf("Release       : %x", d.Release)
	log.Debugf("Serial        : %x", d.Serial)
	log.Debugf("Manufacturer  : %s", d.Manufacturer)
	log.Debugf("Product       : %s", d.Product)
	log.Debugf("UsagePage     : %x", d.UsagePage)
	log.Debugf("Usage         : %x", d.Usage)
}

func isLedgerDevice(d hid.DeviceInfo) bool {
	deviceFound := d.UsagePage == ledgerUsagePage

	// Workarounds for possible empty usage pages
	productIDMM := uint8(d.ProductID >> 8)
	if interfaceID, supported := supportedLedgerProductID[productIDMM]; deviceFound || (supported && (interfaceID == d.Interface)) {
		return true
	}

	return false
}

func (admin *hidAdmin) CountDevices() int {
	devices := hid.Enumerate(0, 0)

	count := 0
	for _, d := range devices {
		if d.VendorID == ledgerVendorID && isLedgerDevice(d) {
			count++
		}
	}

	return count
}

func (admin *hidAdmin) Connect(deviceIndex int) (Device, error) {
	devices := hid.Enumerate(0, 0)

	currentIndex := 0
	for _, d := range devices {
		if d.VendorID == ledgerVendorID && isLedgerDevice(d) {
			if currentIndex == deviceIndex {
				device, err := d.Open()
				if err != nil {
					return nil, err
				}
				return &hidDevice{device: device, readOnce: &sync.Once{}, readChannel: make(chan []byte)}, nil
			}
			currentIndex++
		}
	}

	return nil, errors.New("device not found")
}

func (d *hidDevice) write(buffer []byte) error {
	total := len(buffer)
	written := 0
	for written < total {
		n, err := d.device.Write(buffer)
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

func (d *hidDevice) read() <-chan []byte {
	d.readOnce.Do(func() {
		go d.readThread()
	})
	return d.readChannel
}

func (d *hidDevice) readThread() {
	defer close(d.readChannel)
	for {
		buffer := make([]byte, hidPacketSize)
		n, err := d.device.Read(buffer)
		if err != nil {
			return
		}
		select {
		case d.readChannel <- buffer[:n]:
		default:
		}
	}
}

// Exchange sends one APDU command and blocks until the full response frame
// sequence has been reassembled.
func (d *hidDevice) Exchange(command []byte) ([]byte, error) {
	if len(command) < 4 {
		return nil, errors.New("APDU commands should not be smaller than 4 bytes")
	}

	log.Debugf("[HID] => %x", command)

	frames, err := wrapCommand(hidChannel, command, hidPacketSize)
	if err != nil {
		return nil, err
	}
	for _, frame := range frames {
		if err := d.write(frame); err != nil {
			return nil, err
		}
	}

	response, err := d.getResponse()
	if err != nil {
		return nil, err
	}

	log.Debugf("[HID] <= %x", response)
	return response, nil
}

func (d *hidDevice) getResponse() ([]byte, error) {
	readChannel := d.read()

	var (
		response []byte
		total    = -1
		seq      uint16
	)
	for total < 0 || len(response) < total {
		select {
		case frame, ok := <-readChannel:
			if !ok {
				return nil, errors.New("read channel closed")
			}
			payload, length, err := unwrapResponseFrame(hidChannel, frame, seq)
			if err != nil {
				return nil, err
			}
			if seq == 0 {
				total = length
			}
			response = append(response, payload...)
			seq++
		case <-time.After(hidReadTimeout):
			return nil, errors.New("timeout reading from device")
		}
	}
	response = response[:total]

	if len(response) < 2 {
		return nil, errors.Errorf("response too short: %d bytes", len(response))
	}
	return response, nil
}

func (d *hidDevice) Close() error {
	return d.device.Close()
}
