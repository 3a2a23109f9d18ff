// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

// Package conflux implements the host side of the Conflux Ledger app
// protocol: address retrieval, transaction and personal-message signing, and
// CIP-23/EIP-712 typed-data signing over APDU exchanges.
package conflux

// DeviceAdmin defines the interface for discovering Ledger devices.
type DeviceAdmin interface {
	CountDevices() int
	ListDevices() ([]string, error)
	Connect(deviceIndex int) (Device, error)
}

// Device defines a single blocking APDU exchange with a Ledger device. One
// command is in flight at a time; the response includes the trailing
// two-byte status word.
type Device interface {
	Exchange(command []byte) ([]byte, error)
	Close() error
}
