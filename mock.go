//go:build ledger_mock
// +build ledger_mock

// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import "github.com/pkg/errors"

type mockAdmin struct{}

type mockDevice struct{}

// NewDeviceAdmin returns a DeviceAdmin with a single always-successful
// device, for environments without USB access.
func NewDeviceAdmin() DeviceAdmin {
	return &mockAdmin{}
}

func (admin *mockAdmin) CountDevices() int {
	return 1
}

func (admin *mockAdmin) ListDevices() ([]string, error) {
	return []string{"mock"}, nil
}

func (admin *mockAdmin) Connect(deviceIndex int) (Device, error) {
	if deviceIndex != 0 {
		return nil, errors.New("device not found")
	}
	return &mockDevice{}, nil
}

func (d *mockDevice) Exchange(command []byte) ([]byte, error) {
	// Reply with a bare success status word.
	return []byte{0x90, 0x00}, nil
}

func (d *mockDevice) Close() error {
	return nil
}
