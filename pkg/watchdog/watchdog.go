// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watchdog is a driver for the y33t I2C watchdog, written against
// the tinygo drivers.I2C interface so it runs unchanged on a real bus or on
// the emulated one.
//
//	wdt := watchdog.New(bus)
//	why, err := wdt.BootReason()
//	...
//	err = wdt.Ping() // at least every 3 seconds from now on
package watchdog

import (
	"fmt"

	"github.com/u-root/y33t/pkg/reset"
	"tinygo.org/x/drivers"
)

// Address is the default bus address.
const Address = 0x33

const (
	regControl    = 0x00
	regBootReason = 0x01

	cmdPing = 13
)

// Device wraps an I2C connection to a y33t watchdog.
type Device struct {
	bus     drivers.I2C
	Address uint16

	w [2]byte
	r [1]byte
}

// New creates a new watchdog connection. It does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Ping arms the watchdog, or restarts its countdown if it is armed already.
func (d *Device) Ping() error {
	d.w[0] = regControl
	d.w[1] = cmdPing
	if err := d.bus.Tx(d.Address, d.w[:2], nil); err != nil {
		return fmt.Errorf("watchdog: ping: %w", err)
	}
	return nil
}

// Armed reports whether the watchdog is counting down.
func (d *Device) Armed() (bool, error) {
	v, err := d.readReg(regControl)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// BootReason reads why the running system was booted.
func (d *Device) BootReason() (reset.Reason, error) {
	v, err := d.readReg(regBootReason)
	if err != nil {
		return reset.Clean, err
	}
	return reset.Reason(v), nil
}

// ReadRegisters fills buf with consecutive registers starting at the
// control register. The device wraps around after the last register.
func (d *Device) ReadRegisters(buf []byte) error {
	d.w[0] = regControl
	if err := d.bus.Tx(d.Address, d.w[:1], buf); err != nil {
		return fmt.Errorf("watchdog: read registers: %w", err)
	}
	return nil
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:]); err != nil {
		return 0, fmt.Errorf("watchdog: read register %d: %w", reg, err)
	}
	return d.r[0], nil
}
