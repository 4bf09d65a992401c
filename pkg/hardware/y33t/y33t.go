// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package y33t models the y33t watchdog, an I2C peripheral with two byte
// registers:
//
//	0  control      read: 1 if armed, 0 if not. write 13: arm or re-arm.
//	1  boot reason  read: why the running session was booted.
//
// Any other pointer reads as 0xff. Reads auto-increment the pointer modulo
// the register count. Once armed, the watchdog resets the system unless it
// is pinged again within Timeout. Only a system reset disarms it.
package y33t

import (
	"github.com/u-root/y33t/pkg/hardware/i2c"
	"github.com/u-root/y33t/pkg/hardware/vclock"
	"github.com/u-root/y33t/pkg/logger"
	"github.com/u-root/y33t/pkg/reset"
)

var log = logger.LogContainer.GetSimpleLogger()

const (
	RegControl    = 0
	RegBootReason = 1
	RegisterCount = 2

	CmdPing = 13

	unimplemented = 0xff
)

// Host is what the watchdog needs from the machine it is plugged into.
type Host interface {
	vclock.Timers
	// PendingReason is the latch that will be handed to Reset.
	PendingReason() *reset.Latch
	RequestReset(cause reset.Cause)
}

var _ i2c.Slave = (*Device)(nil)

// Device is one y33t watchdog. Its state only changes from bus callbacks,
// the deadline callback and Reset, which the host must serialize.
type Device struct {
	host  Host
	timer vclock.Deadline

	addrByte   bool
	ptr        uint8
	armed      bool
	bootReason reset.Reason
}

// New creates the device and allocates its deadline. The device is not
// usable until the host has reset it once.
func New(h Host) *Device {
	d := &Device{host: h}
	d.timer = h.NewDeadline(d.expired)
	return d
}

// Reset re-initializes the device and latches the boot reason for the new
// session from l, clearing l.
func (d *Device) Reset(l *reset.Latch) {
	d.addrByte = false
	d.ptr = 0
	d.timer.Del()
	d.armed = false
	armedGauge.Set(0)
	d.bootReason = l.Take()
	log.Infof("y33t: reset, boot reason %v", d.bootReason)
}

// Close cancels and releases the deadline.
func (d *Device) Close() {
	d.timer.Free()
	d.armed = false
	armedGauge.Set(0)
}

// Armed reports whether a countdown is running.
func (d *Device) Armed() bool {
	return d.armed
}

// BootReason is the reason latched at the last reset.
func (d *Device) BootReason() reset.Reason {
	return d.bootReason
}

// Pointer returns the register the next read or write addresses.
func (d *Device) Pointer() uint8 {
	return d.ptr
}
