// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package y33t

import "github.com/u-root/y33t/pkg/hardware/i2c"

// Event handles a bus condition. Only a write start matters: the next byte
// written is a register pointer.
func (d *Device) Event(e i2c.Event) {
	if e == i2c.StartSend {
		d.addrByte = true
	}
}

// Recv returns the selected register and moves the pointer to the next one.
func (d *Device) Recv() byte {
	var res byte
	switch d.ptr {
	case RegControl:
		if d.armed {
			res = 1
		}
	case RegBootReason:
		res = byte(d.bootReason)
	default:
		res = unimplemented
	}
	d.ptr = (d.ptr + 1) % RegisterCount
	return res
}

// Send takes a register pointer right after a write start and a command
// otherwise. Only the ping command to the control register does anything.
func (d *Device) Send(data byte) {
	if d.addrByte {
		if data < RegisterCount {
			d.ptr = data
		} else {
			d.ptr = 0
		}
		d.addrByte = false
		return
	}

	if d.ptr != RegControl {
		return
	}
	switch data {
	case CmdPing:
		d.arm()
	}
}
