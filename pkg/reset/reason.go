// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reset holds the vocabulary shared between a machine that performs
// system resets and the devices that request or observe them.
package reset

import "fmt"

// Reason is the boot reason code a watchdog reports for the running session.
type Reason uint8

const (
	Clean    Reason = 0
	NoPing   Reason = 1
	Overheat Reason = 2
	Other    Reason = 0xff
)

func (r Reason) String() string {
	switch r {
	case Clean:
		return "clean"
	case NoPing:
		return "no-ping"
	case Overheat:
		return "overheat"
	case Other:
		return "other"
	}
	return fmt.Sprintf("reason(%#x)", uint8(r))
}

// Valid reports whether r is one of the defined boot reason codes.
func (r Reason) Valid() bool {
	switch r {
	case Clean, NoPing, Overheat, Other:
		return true
	}
	return false
}

// Latch is the pending boot reason cell. It carries a reason across the
// reset that re-initializes the device which wrote it, so it must never live
// inside that device.
//
// The zero value holds Clean.
type Latch struct {
	pending Reason
}

// Set records the reason the next reset should report.
func (l *Latch) Set(r Reason) {
	l.pending = r
}

// Take returns the pending reason and clears the cell back to Clean.
func (l *Latch) Take() Reason {
	r := l.pending
	l.pending = Clean
	return r
}

// Peek returns the pending reason without consuming it.
func (l *Latch) Peek() Reason {
	return l.pending
}
