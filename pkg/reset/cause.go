// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reset

import "fmt"

// Cause describes who or what asked for a system reset.
type Cause int

const (
	// CauseNone is used for the power-on reset.
	CauseNone Cause = iota
	CauseHostError
	CauseHostQMPSystemReset
	CauseHostSignal
	CauseGuestShutdown
	// CauseGuestReset is what a watchdog expiry requests.
	CauseGuestReset
	CauseGuestPanic
	CauseSubsystemReset
)

var causeNames = map[Cause]string{
	CauseNone:               "none",
	CauseHostError:          "host-error",
	CauseHostQMPSystemReset: "host-qmp-system-reset",
	CauseHostSignal:         "host-signal",
	CauseGuestShutdown:      "guest-shutdown",
	CauseGuestReset:         "guest-reset",
	CauseGuestPanic:         "guest-panic",
	CauseSubsystemReset:     "subsystem-reset",
}

func (c Cause) String() string {
	if s, ok := causeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("cause(%d)", int(c))
}

// GuestInitiated reports whether the reset was requested from inside the
// emulated system rather than by the host.
func (c Cause) GuestInitiated() bool {
	switch c {
	case CauseGuestShutdown, CauseGuestReset, CauseGuestPanic:
		return true
	}
	return false
}
