// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package y33t

import (
	"time"

	"github.com/u-root/y33t/pkg/metric"
	"github.com/u-root/y33t/pkg/reset"
)

// Timeout is how long the watchdog waits for the next ping.
const Timeout = 3 * time.Second

var (
	pings = metric.Counter(metric.MetricOpts{
		Namespace: "y33t",
		Subsystem: "wdt",
		Name:      "pings_total",
		Help:      "Number of ping commands written to the watchdog control register",
	})
	expirations = metric.Counter(metric.MetricOpts{
		Namespace: "y33t",
		Subsystem: "wdt",
		Name:      "expirations_total",
		Help:      "Number of times the watchdog expired and requested a reset",
	})
	armedGauge = metric.Gauge(metric.MetricOpts{
		Namespace: "y33t",
		Subsystem: "wdt",
		Name:      "armed",
		Help:      "Whether the watchdog is counting down",
	})
)

// arm starts a full Timeout from now, replacing any earlier deadline.
func (d *Device) arm() {
	d.armed = true
	at := d.host.Now().Add(Timeout)
	d.timer.Mod(at)
	pings.Inc()
	armedGauge.Set(1)
	log.Debugf("y33t: armed, expires at %v", at)
}

func (d *Device) expired() {
	if !d.armed {
		return
	}
	expirations.Inc()
	log.Warnf("y33t: not pinged within %v, requesting reset", Timeout)
	d.host.PendingReason().Set(reset.NoPing)
	d.host.RequestReset(reset.CauseGuestReset)
}
