// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vclock is a virtual clock for device models. Time only moves when
// the host advances it, and expired deadlines run synchronously on the
// caller's goroutine.
package vclock

import (
	"time"

	"github.com/jmhodges/clock"
)

// Timers is what a device model needs from its clock.
type Timers interface {
	Now() time.Time
	NewDeadline(cb func()) Deadline
}

// Deadline is a cancellable one-shot expiry. It has at most one outstanding
// expiry at a time.
type Deadline interface {
	// Mod schedules the callback at the given absolute time, replacing any
	// previously scheduled expiry.
	Mod(at time.Time)
	// Del cancels the outstanding expiry, if any.
	Del()
	Pending() bool
	// Expires is only meaningful while Pending.
	Expires() time.Time
	// Free cancels the deadline and releases it from the clock.
	Free()
}

// Clock is a virtual clock. It is not safe for concurrent use; the host
// serializes clock advances with every other device callback.
type Clock struct {
	clk    clock.FakeClock
	queue  []*deadline
	seq    uint64
	firing bool
}

// New returns a clock set to the fake clock's default epoch.
func New() *Clock {
	return &Clock{clk: clock.NewFake()}
}

// NewAt returns a clock set to t.
func NewAt(t time.Time) *Clock {
	c := New()
	c.clk.Set(t)
	return c
}

// NewFrom returns a clock starting at src's current time. From then on the
// virtual clock runs independently of src; pass clock.New() to boot at wall
// clock time.
func NewFrom(src clock.Clock) *Clock {
	return NewAt(src.Now())
}

func (c *Clock) Now() time.Time {
	return c.clk.Now()
}

// Set moves the clock to t without firing anything. It is meant for
// restoring a snapshot, before any deadline is re-armed.
func (c *Clock) Set(t time.Time) {
	c.clk.Set(t)
}

func (c *Clock) NewDeadline(cb func()) Deadline {
	return &deadline{c: c, cb: cb}
}

// Next returns the earliest pending expiry.
func (c *Clock) Next() (time.Time, bool) {
	d := c.earliest()
	if d == nil {
		return time.Time{}, false
	}
	return d.at, true
}

// Pending returns the number of outstanding deadlines.
func (c *Clock) Pending() int {
	return len(c.queue)
}

// Advance moves the clock forward by d and returns how many deadlines fired.
func (c *Clock) Advance(d time.Duration) int {
	return c.AdvanceTo(c.Now().Add(d))
}

// AdvanceTo moves the clock to t, firing every deadline that expires at or
// before t in expiry order. Deadlines with equal expiry fire in the order
// they were scheduled. The clock reads the deadline's expiry while its
// callback runs. A t in the past leaves the clock where it is.
func (c *Clock) AdvanceTo(t time.Time) int {
	if c.firing {
		panic("vclock: clock advanced from a deadline callback")
	}
	c.firing = true
	defer func() { c.firing = false }()

	fired := 0
	for {
		d := c.earliest()
		if d == nil || d.at.After(t) {
			break
		}
		c.remove(d)
		if d.at.After(c.Now()) {
			c.clk.Set(d.at)
		}
		fired++
		d.cb()
	}
	if t.After(c.Now()) {
		c.clk.Set(t)
	}
	return fired
}

func (c *Clock) earliest() *deadline {
	var first *deadline
	for _, d := range c.queue {
		if first == nil || d.at.Before(first.at) || (d.at.Equal(first.at) && d.seq < first.seq) {
			first = d
		}
	}
	return first
}

func (c *Clock) insert(d *deadline) {
	c.seq++
	d.seq = c.seq
	d.pending = true
	c.queue = append(c.queue, d)
}

func (c *Clock) remove(d *deadline) {
	for i, q := range c.queue {
		if q == d {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			break
		}
	}
	d.pending = false
}

type deadline struct {
	c       *Clock
	cb      func()
	at      time.Time
	seq     uint64
	pending bool
	freed   bool
}

func (d *deadline) Mod(at time.Time) {
	if d.freed {
		panic("vclock: Mod on freed deadline")
	}
	if d.pending {
		d.c.remove(d)
	}
	d.at = at
	d.c.insert(d)
}

func (d *deadline) Del() {
	if d.pending {
		d.c.remove(d)
	}
}

func (d *deadline) Pending() bool {
	return d.pending
}

func (d *deadline) Expires() time.Time {
	return d.at
}

func (d *deadline) Free() {
	d.Del()
	d.freed = true
}
