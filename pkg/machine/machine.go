// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package machine is the host side of the device models: it owns the
// virtual clock and the I2C bus, and it performs the system resets that
// devices request.
package machine

import (
	"fmt"
	"time"

	"github.com/u-root/y33t/pkg/hardware/i2c"
	"github.com/u-root/y33t/pkg/hardware/vclock"
	"github.com/u-root/y33t/pkg/logger"
	"github.com/u-root/y33t/pkg/metric"
	"github.com/u-root/y33t/pkg/reset"
)

var (
	log = logger.LogContainer.GetSimpleLogger()

	resets = metric.CounterVec(metric.MetricOpts{
		Namespace: "y33t",
		Subsystem: "machine",
		Name:      "resets_total",
		Help:      "Number of system resets performed, by cause and by who asked for them",
	}, []string{"cause", "initiator"})
	bootsGauge = metric.Gauge(metric.MetricOpts{
		Namespace: "y33t",
		Subsystem: "machine",
		Name:      "boots",
		Help:      "Sequence number of the running boot, power-on being 1",
	})
)

// Device is a device model plugged into the machine's bus.
type Device interface {
	i2c.Slave
	// Reset re-initializes the device. l is the device's own pending boot
	// reason latch.
	Reset(l *reset.Latch)
	Close()
}

// Host is handed to a device when it is built. Each device gets its own.
type Host interface {
	vclock.Timers
	PendingReason() *reset.Latch
	RequestReset(cause reset.Cause)
}

type slot struct {
	m     *Machine
	addr  uint16
	dev   Device
	latch reset.Latch
}

func (s *slot) Now() time.Time {
	return s.m.clk.Now()
}

func (s *slot) NewDeadline(cb func()) vclock.Deadline {
	return s.m.clk.NewDeadline(cb)
}

func (s *slot) PendingReason() *reset.Latch {
	return &s.latch
}

func (s *slot) RequestReset(cause reset.Cause) {
	s.m.RequestReset(cause)
}

// Machine is not safe for concurrent use. Bus traffic, clock advances and
// resets must all come from the same goroutine.
type Machine struct {
	clk   *vclock.Clock
	bus   *i2c.Bus
	slots []*slot

	resetPending bool
	resetCause   reset.Cause
	boots        int
}

func New(clk *vclock.Clock) *Machine {
	return &Machine{
		clk: clk,
		bus: i2c.NewBus("i2c-0"),
	}
}

func (m *Machine) Clock() *vclock.Clock {
	return m.clk
}

func (m *Machine) Bus() *i2c.Bus {
	return m.bus
}

// Boots returns how many resets, power-on included, the machine went through.
func (m *Machine) Boots() int {
	return m.boots
}

// Attach builds a device with its own host view and plugs it into the bus
// at addr.
func (m *Machine) Attach(addr uint16, build func(h Host) Device) (Device, error) {
	s := &slot{m: m, addr: addr}
	s.dev = build(s)
	if err := m.bus.Attach(addr, s.dev); err != nil {
		s.dev.Close()
		return nil, fmt.Errorf("attach: %w", err)
	}
	m.slots = append(m.slots, s)
	log.Infof("Attached %T at %s address %#02x", s.dev, m.bus.Name(), addr)
	return s.dev, nil
}

// RequestReset asks for a system reset at the next Service. Only one
// request is kept; a later one replaces the cause of an earlier one.
func (m *Machine) RequestReset(cause reset.Cause) {
	log.Infof("System reset requested, cause %v", cause)
	m.resetPending = true
	m.resetCause = cause
}

// ResetPending reports whether a reset was requested and not yet serviced.
func (m *Machine) ResetPending() (reset.Cause, bool) {
	return m.resetCause, m.resetPending
}

// Service performs a pending reset, if any, and reports whether it did.
func (m *Machine) Service() bool {
	if !m.resetPending {
		return false
	}
	m.resetPending = false
	m.Reset(m.resetCause)
	return true
}

// PowerOn performs the initial reset.
func (m *Machine) PowerOn() {
	m.Reset(reset.CauseNone)
}

// Reset resets every device right away. A request pending at that point is
// satisfied by this reset.
func (m *Machine) Reset(cause reset.Cause) {
	m.resetPending = false
	if m.bus.Busy() {
		m.bus.EndTransfer()
	}
	for _, s := range m.slots {
		s.dev.Reset(&s.latch)
	}
	m.boots++
	bootsGauge.Set(float64(m.boots))
	resets.WithLabelValues(cause.String(), initiator(cause)).Inc()
	log.Infof("System reset #%d done, cause %v (%s initiated)", m.boots, cause, initiator(cause))
}

func initiator(c reset.Cause) string {
	if c.GuestInitiated() {
		return "guest"
	}
	return "host"
}

// Advance runs the machine for d of virtual time. Whenever deadlines fire,
// a reset they requested is carried out before time moves on.
func (m *Machine) Advance(d time.Duration) {
	end := m.clk.Now().Add(d)
	for {
		next, ok := m.clk.Next()
		if !ok || next.After(end) {
			break
		}
		m.clk.AdvanceTo(next)
		m.Service()
	}
	m.clk.AdvanceTo(end)
	m.Service()
}

// Close destroys every device and detaches it from the bus.
func (m *Machine) Close() {
	for _, s := range m.slots {
		m.bus.Detach(s.addr)
		s.dev.Close()
	}
	m.slots = nil
}
