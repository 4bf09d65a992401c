// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package y33t

import (
	"errors"
	"fmt"
	"time"

	"github.com/u-root/y33t/pkg/reset"
	"github.com/u-root/y33t/pkg/vmstate"
	"gopkg.in/yaml.v3"
)

var ErrInvalidState = errors.New("invalid y33t state")

var _ vmstate.Section = (*Device)(nil)

// State is the durable part of the device. The pending boot reason is not
// in here: it only exists between a reset request and the reset.
type State struct {
	AddrByte   bool         `yaml:"addr_byte"`
	Ptr        uint8        `yaml:"ptr"`
	Armed      bool         `yaml:"armed"`
	Deadline   *time.Time   `yaml:"deadline,omitempty"`
	BootReason reset.Reason `yaml:"boot_reason"`
}

// Version of the durable state layout.
func (d *Device) Version() int {
	return 0
}

// State returns the durable state.
func (d *Device) State() State {
	s := State{
		AddrByte:   d.addrByte,
		Ptr:        d.ptr,
		Armed:      d.armed,
		BootReason: d.bootReason,
	}
	if d.timer.Pending() {
		at := d.timer.Expires()
		s.Deadline = &at
	}
	return s
}

func (d *Device) Save() (interface{}, error) {
	return d.State(), nil
}

func (d *Device) Load(version int, n *yaml.Node) (func(), error) {
	var s State
	if err := n.Decode(&s); err != nil {
		return nil, err
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return func() { d.apply(s) }, nil
}

// Restore replaces the device state with s. The device is left untouched
// if s is inconsistent.
func (d *Device) Restore(s State) error {
	if err := s.check(); err != nil {
		return err
	}
	d.apply(s)
	return nil
}

func (s State) check() error {
	if s.Ptr >= RegisterCount {
		return fmt.Errorf("pointer %d out of range: %w", s.Ptr, ErrInvalidState)
	}
	if !s.BootReason.Valid() {
		return fmt.Errorf("boot reason %v: %w", s.BootReason, ErrInvalidState)
	}
	if s.Armed != (s.Deadline != nil) {
		return fmt.Errorf("armed=%v with deadline %v: %w", s.Armed, s.Deadline, ErrInvalidState)
	}
	return nil
}

func (d *Device) apply(s State) {
	d.addrByte = s.AddrByte
	d.ptr = s.Ptr
	d.armed = s.Armed
	d.bootReason = s.BootReason
	if s.Deadline != nil {
		d.timer.Mod(*s.Deadline)
		armedGauge.Set(1)
	} else {
		d.timer.Del()
		armedGauge.Set(0)
	}
}
