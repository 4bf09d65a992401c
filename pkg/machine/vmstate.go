// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/u-root/y33t/pkg/vmstate"
	"gopkg.in/yaml.v3"
)

type clockState struct {
	Now time.Time `yaml:"now"`
}

type clockSection struct {
	m *Machine
}

func (c clockSection) Version() int {
	return 0
}

func (c clockSection) Save() (interface{}, error) {
	if c.m.resetPending {
		return nil, fmt.Errorf("reset pending")
	}
	return clockState{Now: c.m.clk.Now()}, nil
}

func (c clockSection) Load(version int, n *yaml.Node) (func(), error) {
	var s clockState
	if err := n.Decode(&s); err != nil {
		return nil, err
	}
	return func() { c.m.clk.Set(s.Now) }, nil
}

// entries lists the clock first, so that devices re-arm their deadlines
// against the restored time.
func (m *Machine) entries() []vmstate.Entry {
	e := []vmstate.Entry{{ID: "clock", Section: clockSection{m}}}
	for _, s := range m.slots {
		if sec, ok := s.dev.(vmstate.Section); ok {
			e = append(e, vmstate.Entry{
				ID:      fmt.Sprintf("%s/%#02x", m.bus.Name(), s.addr),
				Section: sec,
			})
		}
	}
	return e
}

// Save writes a snapshot of the clock and every device with durable state.
// It fails while a reset is pending.
func (m *Machine) Save(fs afero.Fs, path string) error {
	return vmstate.Save(fs, path, m.entries())
}

// Load restores a snapshot taken from a machine with the same devices
// attached at the same addresses. A snapshot that fails to load leaves the
// machine as it was.
func (m *Machine) Load(fs afero.Fs, path string) error {
	return vmstate.Load(fs, path, m.entries())
}
