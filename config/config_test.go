// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig.Validate(); err != nil {
		t.Fatalf("DefaultConfig does not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/etc/y33t.yaml", []byte(`
watchdog:
  address: 0x40
log:
  level: debug
`), 0644)
	c, err := Load(fs, "/etc/y33t.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Watchdog.Address != 0x40 {
		t.Errorf("watchdog.address = %#x, want 0x40", c.Watchdog.Address)
	}
	if c.Log.Level != "debug" {
		t.Errorf("log.level = %q", c.Log.Level)
	}
	if c.Snapshot.Path != DefaultConfig.Snapshot.Path {
		t.Errorf("snapshot.path not defaulted: %q", c.Snapshot.Path)
	}
	if DefaultConfig.Watchdog.Address != 0x33 {
		t.Error("Load modified DefaultConfig")
	}
}

func TestLoadEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/empty.yaml", nil, 0644)
	c, err := Load(fs, "/empty.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Watchdog.Address != DefaultConfig.Watchdog.Address {
		t.Errorf("address %#x, want default", c.Watchdog.Address)
	}
}

func TestLoadInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	for name, body := range map[string]string{
		"reserved address": "watchdog:\n  address: 0x78\n",
		"bad level":        "log:\n  level: loud\n",
	} {
		afero.WriteFile(fs, "/c.yaml", []byte(body), 0644)
		if _, err := Load(fs, "/c.yaml"); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: Load = %v, want ErrInvalid", name, err)
		}
	}
	afero.WriteFile(fs, "/c.yaml", []byte("watchdgo:\n  address: 0x40\n"), 0644)
	if _, err := Load(fs, "/c.yaml"); err == nil {
		t.Error("unknown key accepted")
	}
}
