// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Version struct {
	Version string `yaml:"version"`
	GitHash string `yaml:"git_hash"`
}

type Watchdog struct {
	// Address is the 7-bit bus address the watchdog answers on.
	Address uint16 `yaml:"address"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Metrics struct {
	// Listen is the address the OpenMetrics endpoint is served on. Empty
	// disables it.
	Listen string `yaml:"listen"`
}

type Snapshot struct {
	Path string `yaml:"path"`
}

type Config struct {
	Watchdog Watchdog `yaml:"watchdog"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
	Snapshot Snapshot `yaml:"snapshot"`
	Version  Version  `yaml:"-"`
}

var DefaultConfig = &Config{
	Watchdog: Watchdog{
		Address: 0x33,
	},

	Log: Log{
		Level: "info",
	},

	Metrics: Metrics{
		Listen: "",
	},

	Snapshot: Snapshot{
		Path: "/tmp/y33t.vmstate",
	},

	Version: Version{
		Version: gitVersion,
		GitHash: gitHash,
	},
}

// Overwritten at link time.
var (
	gitVersion = "dev"
	gitHash    = "unknown"
)

var ErrInvalid = errors.New("invalid configuration")

// Load returns DefaultConfig overlaid with the YAML file at path. Unknown
// keys are rejected.
func Load(fs afero.Fs, path string) (*Config, error) {
	c := *DefaultConfig
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	// 0x00-0x07 and 0x78-0x7f are reserved I2C addresses.
	if c.Watchdog.Address < 0x08 || c.Watchdog.Address > 0x77 {
		return fmt.Errorf("watchdog.address %#02x: %w", c.Watchdog.Address, ErrInvalid)
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q: %w", c.Log.Level, ErrInvalid)
	}
	return nil
}
