// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vmstate saves and restores the durable state of device models.
// Each device declares its fields by returning a plain struct from Save;
// the package takes care of framing, versioning and writing the file.
package vmstate

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/u-root/y33t/pkg/logger"
	"gopkg.in/yaml.v3"
)

var log = logger.LogContainer.GetSimpleLogger()

// Format is the version of the file framing.
const Format = 1

var (
	ErrMissingSection = errors.New("section missing from snapshot")
	ErrVersion        = errors.New("section version not supported")
	ErrFormat         = errors.New("unsupported snapshot format")
)

// Section is implemented by anything with durable state.
type Section interface {
	// Version of the state Save produces. Load is only asked to handle
	// versions up to this one.
	Version() int
	Save() (interface{}, error)
	// Load decodes and checks state without touching the section. The
	// returned function applies it; it is only called once every section
	// of the snapshot has loaded without error.
	Load(version int, state *yaml.Node) (apply func(), err error)
}

// Entry names a section within a snapshot.
type Entry struct {
	ID      string
	Section Section
}

type file struct {
	Format   int           `yaml:"format"`
	Sections []fileSection `yaml:"sections"`
}

type fileSection struct {
	ID      string    `yaml:"id"`
	Version int       `yaml:"version"`
	State   yaml.Node `yaml:"state"`
}

// Save writes the state of every entry to path. The file is replaced
// atomically.
func Save(fs afero.Fs, path string, entries []Entry) error {
	f := file{Format: Format}
	for _, e := range entries {
		st, err := e.Section.Save()
		if err != nil {
			return fmt.Errorf("save %s: %w", e.ID, err)
		}
		s := fileSection{ID: e.ID, Version: e.Section.Version()}
		if err := s.State.Encode(st); err != nil {
			return fmt.Errorf("encode %s: %w", e.ID, err)
		}
		f.Sections = append(f.Sections, s)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	log.Infof("Saved %d sections to %s", len(entries), path)
	return nil
}

// Load restores every entry from path. Nothing is changed unless every
// entry decodes; then they are applied in the order given.
func Load(fs afero.Fs, path string, entries []Entry) error {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if f.Format != Format {
		return fmt.Errorf("%s: format %d: %w", path, f.Format, ErrFormat)
	}

	saved := make(map[string]*fileSection, len(f.Sections))
	for i := range f.Sections {
		saved[f.Sections[i].ID] = &f.Sections[i]
	}
	apply := make([]func(), 0, len(entries))
	for _, e := range entries {
		s, ok := saved[e.ID]
		if !ok {
			return fmt.Errorf("%s: %w", e.ID, ErrMissingSection)
		}
		if s.Version < 0 || s.Version > e.Section.Version() {
			return fmt.Errorf("%s: version %d: %w", e.ID, s.Version, ErrVersion)
		}
		fn, err := e.Section.Load(s.Version, &s.State)
		if err != nil {
			return fmt.Errorf("load %s: %w", e.ID, err)
		}
		apply = append(apply, fn)
	}
	for _, fn := range apply {
		fn()
	}
	log.Infof("Loaded %d sections from %s", len(entries), path)
	return nil
}
