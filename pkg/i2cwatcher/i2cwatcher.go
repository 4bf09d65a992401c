// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package i2cwatcher prints I2C transactions as they complete, in the same
// layout a bus sniffer would.
package i2cwatcher

import (
	"fmt"
	"io"

	"github.com/u-root/y33t/pkg/hardware/i2c"
)

type Watcher struct {
	w io.Writer
}

var _ i2c.Observer = (*Watcher)(nil)

func New(w io.Writer) *Watcher {
	return &Watcher{w: w}
}

func (w *Watcher) Transaction(t i2c.Transaction) {
	fmt.Fprintf(w.w, "End of transaction. Write? %v\n", t.Write)
	fmt.Fprintf(w.w, "Address: %02x\n", t.Addr)
	fmt.Fprintf(w.w, "TX: ")
	for _, c := range t.TX {
		fmt.Fprintf(w.w, "%02x ", c)
	}
	fmt.Fprintf(w.w, "\nRX: ")
	for _, c := range t.RX {
		fmt.Fprintf(w.w, "%02x ", c)
	}
	fmt.Fprintf(w.w, "\n")
}
