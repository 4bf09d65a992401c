// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package i2c models a two-wire addressable bus with device models hanging
// off it. The bus is the controller side: it frames transfers and delivers
// them to the addressed Slave one event or byte at a time.
package i2c

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
)

// Event is a bus condition delivered to the addressed slave.
type Event int

const (
	StartRecv Event = iota
	StartSend
	Finish
	Nack
)

func (e Event) String() string {
	switch e {
	case StartRecv:
		return "START_RECV"
	case StartSend:
		return "START_SEND"
	case Finish:
		return "FINISH"
	case Nack:
		return "NACK"
	}
	return fmt.Sprintf("EVENT(%d)", int(e))
}

// Slave is implemented by device models. None of the callbacks can fail;
// a device that has nothing to say returns a sentinel byte.
type Slave interface {
	Event(e Event)
	Send(data byte)
	Recv() byte
}

// Transaction is one completed transfer as seen on the wire.
type Transaction struct {
	Addr  uint16
	Write bool
	TX    []byte
	RX    []byte
}

// Observer receives every completed transaction.
type Observer interface {
	Transaction(t Transaction)
}

var (
	ErrNoDevice       = errors.New("no device at address")
	ErrInvalidAddress = errors.New("invalid 7-bit address")
	ErrAddressInUse   = errors.New("address already in use")
	ErrNoTransfer     = errors.New("no transfer in progress")
	ErrWrongDirection = errors.New("transfer is in the other direction")
)

const maxAddr = 0x7f

var _ drivers.I2C = (*Bus)(nil)

// Bus is a single I2C segment. It is not safe for concurrent use.
type Bus struct {
	name   string
	slaves map[uint16]Slave

	cur     Slave
	curAddr uint16
	recv    bool
	obs     Observer
	txn     *Transaction
}

func NewBus(name string) *Bus {
	return &Bus{name: name, slaves: make(map[uint16]Slave)}
}

func (b *Bus) Name() string {
	return b.name
}

// SetObserver installs o, replacing any previous observer. A nil o disables
// observation.
func (b *Bus) SetObserver(o Observer) {
	b.obs = o
}

func (b *Bus) Attach(addr uint16, s Slave) error {
	if addr > maxAddr {
		return fmt.Errorf("%s: attach %#02x: %w", b.name, addr, ErrInvalidAddress)
	}
	if _, ok := b.slaves[addr]; ok {
		return fmt.Errorf("%s: attach %#02x: %w", b.name, addr, ErrAddressInUse)
	}
	b.slaves[addr] = s
	return nil
}

func (b *Bus) Detach(addr uint16) {
	if s, ok := b.slaves[addr]; ok && s == b.cur {
		b.EndTransfer()
	}
	delete(b.slaves, addr)
}

// Busy reports whether a transfer is in progress.
func (b *Bus) Busy() bool {
	return b.cur != nil
}

// StartTransfer addresses a slave. Starting while a transfer is in progress
// to the same address is a repeated start.
func (b *Bus) StartTransfer(addr uint16, recv bool) error {
	if addr > maxAddr {
		return fmt.Errorf("%s: start %#02x: %w", b.name, addr, ErrInvalidAddress)
	}
	s, ok := b.slaves[addr]
	if !ok {
		if b.cur != nil {
			b.EndTransfer()
		}
		return fmt.Errorf("%s: start %#02x: %w", b.name, addr, ErrNoDevice)
	}
	if b.cur != nil && b.curAddr != addr {
		b.EndTransfer()
	}
	b.flush()

	b.cur = s
	b.curAddr = addr
	b.recv = recv
	b.txn = &Transaction{Addr: addr, Write: !recv}
	if recv {
		s.Event(StartRecv)
	} else {
		s.Event(StartSend)
	}
	return nil
}

func (b *Bus) Send(data byte) error {
	if b.cur == nil {
		return fmt.Errorf("%s: send: %w", b.name, ErrNoTransfer)
	}
	if b.recv {
		return fmt.Errorf("%s: send: %w", b.name, ErrWrongDirection)
	}
	b.txn.TX = append(b.txn.TX, data)
	b.cur.Send(data)
	return nil
}

func (b *Bus) Recv() (byte, error) {
	if b.cur == nil {
		return 0, fmt.Errorf("%s: recv: %w", b.name, ErrNoTransfer)
	}
	if !b.recv {
		return 0, fmt.Errorf("%s: recv: %w", b.name, ErrWrongDirection)
	}
	data := b.cur.Recv()
	b.txn.RX = append(b.txn.RX, data)
	return data, nil
}

// Nack tells the slave the controller does not want more bytes.
func (b *Bus) Nack() {
	if b.cur != nil {
		b.cur.Event(Nack)
	}
}

// EndTransfer issues a stop condition.
func (b *Bus) EndTransfer() {
	if b.cur == nil {
		return
	}
	b.cur.Event(Finish)
	b.flush()
	b.cur = nil
}

func (b *Bus) flush() {
	if b.txn != nil && b.obs != nil {
		b.obs.Transaction(*b.txn)
	}
	b.txn = nil
}

// Tx performs a write of w followed by a repeated-start read into r, as
// expected by tinygo drivers. Either phase may be empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if len(w) > 0 || len(r) == 0 {
		if err := b.StartTransfer(addr, false); err != nil {
			return err
		}
		for _, c := range w {
			if err := b.Send(c); err != nil {
				b.EndTransfer()
				return err
			}
		}
	}
	if len(r) > 0 {
		if err := b.StartTransfer(addr, true); err != nil {
			return err
		}
		for i := range r {
			c, err := b.Recv()
			if err != nil {
				b.EndTransfer()
				return err
			}
			r[i] = c
		}
		b.Nack()
	}
	b.EndTransfer()
	return nil
}
