// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package i2c

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type op struct {
	event Event
	send  bool
	recv  bool
	data  byte
}

func opstr(o *op) string {
	switch {
	case o.send:
		return fmt.Sprintf("{send %02x}", o.data)
	case o.recv:
		return fmt.Sprintf("{recv -> %02x}", o.data)
	}
	return fmt.Sprintf("{event %v}", o.event)
}

// fakeSlave checks the bus delivers exactly the expected operations.
type fakeSlave struct {
	t   *testing.T
	ops []op
}

func (s *fakeSlave) next() op {
	if len(s.ops) == 0 {
		s.t.Fatalf("unexpected operation, none queued")
	}
	o := s.ops[0]
	s.ops = s.ops[1:]
	return o
}

func (s *fakeSlave) Event(e Event) {
	o := s.next()
	if o.send || o.recv || o.event != e {
		s.t.Errorf("Expected %s, got event %v", opstr(&o), e)
	}
}

func (s *fakeSlave) Send(d byte) {
	o := s.next()
	if !o.send || o.data != d {
		s.t.Errorf("Expected %s, got send of %02x", opstr(&o), d)
	}
}

func (s *fakeSlave) Recv() byte {
	o := s.next()
	if !o.recv {
		s.t.Errorf("Expected %s, got recv", opstr(&o))
	}
	return o.data
}

func (s *fakeSlave) ExpectEvent(e Event) { s.ops = append(s.ops, op{event: e}) }
func (s *fakeSlave) ExpectSend(d byte)   { s.ops = append(s.ops, op{send: true, data: d}) }
func (s *fakeSlave) FakeRecv(d byte)     { s.ops = append(s.ops, op{recv: true, data: d}) }

func (s *fakeSlave) done() {
	if len(s.ops) != 0 {
		s.t.Errorf("%d expected operations never happened, first %s", len(s.ops), opstr(&s.ops[0]))
	}
}

func fakeSlaveDevice(t *testing.T) *fakeSlave {
	return &fakeSlave{t: t}
}

type recorder []Transaction

func (r *recorder) Transaction(t Transaction) { *r = append(*r, t) }

func TestTxWriteThenRead(t *testing.T) {
	b := NewBus("i2c-0")
	s := fakeSlaveDevice(t)
	if err := b.Attach(0x33, s); err != nil {
		t.Fatal(err)
	}
	var rec recorder
	b.SetObserver(&rec)

	s.ExpectEvent(StartSend)
	s.ExpectSend(0x01)
	s.ExpectEvent(StartRecv)
	s.FakeRecv(0xaa)
	s.FakeRecv(0xbb)
	s.ExpectEvent(Nack)
	s.ExpectEvent(Finish)

	r := make([]byte, 2)
	if err := b.Tx(0x33, []byte{0x01}, r); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	s.done()
	if r[0] != 0xaa || r[1] != 0xbb {
		t.Errorf("read %x, want aabb", r)
	}
	want := recorder{
		{Addr: 0x33, Write: true, TX: []byte{0x01}},
		{Addr: 0x33, RX: []byte{0xaa, 0xbb}},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("observed transactions (-want +got):\n%s", diff)
	}
	if b.Busy() {
		t.Error("bus still busy after Tx")
	}
}

func TestTxReadOnly(t *testing.T) {
	b := NewBus("i2c-0")
	s := fakeSlaveDevice(t)
	b.Attach(0x10, s)
	s.ExpectEvent(StartRecv)
	s.FakeRecv(0x42)
	s.ExpectEvent(Nack)
	s.ExpectEvent(Finish)
	r := make([]byte, 1)
	if err := b.Tx(0x10, nil, r); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	s.done()
	if r[0] != 0x42 {
		t.Errorf("read %02x, want 42", r[0])
	}
}

func TestNoDevice(t *testing.T) {
	b := NewBus("i2c-0")
	err := b.Tx(0x20, []byte{0}, nil)
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("Tx to empty address returned %v, want ErrNoDevice", err)
	}
}

func TestAttach(t *testing.T) {
	b := NewBus("i2c-0")
	if err := b.Attach(0x80, fakeSlaveDevice(t)); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Attach(0x80) = %v, want ErrInvalidAddress", err)
	}
	if err := b.Attach(0x33, fakeSlaveDevice(t)); err != nil {
		t.Fatal(err)
	}
	if err := b.Attach(0x33, fakeSlaveDevice(t)); !errors.Is(err, ErrAddressInUse) {
		t.Errorf("second Attach = %v, want ErrAddressInUse", err)
	}
	b.Detach(0x33)
	if err := b.Attach(0x33, fakeSlaveDevice(t)); err != nil {
		t.Errorf("Attach after Detach: %v", err)
	}
}

func TestDirection(t *testing.T) {
	b := NewBus("i2c-0")
	s := fakeSlaveDevice(t)
	b.Attach(0x33, s)
	if err := b.Send(1); !errors.Is(err, ErrNoTransfer) {
		t.Errorf("Send without transfer = %v", err)
	}
	s.ExpectEvent(StartRecv)
	if err := b.StartTransfer(0x33, true); err != nil {
		t.Fatal(err)
	}
	if err := b.Send(1); !errors.Is(err, ErrWrongDirection) {
		t.Errorf("Send during read = %v", err)
	}
	s.ExpectEvent(Finish)
	b.EndTransfer()
	b.EndTransfer()
	s.done()
}
