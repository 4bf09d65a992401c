// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vclock

import (
	"testing"
	"time"

	"github.com/jmhodges/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDeadlineFiresOnce(t *testing.T) {
	c := NewAt(epoch)
	n := 0
	var at time.Time
	d := c.NewDeadline(func() {
		n++
		at = c.Now()
	})
	d.Mod(epoch.Add(3 * time.Second))
	if !d.Pending() {
		t.Fatal("deadline not pending after Mod")
	}
	if fired := c.Advance(2 * time.Second); fired != 0 {
		t.Fatalf("%d deadlines fired before expiry", fired)
	}
	if fired := c.Advance(2 * time.Second); fired != 1 {
		t.Fatalf("Advance fired %d deadlines, want 1", fired)
	}
	if n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
	if !at.Equal(epoch.Add(3 * time.Second)) {
		t.Errorf("callback saw time %v, want the expiry", at)
	}
	if !c.Now().Equal(epoch.Add(4 * time.Second)) {
		t.Errorf("clock at %v after advance", c.Now())
	}
	if d.Pending() {
		t.Error("deadline still pending after firing")
	}
	c.Advance(time.Hour)
	if n != 1 {
		t.Errorf("callback ran again: %d", n)
	}
}

func TestModReplacesExpiry(t *testing.T) {
	c := NewAt(epoch)
	n := 0
	d := c.NewDeadline(func() { n++ })
	d.Mod(epoch.Add(time.Second))
	d.Mod(epoch.Add(5 * time.Second))
	if c.Pending() != 1 {
		t.Fatalf("%d deadlines outstanding, want 1", c.Pending())
	}
	c.Advance(4 * time.Second)
	if n != 0 {
		t.Fatal("replaced expiry fired")
	}
	c.Advance(time.Second)
	if n != 1 {
		t.Fatalf("callback ran %d times, want 1", n)
	}
}

func TestDelCancels(t *testing.T) {
	c := NewAt(epoch)
	n := 0
	d := c.NewDeadline(func() { n++ })
	d.Mod(epoch.Add(time.Second))
	d.Del()
	d.Del()
	c.Advance(time.Minute)
	if n != 0 {
		t.Errorf("cancelled deadline fired %d times", n)
	}
	if _, ok := c.Next(); ok {
		t.Error("Next reports a pending expiry after Del")
	}
}

func TestFiringOrder(t *testing.T) {
	c := NewAt(epoch)
	var order []string
	a := c.NewDeadline(func() { order = append(order, "a") })
	b := c.NewDeadline(func() { order = append(order, "b") })
	x := c.NewDeadline(func() { order = append(order, "x") })
	a.Mod(epoch.Add(2 * time.Second))
	b.Mod(epoch.Add(time.Second))
	x.Mod(epoch.Add(2 * time.Second))
	if next, _ := c.Next(); !next.Equal(epoch.Add(time.Second)) {
		t.Errorf("Next = %v", next)
	}
	c.Advance(10 * time.Second)
	want := []string{"b", "a", "x"}
	if len(order) != len(want) {
		t.Fatalf("fired %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("fired %v, want %v", order, want)
		}
	}
}

func TestCallbackCancelsOther(t *testing.T) {
	c := NewAt(epoch)
	fired := false
	var victim Deadline
	killer := c.NewDeadline(func() { victim.Del() })
	victim = c.NewDeadline(func() { fired = true })
	killer.Mod(epoch.Add(time.Second))
	victim.Mod(epoch.Add(2 * time.Second))
	c.Advance(5 * time.Second)
	if fired {
		t.Error("deadline cancelled by an earlier callback still fired")
	}
}

func TestModAfterFreePanics(t *testing.T) {
	c := NewAt(epoch)
	d := c.NewDeadline(func() {})
	d.Mod(epoch.Add(time.Second))
	d.Free()
	if c.Pending() != 0 {
		t.Fatal("Free left the deadline queued")
	}
	defer func() {
		if recover() == nil {
			t.Error("Mod on freed deadline did not panic")
		}
	}()
	d.Mod(epoch.Add(time.Second))
}

func TestNewFrom(t *testing.T) {
	src := clock.NewFake()
	src.Set(epoch)
	c := NewFrom(src)
	if !c.Now().Equal(epoch) {
		t.Fatalf("clock starts at %v, want %v", c.Now(), epoch)
	}
	c.Advance(time.Hour)
	if !src.Now().Equal(epoch) {
		t.Errorf("advancing the virtual clock moved its source to %v", src.Now())
	}
	src.Add(time.Minute)
	if !c.Now().Equal(epoch.Add(time.Hour)) {
		t.Errorf("source change leaked into the virtual clock: %v", c.Now())
	}
}
