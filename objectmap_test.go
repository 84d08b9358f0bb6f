// Copyright (C) 2021-2026, Podlink Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package podwire

import "testing"

func TestObjectMapFirstFit(t *testing.T) {
	var m ObjectMap
	a := m.Add("a")
	b := m.Add("b")
	c := m.Add("c")
	if a != 0 || b != 1 || c != 2 {
		t.Fatalf("ids = %d %d %d", a, b, c)
	}

	m.Remove(b)
	if _, ok := m.Lookup(b); ok {
		t.Fatalf("removed id still present")
	}
	if got := m.Add("d"); got != b {
		t.Fatalf("freed slot not reused, got %d", got)
	}
	if v, ok := m.Lookup(b); !ok || v != "d" {
		t.Fatalf("lookup = %v, %v", v, ok)
	}
	if m.Len() != 3 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestObjectMapAddAt(t *testing.T) {
	var m ObjectMap
	if err := m.AddAt(5, "x"); err != nil {
		t.Fatalf("add at 5: %v", err)
	}
	if err := m.AddAt(5, "y"); err == nil {
		t.Fatalf("occupied slot accepted")
	}
	if err := m.AddAt(InvalidID, "z"); err == nil {
		t.Fatalf("invalid id accepted")
	}
	// holes left by sparse inserts fill first
	if got := m.Add("a"); got != 0 {
		t.Fatalf("first fit = %d", got)
	}
}

func TestObjectMapForEachRemoval(t *testing.T) {
	var m ObjectMap
	for i := 0; i < 4; i++ {
		m.Add(i)
	}
	var seen []uint32
	m.ForEach(func(id uint32, v interface{}) {
		seen = append(seen, id)
		m.Remove(id)
	})
	if len(seen) != 4 {
		t.Fatalf("seen = %v", seen)
	}
	if m.Len() != 0 {
		t.Fatalf("len = %d", m.Len())
	}
}
