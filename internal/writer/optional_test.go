// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import "testing"

func TestOptionalColumnAllNull(t *testing.T) {
	var c OptionalColumn[float64]
	for i := 0; i < 5; i++ {
		c.Observe(false, 0)
	}
	if c.State() != StateAllNull {
		t.Fatalf("state = %v, want StateAllNull", c.State())
	}
	if c.Rows() != 5 {
		t.Fatalf("rows = %d, want 5", c.Rows())
	}
	if len(c.Values()) != 0 {
		t.Fatalf("values = %v, want empty (AllNull must not allocate)", c.Values())
	}
}

func TestOptionalColumnAllPresent(t *testing.T) {
	var c OptionalColumn[float64]
	for i := 0; i < 5; i++ {
		c.Observe(true, float64(i))
	}
	if c.State() != StateAllPresent {
		t.Fatalf("state = %v, want StateAllPresent", c.State())
	}
	if c.Validity() != nil {
		t.Fatalf("validity = %v, want nil (AllPresent must not allocate a bitmap)", c.Validity())
	}
	if len(c.Values()) != 5 {
		t.Fatalf("len(values) = %d, want 5", len(c.Values()))
	}
}

func TestOptionalColumnTransitionBackfillsLeadingAbsent(t *testing.T) {
	var c OptionalColumn[float64]
	c.Observe(false, 0) // row 0: absent, trivial
	c.Observe(false, 0) // row 1: absent, trivial
	c.Observe(true, 10) // row 2: present after absent rows -> transition to WithValidity
	c.Observe(true, 20) // row 3: present
	c.Observe(false, 0) // row 4: absent

	if c.State() != StateWithValidity {
		t.Fatalf("state = %v, want StateWithValidity", c.State())
	}
	wantValidity := []bool{false, false, true, true, false}
	validity := c.Validity()
	if len(validity) != len(wantValidity) {
		t.Fatalf("len(validity) = %d, want %d", len(validity), len(wantValidity))
	}
	for i, v := range wantValidity {
		if validity[i] != v {
			t.Errorf("validity[%d] = %v, want %v", i, validity[i], v)
		}
	}
	values := c.Values()
	if values[2] != 10 || values[3] != 20 {
		t.Errorf("values after backfill = %v, want [0 0 10 20 0]", values)
	}
	if values[0] != 0 || values[1] != 0 || values[4] != 0 {
		t.Errorf("placeholder slots must be zero, got %v", values)
	}
}

func TestOptionalColumnPresentAfterValidityTransition(t *testing.T) {
	var c OptionalColumn[int16]
	c.Observe(true, 1)
	c.Observe(false, 0)
	c.Observe(true, 3)

	if c.State() != StateWithValidity {
		t.Fatalf("state = %v, want StateWithValidity", c.State())
	}
	wantValues := []int16{1, 0, 3}
	wantValidity := []bool{true, false, true}
	for i := range wantValues {
		if c.Values()[i] != wantValues[i] {
			t.Errorf("values[%d] = %d, want %d", i, c.Values()[i], wantValues[i])
		}
		if c.Validity()[i] != wantValidity[i] {
			t.Errorf("validity[%d] = %v, want %v", i, c.Validity()[i], wantValidity[i])
		}
	}
}

func TestOptionalColumnEmptyIsAllNull(t *testing.T) {
	var c OptionalColumn[int32]
	if c.State() != StateAllNull {
		t.Fatalf("zero-value OptionalColumn state = %v, want StateAllNull", c.State())
	}
	if c.Rows() != 0 {
		t.Fatalf("rows = %d, want 0", c.Rows())
	}
}
