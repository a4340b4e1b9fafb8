// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package writer implements the columnar batch assembly and Parquet
// emission engine (C4): flattening spectrum-oriented batches into owned
// columnar buffers with zero-copy transfer into Arrow arrays, the
// optional-column state machine, the rolling/part-file writer, and the
// asynchronous writer wrapper.
package writer

// State identifies which of the three trivial/non-trivial variants an
// OptionalColumn currently holds.
type State int

const (
	// StateAllNull means the column has never been observed present; no
	// per-element storage is allocated at all, only a running count.
	StateAllNull State = iota
	// StateAllPresent means every row observed so far has been present;
	// values are stored densely with no validity bitmap.
	StateAllPresent
	// StateWithValidity means both an absent and a present row have been
	// observed; both the value buffer and a validity bitmap are
	// maintained, aligned to the column's running row count.
	StateWithValidity
)

// OptionalColumn implements the three-variant optional-column state
// machine of §4.4/§9: AllNull and AllPresent are O(1)-per-row metadata
// operations (no bitmap, and in the AllNull case no value storage either);
// a column pays for a validity bitmap only once it has actually seen both
// an absent and a present value, and the bitmap is back-filled exactly
// once at that transition.
type OptionalColumn[T any] struct {
	rows     int
	hasAny   bool
	validity []bool
	values   []T
}

// Observe records one row: present reports whether value is meaningful for
// this row.
func (c *OptionalColumn[T]) Observe(present bool, value T) {
	if !present {
		if !c.hasAny {
			// Trivial all-null stretch: just advance the row counter.
			c.rows++
			return
		}
		c.transitionToValidityIfNeeded()
		var zero T
		c.values = append(c.values, zero)
		c.validity = append(c.validity, false)
		c.rows++
		return
	}

	if !c.hasAny {
		c.hasAny = true
		if c.rows > 0 {
			// Present after a leading absent stretch: back-fill now.
			c.transitionToValidityIfNeeded()
			c.values = append(c.values, value)
			c.validity = append(c.validity, true)
			c.rows++
			return
		}
		c.values = append(c.values, value)
		c.rows++
		return
	}
	if c.validity == nil {
		// Still in the trivial all-present stretch.
		c.values = append(c.values, value)
		c.rows++
		return
	}
	c.values = append(c.values, value)
	c.validity = append(c.validity, true)
	c.rows++
}

// transitionToValidityIfNeeded performs the one-time back-fill: it turns
// the dense "all present since hasAny" value buffer into a full-length
// buffer with an explicit validity bitmap, covering the leading stretch of
// trivially-absent rows that preceded hasAny becoming true.
func (c *OptionalColumn[T]) transitionToValidityIfNeeded() {
	if c.validity != nil {
		return
	}
	leadingAbsent := c.rows - len(c.values)
	validity := make([]bool, 0, c.rows+1)
	for i := 0; i < leadingAbsent; i++ {
		validity = append(validity, false)
	}
	for range c.values {
		validity = append(validity, true)
	}

	full := make([]T, 0, c.rows+1)
	var zero T
	for i := 0; i < leadingAbsent; i++ {
		full = append(full, zero)
	}
	full = append(full, c.values...)

	c.values = full
	c.validity = validity
}

// Rows returns the total number of rows observed so far.
func (c *OptionalColumn[T]) Rows() int { return c.rows }

// State reports the column's current variant.
func (c *OptionalColumn[T]) State() State {
	switch {
	case !c.hasAny:
		return StateAllNull
	case c.validity == nil:
		return StateAllPresent
	default:
		return StateWithValidity
	}
}

// Values returns the dense value buffer for StateAllPresent/StateWithValidity
// states; it is empty (and meaningless) in StateAllNull.
func (c *OptionalColumn[T]) Values() []T { return c.values }

// Validity returns the per-row validity bitmap for StateWithValidity; nil
// otherwise.
func (c *OptionalColumn[T]) Validity() []bool { return c.validity }
