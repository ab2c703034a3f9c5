// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Value is a variable value: either a single string or an ordered sequence
// of strings. The two arms are distinct; a one-element list is not the same
// as a single string because list values fan out in templates.
type Value struct {
	items []string
	list  bool
}

// String constructs a single-valued Value.
func String(s string) Value {
	return Value{items: []string{s}}
}

// List constructs a multi-valued Value. Empty lists are legal.
func List(items ...string) Value {
	copied := make([]string, len(items))
	copy(copied, items)
	return Value{items: copied, list: true}
}

// IsList reports whether the value is the sequence arm of the variant.
func (v Value) IsList() bool {
	return v.list
}

// Items returns the value as a slice. A single value yields a one-element
// slice. The returned slice must not be mutated.
func (v Value) Items() []string {
	return v.items
}

// Single returns the value as a scalar. It fails when a multi-valued result
// is used in a context demanding a single string.
func (v Value) Single() (string, error) {
	if v.list && len(v.items) != 1 {
		return "", fmt.Errorf("expected a single value, got %d values [%s]", len(v.items), strings.Join(v.items, ", "))
	}
	if len(v.items) == 0 {
		return "", nil
	}
	return v.items[0], nil
}

// Join returns the items joined by a single space.
func (v Value) Join() string {
	return strings.Join(v.items, " ")
}

// UnmarshalJSON accepts either a JSON string or a JSON array of strings,
// matching the shape of "params" entries in the build-steps file.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = String(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("value must be a string or an array of strings: %w", err)
	}
	*v = List(items...)
	return nil
}

// MarshalJSON emits the single arm as a string and the list arm as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		return json.Marshal(v.items)
	}
	s, err := v.Single()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}
