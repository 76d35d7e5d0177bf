package dto

import (
	"bytes"
	"encoding/json"
)

// Patch distinguishes an omitted JSON key from an explicit null.
// Set is true whenever the key was present in the payload; Value is nil when it was null.
type Patch[T any] struct {
	Set   bool
	Value *T
}

func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	p.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

// Present reports a non-null value.
func (p Patch[T]) Present() bool { return p.Set && p.Value != nil }

// Null reports an explicit JSON null.
func (p Patch[T]) Null() bool { return p.Set && p.Value == nil }

// Some builds a present patch, mostly for callers assembling requests in code.
func Some[T any](v T) Patch[T] { return Patch[T]{Set: true, Value: &v} }
