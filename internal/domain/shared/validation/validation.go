// Package validation carries field-level input failures from the domain to the
// transport layer, which reports them as 400 responses.
package validation

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalid is matched by every *Error via errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error maps field names to the reason they were rejected.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalid.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Field builds an error for a single field.
func Field(name, reason string) *Error {
	return &Error{Fields: map[string]string{name: reason}}
}

// Collector accumulates failures; the first reason recorded for a field wins.
type Collector struct {
	fields map[string]string
}

func (c *Collector) Add(name, reason string) {
	if c.fields == nil {
		c.fields = make(map[string]string)
	}
	if _, exists := c.fields[name]; exists {
		return
	}
	c.fields[name] = reason
}

// Check records reason for name when ok is false.
func (c *Collector) Check(ok bool, name, reason string) {
	if !ok {
		c.Add(name, reason)
	}
}

// Merge copies fields of err into the collector when err is a *Error.
func (c *Collector) Merge(err error) bool {
	var verr *Error
	if !errors.As(err, &verr) {
		return false
	}
	for k, v := range verr.Fields {
		c.Add(k, v)
	}
	return true
}

// Err returns nil when nothing was recorded.
func (c *Collector) Err() error {
	if len(c.fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return &Error{Fields: out}
}

// FieldsOf extracts the field map from err, or nil.
func FieldsOf(err error) map[string]string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
