package model

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Optional holds an attribute the appliance may omit. The zero value is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value is present
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value, or def when absent
func (o Optional[T]) OrElse(def T) T {
	if !o.set {
		return def
	}
	return o.value
}

// IsZero lets yaml omitempty drop absent values
func (o Optional[T]) IsZero() bool {
	return !o.set
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Optional[T]) MarshalYAML() (interface{}, error) {
	if !o.set {
		return nil, nil
	}
	return o.value, nil
}

func (o *Optional[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
