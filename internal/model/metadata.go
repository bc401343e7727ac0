package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MetadataKind tags the variant held by a MetadataValue.
type MetadataKind uint8

const (
	MetadataString MetadataKind = iota + 1
	MetadataNumber
	MetadataBool
)

// MetadataValue is a scalar metadata entry: a string, a number or a bool.
type MetadataValue struct {
	kind MetadataKind
	str  string
	num  decimal.Decimal
	b    bool
}

// Metadata is an open set of string-keyed scalar values attached to an offer.
type Metadata map[string]MetadataValue

func StringValue(s string) MetadataValue {
	return MetadataValue{kind: MetadataString, str: s}
}

func NumberValue(d decimal.Decimal) MetadataValue {
	return MetadataValue{kind: MetadataNumber, num: d}
}

func BoolValue(b bool) MetadataValue {
	return MetadataValue{kind: MetadataBool, b: b}
}

func (v MetadataValue) Kind() MetadataKind { return v.kind }

// String returns the string variant and whether the value holds one.
func (v MetadataValue) String() (string, bool) {
	return v.str, v.kind == MetadataString
}

// Number returns the number variant and whether the value holds one.
func (v MetadataValue) Number() (decimal.Decimal, bool) {
	return v.num, v.kind == MetadataNumber
}

// Bool returns the bool variant and whether the value holds one.
func (v MetadataValue) Bool() (bool, bool) {
	return v.b, v.kind == MetadataBool
}

// Equal compares two values including their variant.
func (v MetadataValue) Equal(o MetadataValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case MetadataString:
		return v.str == o.str
	case MetadataNumber:
		return v.num.Equal(o.num)
	case MetadataBool:
		return v.b == o.b
	}
	return true
}

func (v MetadataValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetadataString:
		return json.Marshal(v.str)
	case MetadataNumber:
		return []byte(v.num.String()), nil
	case MetadataBool:
		return json.Marshal(v.b)
	}
	return nil, fmt.Errorf("metadata value has no variant")
}

func (v *MetadataValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case string:
		*v = StringValue(val)
	case bool:
		*v = BoolValue(val)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return fmt.Errorf("invalid metadata number %q: %w", val, err)
		}
		*v = NumberValue(d)
	default:
		return NewValidationError(ErrCodeInvalidMetadata, "metadata values must be strings, numbers or booleans")
	}
	return nil
}
