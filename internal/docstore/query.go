package docstore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "<>"
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Predicate compares a body field with a parameter value. Field is a dotted
// path into the JSON body. Value must be a string, bool, int, float64,
// decimal.Decimal or time.Time.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, v any) Predicate { return Predicate{Field: field, Op: OpEq, Value: v} }
func Ne(field string, v any) Predicate { return Predicate{Field: field, Op: OpNe, Value: v} }
func Lt(field string, v any) Predicate { return Predicate{Field: field, Op: OpLt, Value: v} }
func Le(field string, v any) Predicate { return Predicate{Field: field, Op: OpLe, Value: v} }
func Gt(field string, v any) Predicate { return Predicate{Field: field, Op: OpGt, Value: v} }
func Ge(field string, v any) Predicate { return Predicate{Field: field, Op: OpGe, Value: v} }

// Validate checks the operator and the parameter type.
func (p Predicate) Validate() error {
	if p.Field == "" {
		return fmt.Errorf("predicate field is required")
	}
	switch p.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
	default:
		return fmt.Errorf("unsupported operator %q", p.Op)
	}
	switch p.Value.(type) {
	case string, int, float64, decimal.Decimal, time.Time:
	case bool:
		if p.Op != OpEq && p.Op != OpNe {
			return fmt.Errorf("operator %q is not defined for booleans", p.Op)
		}
	default:
		return fmt.Errorf("unsupported parameter type %T for field %s", p.Value, p.Field)
	}
	return nil
}

// SortKind tells backends how to order a field.
type SortKind int

const (
	SortText SortKind = iota
	SortNumber
	SortTime
)

// Sort orders query results by one body field.
type Sort struct {
	Field      string
	Kind       SortKind
	Descending bool
}

// Query selects items from one collection. An empty PartitionKey means a
// cross-partition query.
type Query struct {
	PartitionKey string
	Predicates   []Predicate
	Sort         *Sort
	Limit        int
}

// Validate checks every predicate.
func (q Query) Validate() error {
	for _, p := range q.Predicates {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if q.Sort != nil && q.Sort.Field == "" {
		return fmt.Errorf("sort field is required")
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}
