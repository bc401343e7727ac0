package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Document is a decoded JSON body. Numbers are kept as json.Number.
type Document map[string]any

// DecodeDocument parses a JSON body for client-side evaluation.
func DecodeDocument(body []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// Lookup resolves a dotted path.
func (d Document) Lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Match reports whether doc satisfies every predicate. A missing or
// incomparable field never matches.
func Match(doc Document, preds []Predicate) bool {
	for _, p := range preds {
		v, ok := doc.Lookup(p.Field)
		if !ok {
			return false
		}
		cmp, ok := compareParam(v, p.Value)
		if !ok {
			return false
		}
		if !opHolds(p.Op, cmp) {
			return false
		}
	}
	return true
}

func opHolds(op Op, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

// compareParam compares a stored JSON value with a typed parameter.
func compareParam(stored any, param any) (int, bool) {
	switch p := param.(type) {
	case string:
		s, ok := stored.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(s, p), true
	case bool:
		b, ok := stored.(bool)
		if !ok {
			return 0, false
		}
		if b == p {
			return 0, true
		}
		if !b {
			return -1, true
		}
		return 1, true
	case int:
		return compareNumber(stored, decimal.NewFromInt(int64(p)))
	case float64:
		return compareNumber(stored, decimal.NewFromFloat(p))
	case decimal.Decimal:
		return compareNumber(stored, p)
	case time.Time:
		t, ok := asTime(stored)
		if !ok {
			return 0, false
		}
		return t.Compare(p), true
	}
	return 0, false
}

func compareNumber(stored any, p decimal.Decimal) (int, bool) {
	d, ok := asDecimal(stored)
	if !ok {
		return 0, false
	}
	return d.Cmp(p), true
}

func asDecimal(v any) (decimal.Decimal, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = n
	case float64:
		return decimal.NewFromFloat(n), true
	default:
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func asTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// compareSortValues orders two stored values by kind. ok is false when
// either value cannot be interpreted.
func compareSortValues(a, b any, kind SortKind) (int, bool) {
	switch kind {
	case SortNumber:
		da, okA := asDecimal(a)
		db, okB := asDecimal(b)
		if !okA || !okB {
			return 0, false
		}
		return da.Cmp(db), true
	case SortTime:
		ta, okA := asTime(a)
		tb, okB := asTime(b)
		if !okA || !okB {
			return 0, false
		}
		return ta.Compare(tb), true
	default:
		sa, okA := a.(string)
		sb, okB := b.(string)
		if !okA || !okB {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
}

// Evaluate filters, sorts and limits items client-side.
func Evaluate(items []Item, q Query) ([]Item, error) {
	type decoded struct {
		item Item
		doc  Document
	}

	matched := make([]decoded, 0, len(items))
	for _, item := range items {
		doc, err := DecodeDocument(item.Body)
		if err != nil {
			return nil, err
		}
		if Match(doc, q.Predicates) {
			matched = append(matched, decoded{item: item, doc: doc})
		}
	}

	if q.Sort != nil {
		s := *q.Sort
		sort.SliceStable(matched, func(i, j int) bool {
			a, okA := matched[i].doc.Lookup(s.Field)
			b, okB := matched[j].doc.Lookup(s.Field)
			// Items missing the sort field go last in either direction.
			if !okA || !okB {
				return okA && !okB
			}
			cmp, ok := compareSortValues(a, b, s.Kind)
			if !ok {
				return false
			}
			if s.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]Item, len(matched))
	for i, m := range matched {
		out[i] = m.item
	}
	return out, nil
}
