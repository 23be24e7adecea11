package query

import (
	"strings"
)

// Eq builds prop = v.
func Eq(prop string, v any) Predicate { return Predicate{Prop: prop, Op: OpEq, Value: v} }

// Ne builds prop <> v.
func Ne(prop string, v any) Predicate { return Predicate{Prop: prop, Op: OpNe, Value: v} }

// Lt builds prop < v.
func Lt(prop string, v any) Predicate { return Predicate{Prop: prop, Op: OpLt, Value: v} }

// Lte builds prop <= v.
func Lte(prop string, v any) Predicate { return Predicate{Prop: prop, Op: OpLte, Value: v} }

// Gt builds prop > v.
func Gt(prop string, v any) Predicate { return Predicate{Prop: prop, Op: OpGt, Value: v} }

// Gte builds prop >= v.
func Gte(prop string, v any) Predicate { return Predicate{Prop: prop, Op: OpGte, Value: v} }

// In builds prop IN values.
func In(prop string, values ...any) Predicate {
	return Predicate{Prop: prop, Op: OpIn, Value: values}
}

// ContainsFold builds a case-insensitive substring match.
func ContainsFold(prop, s string) Predicate {
	return Predicate{Prop: prop, Op: OpContainsFold, Value: s}
}

// Match evaluates the predicate against a property value. Numbers compare by
// value across int, int64 and float64; a missing (nil) property only
// matches Eq nil and Ne non-nil.
func (p Predicate) Match(v any) bool {
	switch p.Op {
	case OpEq:
		return equal(v, p.Value)
	case OpNe:
		return !equal(v, p.Value)
	case OpIn:
		list, _ := p.Value.([]any)
		for _, want := range list {
			if equal(v, want) {
				return true
			}
		}
		return false
	case OpContainsFold:
		s, ok := v.(string)
		needle, ok2 := p.Value.(string)
		return ok && ok2 && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	case OpLt, OpLte, OpGt, OpGte:
		c, ok := compare(v, p.Value)
		if !ok {
			return false
		}
		switch p.Op {
		case OpLt:
			return c < 0
		case OpLte:
			return c <= 0
		case OpGt:
			return c > 0
		default:
			return c >= 0
		}
	}
	return false
}

// Number converts the numeric kinds stores return into float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := Number(a); ok {
		y, ok := Number(b)
		return ok && x == y
	}
	return a == b
}

func compare(a, b any) (int, bool) {
	if x, ok := Number(a); ok {
		y, ok := Number(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	s, ok := a.(string)
	t, ok2 := b.(string)
	if !ok || !ok2 {
		return 0, false
	}
	return strings.Compare(s, t), true
}
