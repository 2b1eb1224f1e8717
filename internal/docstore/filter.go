// Package docstore provides a small JSON-document store over the shared
// relational database. Records are addressed exclusively through filter
// expressions so callers never see storage details.
package docstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter selects documents. Implementations match against the decoded
// document; a field is a dotted path into the nested structure
// (e.g. "metadata.user").
type Filter interface {
	Match(doc map[string]interface{}) bool
}

type equalFilter struct {
	field string
	value interface{}
}

func (f equalFilter) Match(doc map[string]interface{}) bool {
	v, ok := lookup(doc, f.field)
	if !ok {
		return false
	}
	return valueEqual(v, f.value)
}

// Equal matches documents whose field equals value.
func Equal(field string, value interface{}) Filter {
	return equalFilter{field: field, value: value}
}

type inFilter struct {
	field  string
	values []interface{}
}

func (f inFilter) Match(doc map[string]interface{}) bool {
	v, ok := lookup(doc, f.field)
	if !ok {
		return false
	}
	for _, candidate := range f.values {
		if valueEqual(v, candidate) {
			return true
		}
	}
	return false
}

// In matches documents whose field equals any of the given values.
func In(field string, values ...interface{}) Filter {
	return inFilter{field: field, values: values}
}

type regexFilter struct {
	field string
	re    *regexp.Regexp
}

func (f regexFilter) Match(doc map[string]interface{}) bool {
	v, ok := lookup(doc, f.field)
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return f.re.MatchString(s)
}

// Regex matches documents whose string field matches the pattern.
// An invalid pattern matches nothing.
func Regex(field, pattern string) Filter {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return noneFilter{}
	}
	return regexFilter{field: field, re: re}
}

type rangeFilter struct {
	field   string
	value   interface{}
	greater bool
}

func (f rangeFilter) Match(doc map[string]interface{}) bool {
	v, ok := lookup(doc, f.field)
	if !ok {
		return false
	}
	cmp, ok := compareValues(v, f.value)
	if !ok {
		return false
	}
	if f.greater {
		return cmp > 0
	}
	return cmp < 0
}

// GreaterThan matches documents whose field is strictly greater than value.
func GreaterThan(field string, value interface{}) Filter {
	return rangeFilter{field: field, value: value, greater: true}
}

// LesserThan matches documents whose field is strictly lesser than value.
func LesserThan(field string, value interface{}) Filter {
	return rangeFilter{field: field, value: value, greater: false}
}

type orFilter struct {
	filters []Filter
}

func (f orFilter) Match(doc map[string]interface{}) bool {
	for _, sub := range f.filters {
		if sub.Match(doc) {
			return true
		}
	}
	return false
}

// Or matches documents that match any of the given filters.
func Or(filters ...Filter) Filter {
	return orFilter{filters: filters}
}

type andFilter struct {
	filters []Filter
}

func (f andFilter) Match(doc map[string]interface{}) bool {
	for _, sub := range f.filters {
		if !sub.Match(doc) {
			return false
		}
	}
	return true
}

// And matches documents that match all of the given filters.
func And(filters ...Filter) Filter {
	return andFilter{filters: filters}
}

type searchFilter struct {
	term   string
	fields []string
}

func (f searchFilter) Match(doc map[string]interface{}) bool {
	for _, field := range f.fields {
		v, ok := lookup(doc, field)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(s), f.term) {
			return true
		}
	}
	return false
}

// Search matches documents where any of the string fields contains term,
// case-insensitively.
func Search(term string, fields ...string) Filter {
	return searchFilter{term: strings.ToLower(term), fields: fields}
}

type noneFilter struct{}

func (noneFilter) Match(doc map[string]interface{}) bool { return false }

type allFilter struct{}

func (allFilter) Match(doc map[string]interface{}) bool { return true }

// All matches every document.
func All() Filter {
	return allFilter{}
}

// idConstraint extracts the set of ids a filter pins down, when the whole
// filter can be answered from the primary key alone. Used to push lookups
// down to the database instead of scanning the collection.
func idConstraint(f Filter) ([]string, bool) {
	switch v := f.(type) {
	case equalFilter:
		if v.field != "id" {
			return nil, false
		}
		s, ok := v.value.(string)
		if !ok {
			return nil, false
		}
		return []string{s}, true
	case inFilter:
		if v.field != "id" {
			return nil, false
		}
		ids := make([]string, 0, len(v.values))
		for _, raw := range v.values {
			s, ok := raw.(string)
			if !ok {
				return nil, false
			}
			ids = append(ids, s)
		}
		return ids, true
	default:
		return nil, false
	}
}

// lookup resolves a dotted path inside a decoded document.
func lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = doc
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// valueEqual compares a decoded document value with a caller-supplied one.
// JSON decoding turns all numbers into float64, so numeric comparisons
// coerce both sides.
func valueEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareValues(a, b interface{}) (int, bool) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
