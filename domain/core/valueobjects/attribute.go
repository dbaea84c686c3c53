package valueobjects

import (
	"fmt"
	"strings"
)

// Operator qualifies a numeric attribute value.
type Operator string

const (
	OpNone         Operator = ""
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpGreaterEqual Operator = ">="
	OpGreater      Operator = ">"
)

// ParseOperator validates an operator string. An empty string is OpNone.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(strings.TrimSpace(s)); op {
	case OpNone, OpLess, OpLessEqual, OpEqual, OpNotEqual, OpGreaterEqual, OpGreater:
		return op, nil
	default:
		return OpNone, fmt.Errorf("unknown operator %q", s)
	}
}

// AttributeKey names one attribute slot on a node.
type AttributeKey string

const (
	AttrName          AttributeKey = "name"
	AttrValue         AttributeKey = "value"
	AttrBatchNum      AttributeKey = "batch_num"
	AttrRatio         AttributeKey = "ratio"
	AttrConcentration AttributeKey = "concentration"
	AttrUnit          AttributeKey = "unit"
	AttrStd           AttributeKey = "std"
	AttrError         AttributeKey = "error"
	AttrIdentifier    AttributeKey = "identifier"
)

// AllAttributeKeys lists the slots in export order.
var AllAttributeKeys = []AttributeKey{
	AttrName,
	AttrValue,
	AttrBatchNum,
	AttrRatio,
	AttrConcentration,
	AttrUnit,
	AttrStd,
	AttrError,
	AttrIdentifier,
}

// ParseAttributeKey validates a slot name.
func ParseAttributeKey(s string) (AttributeKey, error) {
	for _, k := range AllAttributeKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// AttributeEntry is one element of a slot. Operator and Index are optional.
type AttributeEntry struct {
	Value    string
	Operator Operator
	Index    string
}

// IsEmpty reports whether the entry carries no information at all.
func (e AttributeEntry) IsEmpty() bool {
	return strings.TrimSpace(e.Value) == "" && e.Operator == OpNone && strings.TrimSpace(e.Index) == ""
}

// Qualified reports whether the entry has an operator or index annotation.
func (e AttributeEntry) Qualified() bool {
	return e.Operator != OpNone || e.Index != ""
}

// AttributeValue is the ordered entry list held by one slot.
type AttributeValue []AttributeEntry

// Plain builds a slot value from bare strings.
func Plain(values ...string) AttributeValue {
	out := make(AttributeValue, 0, len(values))
	for _, v := range values {
		out = append(out, AttributeEntry{Value: v})
	}
	return out
}

// Qualified builds a single-entry slot value with an operator.
func Qualified(value string, op Operator) AttributeValue {
	return AttributeValue{{Value: value, Operator: op}}
}

// IsEmpty reports whether every entry is empty.
func (v AttributeValue) IsEmpty() bool {
	for _, e := range v {
		if !e.IsEmpty() {
			return false
		}
	}
	return true
}

// HasQualifiers reports whether any entry carries an operator or index.
func (v AttributeValue) HasQualifiers() bool {
	for _, e := range v {
		if e.Qualified() {
			return true
		}
	}
	return false
}

// HasOperatorValue reports whether at least one entry has both a value and an
// operator.
func (v AttributeValue) HasOperatorValue() bool {
	for _, e := range v {
		if strings.TrimSpace(e.Value) != "" && e.Operator != OpNone {
			return true
		}
	}
	return false
}

// HasText reports whether at least one entry has a non-blank value.
func (v AttributeValue) HasText() bool {
	for _, e := range v {
		if strings.TrimSpace(e.Value) != "" {
			return true
		}
	}
	return false
}

// Values returns the bare values of every entry.
func (v AttributeValue) Values() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Value
	}
	return out
}

// Equal compares two slot values entry by entry.
func (v AttributeValue) Equal(other AttributeValue) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (v AttributeValue) Clone() AttributeValue {
	if v == nil {
		return nil
	}
	out := make(AttributeValue, len(v))
	copy(out, v)
	return out
}

// Attributes maps slot names to their values. Absent keys are undefined slots.
type Attributes map[AttributeKey]AttributeValue

// Get returns the value of a slot, or nil.
func (a Attributes) Get(key AttributeKey) AttributeValue {
	return a[key]
}

// Text returns the slot's bare values joined with "; ".
func (a Attributes) Text(key AttributeKey) string {
	return strings.Join(a[key].Values(), "; ")
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v.Clone()
	}
	return out
}

// Equal compares two attribute sets, treating empty slots as undefined.
func (a Attributes) Equal(other Attributes) bool {
	for _, k := range AllAttributeKeys {
		av, bv := a[k], other[k]
		if av.IsEmpty() && bv.IsEmpty() {
			continue
		}
		if !av.Equal(bv) {
			return false
		}
	}
	return true
}
