package pset

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind is the declared type of a parameter.
type Kind string

const (
	KindInt32     Kind = "int32"
	KindUint32    Kind = "uint32"
	KindInt64     Kind = "int64"
	KindUint64    Kind = "uint64"
	KindDouble    Kind = "double"
	KindBool      Kind = "bool"
	KindString    Kind = "string"
	KindInputTag  Kind = "InputTag"
	KindVInt32    Kind = "vint32"
	KindVUint32   Kind = "vuint32"
	KindVInt64    Kind = "vint64"
	KindVUint64   Kind = "vuint64"
	KindVDouble   Kind = "vdouble"
	KindVString   Kind = "vstring"
	KindVInputTag Kind = "VInputTag"
	KindPSet      Kind = "PSet"
	KindVPSet     Kind = "VPSet"
	// KindRef is a reference to a named parameter set, replaced by Resolve.
	KindRef Kind = "ref"
)

var listElem = map[Kind]Kind{
	KindVInt32:    KindInt32,
	KindVUint32:   KindUint32,
	KindVInt64:    KindInt64,
	KindVUint64:   KindUint64,
	KindVDouble:   KindDouble,
	KindVString:   KindString,
	KindVInputTag: KindInputTag,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindInt32, KindUint32, KindInt64, KindUint64, KindDouble, KindBool, KindString,
		KindInputTag, KindPSet, KindVPSet, KindRef:
		return true
	}
	_, ok := listElem[k]
	return ok
}

// IsList reports whether k holds a list of scalars.
func (k Kind) IsList() bool {
	_, ok := listElem[k]
	return ok
}

// Value is an immutable typed parameter value.
type Value struct {
	kind      Kind
	untracked bool
	data      any
}

func Int32(v int32) Value    { return Value{kind: KindInt32, data: v} }
func Uint32(v uint32) Value  { return Value{kind: KindUint32, data: v} }
func Int64(v int64) Value    { return Value{kind: KindInt64, data: v} }
func Uint64(v uint64) Value  { return Value{kind: KindUint64, data: v} }
func Double(v float64) Value { return Value{kind: KindDouble, data: v} }
func Bool(v bool) Value      { return Value{kind: KindBool, data: v} }
func String(v string) Value  { return Value{kind: KindString, data: v} }

// Tag is shorthand for TagOf(NewInputTag(label, instanceAndProcess...)).
func Tag(label string, instanceAndProcess ...string) Value {
	return TagOf(NewInputTag(label, instanceAndProcess...))
}

func TagOf(t InputTag) Value { return Value{kind: KindInputTag, data: t} }

func VInt32(v ...int32) Value     { return Value{kind: KindVInt32, data: cloneOrEmpty(v)} }
func VUint32(v ...uint32) Value   { return Value{kind: KindVUint32, data: cloneOrEmpty(v)} }
func VInt64(v ...int64) Value     { return Value{kind: KindVInt64, data: cloneOrEmpty(v)} }
func VUint64(v ...uint64) Value   { return Value{kind: KindVUint64, data: cloneOrEmpty(v)} }
func VDouble(v ...float64) Value  { return Value{kind: KindVDouble, data: cloneOrEmpty(v)} }
func VString(v ...string) Value   { return Value{kind: KindVString, data: cloneOrEmpty(v)} }
func VTag(tags ...InputTag) Value { return Value{kind: KindVInputTag, data: cloneOrEmpty(tags)} }
func VPSet(sets ...*PSet) Value   { return Value{kind: KindVPSet, data: nonNilSets(sets)} }

// Ref refers to the parameter set declared under name.
func Ref(name string) Value { return Value{kind: KindRef, data: name} }

// Untracked returns v marked as untracked.
func Untracked(v Value) Value {
	v.untracked = true
	return v
}

// Nested wraps a parameter set as a value. A nil set is the empty set.
func Nested(ps *PSet) Value {
	if ps == nil {
		ps = &PSet{}
	}
	return Value{kind: KindPSet, data: ps}
}

func cloneOrEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return slices.Clone(v)
}

func nonNilSets(sets []*PSet) []*PSet {
	out := make([]*PSet, len(sets))
	for i, ps := range sets {
		if ps == nil {
			ps = &PSet{}
		}
		out[i] = ps
	}
	return out
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) Tracked() bool { return !v.untracked }
func (v Value) IsZero() bool  { return v.kind == "" }

// Data returns a copy of the underlying Go value: int32, uint32, int64,
// uint64, float64, bool, string, InputTag, a slice of those, *PSet or []*PSet.
// For KindRef it is the referenced name.
func (v Value) Data() any {
	switch d := v.data.(type) {
	case []int32:
		return slices.Clone(d)
	case []uint32:
		return slices.Clone(d)
	case []int64:
		return slices.Clone(d)
	case []uint64:
		return slices.Clone(d)
	case []float64:
		return slices.Clone(d)
	case []string:
		return slices.Clone(d)
	case []InputTag:
		return slices.Clone(d)
	case []*PSet:
		return slices.Clone(d)
	}
	return v.data
}

// RefName returns the referenced set name of a KindRef value.
func (v Value) RefName() (string, bool) {
	if v.kind != KindRef {
		return "", false
	}
	return v.data.(string), true
}

// Equal reports whether v and o have the same kind, tracking and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.untracked != o.untracked {
		return false
	}
	switch a := v.data.(type) {
	case float64:
		return sameFloat(a, o.data.(float64))
	case []float64:
		return slices.EqualFunc(a, o.data.([]float64), sameFloat)
	case []int32:
		return slices.Equal(a, o.data.([]int32))
	case []uint32:
		return slices.Equal(a, o.data.([]uint32))
	case []int64:
		return slices.Equal(a, o.data.([]int64))
	case []uint64:
		return slices.Equal(a, o.data.([]uint64))
	case []string:
		return slices.Equal(a, o.data.([]string))
	case []InputTag:
		return slices.Equal(a, o.data.([]InputTag))
	case *PSet:
		return a.Equal(o.data.(*PSet))
	case []*PSet:
		return slices.EqualFunc(a, o.data.([]*PSet), func(x, y *PSet) bool { return x.Equal(y) })
	}
	return v.data == o.data
}

func sameFloat(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b) || (math.IsNaN(a) && math.IsNaN(b))
}

// String renders scalars and lists the way they are written in fragments.
func (v Value) String() string {
	if v.kind.IsList() {
		return "[" + strings.Join(v.scalarTexts(), ", ") + "]"
	}
	switch d := v.data.(type) {
	case *PSet:
		return "{" + strings.Join(d.Names(), ", ") + "}"
	case []*PSet:
		return "[" + strconv.Itoa(len(d)) + " PSet]"
	}
	return v.scalarText()
}

func (v Value) scalarText() string {
	return formatScalar(v.data)
}

func (v Value) scalarTexts() []string {
	var out []string
	switch d := v.data.(type) {
	case []int32:
		for _, x := range d {
			out = append(out, formatScalar(x))
		}
	case []uint32:
		for _, x := range d {
			out = append(out, formatScalar(x))
		}
	case []int64:
		for _, x := range d {
			out = append(out, formatScalar(x))
		}
	case []uint64:
		for _, x := range d {
			out = append(out, formatScalar(x))
		}
	case []float64:
		for _, x := range d {
			out = append(out, formatScalar(x))
		}
	case []string:
		out = append(out, d...)
	case []InputTag:
		for _, x := range d {
			out = append(out, x.String())
		}
	}
	return out
}

func formatScalar(d any) string {
	switch x := d.(type) {
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return formatDouble(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case InputTag:
		return x.String()
	}
	return ""
}

// formatDouble keeps a decimal point on whole numbers so 200.0 stays a double.
func formatDouble(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

func parseScalar(kind Kind, text string) (any, error) {
	switch kind {
	case KindInt32:
		n, err := strconv.ParseInt(text, 0, 32)
		return int32(n), err
	case KindUint32:
		n, err := strconv.ParseUint(text, 0, 32)
		return uint32(n), err
	case KindInt64:
		return strconv.ParseInt(text, 0, 64)
	case KindUint64:
		return strconv.ParseUint(text, 0, 64)
	case KindDouble:
		switch strings.ToLower(text) {
		case ".inf", "+.inf":
			return math.Inf(1), nil
		case "-.inf":
			return math.Inf(-1), nil
		case ".nan":
			return math.NaN(), nil
		}
		return strconv.ParseFloat(text, 64)
	case KindBool:
		return strconv.ParseBool(text)
	case KindString:
		return text, nil
	case KindInputTag:
		return ParseInputTag(text)
	}
	return nil, strconv.ErrSyntax
}
