package pset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
)

const untrackedPrefix = "untracked."

// MarshalYAML encodes p as a mapping in declaration order. Scalars and lists
// carry their kind as a local tag (!int32 50, !untracked.bool false) so a
// decoded set is Equal to the encoded one.
func (p *PSet) MarshalYAML() (interface{}, error) {
	return p.node(), nil
}

// UnmarshalYAML decodes a mapping. Tagged values keep their declared kind;
// untagged values are inferred (see inferValue).
func (p *PSet) UnmarshalYAML(n *yaml.Node) error {
	ps, err := decodePSet(n, "")
	if err != nil {
		return err
	}
	*p = *ps
	return nil
}

func (p *PSet) node() *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range p.Entries() {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Name},
			e.Value.node(),
		)
	}
	return n
}

func (v Value) tag() string {
	if v.untracked {
		return "!" + untrackedPrefix + string(v.kind)
	}
	return "!" + string(v.kind)
}

func (v Value) node() *yaml.Node {
	switch d := v.data.(type) {
	case *PSet:
		n := d.node()
		if v.untracked {
			n.Tag = v.tag()
		}
		return n
	case []*PSet:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, ps := range d {
			n.Content = append(n.Content, ps.node())
		}
		if v.untracked || len(d) == 0 {
			n.Tag = v.tag()
		}
		return n
	}
	if v.kind.IsList() {
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: v.tag(), Style: yaml.FlowStyle}
		for _, s := range v.scalarTexts() {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s})
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: v.tag(), Value: v.scalarText()}
}

func decodePSet(n *yaml.Node, path string) (*PSet, error) {
	n = deref(n)
	if n.Kind != yaml.MappingNode {
		return nil, cfgerr.Malformed(path, "line %d: expected a mapping of parameters", n.Line)
	}
	p := &PSet{index: make(map[string]int, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		at := cfgerr.Join(path, name)
		v, err := decodeValue(n.Content[i+1], at)
		if err != nil {
			return nil, err
		}
		if err := p.add(Entry{Name: name, Value: v}); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Content[i].Line, prefixPath(err, path))
		}
	}
	return p, nil
}

// prefixPath re-roots a path-carrying error under path.
func prefixPath(err error, path string) error {
	if e, ok := err.(*cfgerr.Error); ok && path != "" {
		return &cfgerr.Error{Kind: e.Kind, Path: cfgerr.Join(path, e.Path), Msg: e.Msg}
	}
	return err
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func decodeValue(n *yaml.Node, path string) (Value, error) {
	n = deref(n)
	tag := n.Tag
	if tag == "" || strings.HasPrefix(tag, "!!") || strings.HasPrefix(tag, "tag:yaml.org,2002:") {
		return inferValue(n, path)
	}
	name := strings.TrimPrefix(tag, "!")
	untracked := strings.HasPrefix(name, untrackedPrefix)
	kind := Kind(strings.TrimPrefix(name, untrackedPrefix))
	if !kind.Valid() {
		return Value{}, cfgerr.Malformed(path, "line %d: unknown parameter type %q", n.Line, tag)
	}
	v, err := decodeTyped(kind, n, path)
	if err != nil {
		return Value{}, err
	}
	v.untracked = untracked
	return v, nil
}

func decodeTyped(kind Kind, n *yaml.Node, path string) (Value, error) {
	switch {
	case kind == KindPSet:
		ps, err := decodePSet(n, path)
		if err != nil {
			return Value{}, err
		}
		return Nested(ps), nil
	case kind == KindVPSet:
		return decodeVPSet(n, path)
	case kind.IsList():
		if n.Kind != yaml.SequenceNode {
			return Value{}, cfgerr.Malformed(path, "line %d: %s needs a list", n.Line, kind)
		}
		texts := make([]string, len(n.Content))
		for i, c := range n.Content {
			c = deref(c)
			if c.Kind != yaml.ScalarNode {
				return Value{}, cfgerr.Malformed(path, "line %d: %s elements must be scalars", c.Line, kind)
			}
			texts[i] = c.Value
		}
		return listFromTexts(kind, texts, path)
	}
	if n.Kind != yaml.ScalarNode {
		return Value{}, cfgerr.Malformed(path, "line %d: %s needs a scalar", n.Line, kind)
	}
	if kind == KindRef {
		if n.Value == "" {
			return Value{}, cfgerr.Malformed(path, "line %d: ref needs a set name", n.Line)
		}
		return Ref(n.Value), nil
	}
	d, err := parseScalar(kind, n.Value)
	if err != nil {
		return Value{}, cfgerr.Mismatch(path, string(kind), fmt.Sprintf("%q", n.Value))
	}
	return Value{kind: kind, data: d}, nil
}

func decodeVPSet(n *yaml.Node, path string) (Value, error) {
	if n.Kind != yaml.SequenceNode {
		return Value{}, cfgerr.Malformed(path, "line %d: VPSet needs a list of mappings", n.Line)
	}
	sets := make([]*PSet, len(n.Content))
	for i, c := range n.Content {
		ps, err := decodePSet(c, cfgerr.Join(path, strconv.Itoa(i)))
		if err != nil {
			return Value{}, err
		}
		sets[i] = ps
	}
	return Value{kind: KindVPSet, data: sets}, nil
}

// listFromTexts parses each element with the list's element kind.
func listFromTexts(kind Kind, texts []string, path string) (Value, error) {
	elem := listElem[kind]
	parsed := make([]any, len(texts))
	for i, t := range texts {
		d, err := parseScalar(elem, t)
		if err != nil {
			return Value{}, cfgerr.Mismatch(cfgerr.Join(path, strconv.Itoa(i)), string(elem), fmt.Sprintf("%q", t))
		}
		parsed[i] = d
	}
	return Value{kind: kind, data: collect(kind, parsed)}, nil
}

func collect(kind Kind, items []any) any {
	switch kind {
	case KindVInt32:
		return convert[int32](items)
	case KindVUint32:
		return convert[uint32](items)
	case KindVInt64:
		return convert[int64](items)
	case KindVUint64:
		return convert[uint64](items)
	case KindVDouble:
		return convert[float64](items)
	case KindVString:
		return convert[string](items)
	case KindVInputTag:
		return convert[InputTag](items)
	}
	return nil
}

func convert[T any](items []any) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.(T)
	}
	return out
}

// inferValue maps untagged YAML onto kinds: integers become int32 (int64 or
// uint64 when they do not fit), floats double, mappings PSet, lists of
// mappings VPSet and scalar lists vint32 (widened like scalars to vint64 or
// vuint64), vdouble or vstring. An empty list has no element to infer from
// and must be tagged.
func inferValue(n *yaml.Node, path string) (Value, error) {
	switch n.Kind {
	case yaml.MappingNode:
		ps, err := decodePSet(n, path)
		if err != nil {
			return Value{}, err
		}
		return Nested(ps), nil
	case yaml.SequenceNode:
		return inferList(n, path)
	case yaml.ScalarNode:
		return inferScalar(n, path)
	}
	return Value{}, cfgerr.Malformed(path, "line %d: unsupported YAML node", n.Line)
}

func inferScalar(n *yaml.Node, path string) (Value, error) {
	switch n.ShortTag() {
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(n.Value, 0, 64)
			if uerr != nil {
				return Value{}, cfgerr.Malformed(path, "line %d: integer %q out of range", n.Line, n.Value)
			}
			return Uint64(u), nil
		}
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return Int32(int32(i)), nil
		}
		return Int64(i), nil
	case "!!float":
		d, err := parseScalar(KindDouble, n.Value)
		if err != nil {
			return Value{}, cfgerr.Malformed(path, "line %d: bad number %q", n.Line, n.Value)
		}
		return Double(d.(float64)), nil
	case "!!bool":
		b, err := parseScalar(KindBool, n.Value)
		if err != nil {
			return Value{}, cfgerr.Malformed(path, "line %d: bad bool %q", n.Line, n.Value)
		}
		return Bool(b.(bool)), nil
	case "!!str":
		return String(n.Value), nil
	}
	return Value{}, cfgerr.Malformed(path, "line %d: value %q needs an explicit type tag", n.Line, n.Value)
}

// widenInts returns the integer list kind that holds both kind's elements
// and text, following the scalar rule: int32, then int64, then uint64.
func widenInts(kind Kind, text string) Kind {
	if kind != KindVInt32 && kind != KindVInt64 {
		return kind
	}
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		if kind == KindVInt32 && (v < math.MinInt32 || v > math.MaxInt32) {
			return KindVInt64
		}
		return kind
	}
	if _, err := strconv.ParseUint(text, 0, 64); err == nil {
		return KindVUint64
	}
	return kind
}

func inferList(n *yaml.Node, path string) (Value, error) {
	if len(n.Content) == 0 {
		return Value{}, cfgerr.Malformed(path, "line %d: empty list needs an explicit type tag such as !vint32", n.Line)
	}
	if deref(n.Content[0]).Kind == yaml.MappingNode {
		return decodeVPSet(n, path)
	}
	kind := KindVInt32
	texts := make([]string, len(n.Content))
	for i, c := range n.Content {
		c = deref(c)
		if c.Kind != yaml.ScalarNode {
			return Value{}, cfgerr.Malformed(path, "line %d: mixed list elements", c.Line)
		}
		texts[i] = c.Value
		switch c.ShortTag() {
		case "!!int":
			kind = widenInts(kind, c.Value)
		case "!!float":
			if kind == KindVString {
				return Value{}, cfgerr.Malformed(path, "line %d: list mixes strings and numbers", c.Line)
			}
			kind = KindVDouble
		case "!!str":
			if i > 0 && kind != KindVString {
				return Value{}, cfgerr.Malformed(path, "line %d: list mixes strings and numbers", c.Line)
			}
			kind = KindVString
		default:
			return Value{}, cfgerr.Malformed(path, "line %d: list element %q needs a typed list tag", c.Line, c.Value)
		}
		if kind == KindVString && c.ShortTag() != "!!str" {
			return Value{}, cfgerr.Malformed(path, "line %d: list mixes strings and numbers", c.Line)
		}
	}
	return listFromTexts(kind, texts, path)
}
