// Package sequence composes module configurations into ordered sequences.
//
// Composition is plain concatenation: nesting only groups, it never changes
// the order in which modules appear.
package sequence

// Step is one scheduled module. Inverted steps pass events their filter
// rejects.
type Step struct {
	Label    string `json:"label"`
	Inverted bool   `json:"inverted,omitempty"`
}

func (s Step) String() string {
	if s.Inverted {
		return "~" + s.Label
	}
	return s.Label
}

// Item is anything that can be placed in a sequence.
type Item interface {
	Steps() []Step
}

// Sequence is an immutable ordered composition of items.
type Sequence struct {
	name  string
	items []Item
}

// New builds a named sequence. Nil items are skipped.
func New(name string, items ...Item) *Sequence {
	s := &Sequence{name: name, items: make([]Item, 0, len(items))}
	for _, it := range items {
		if it != nil {
			s.items = append(s.items, it)
		}
	}
	return s
}

// Concat builds an anonymous sequence of items.
func Concat(items ...Item) *Sequence { return New("", items...) }

// Plus returns the anonymous sequence s followed by items.
func (s *Sequence) Plus(items ...Item) *Sequence {
	return Concat(append([]Item{s}, items...)...)
}

func (s *Sequence) Name() string { return s.name }

// Items returns the direct children.
func (s *Sequence) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Steps flattens s depth first. A label that was already scheduled is not
// repeated; its first position wins.
func (s *Sequence) Steps() []Step {
	var out []Step
	seen := make(map[string]struct{})
	for _, it := range s.items {
		for _, st := range it.Steps() {
			if _, dup := seen[st.Label]; dup {
				continue
			}
			seen[st.Label] = struct{}{}
			out = append(out, st)
		}
	}
	return out
}

// Conflicts returns the labels s schedules both plain and inverted, in order
// of first appearance. Steps would keep only the first of the two.
func (s *Sequence) Conflicts() []string {
	first := make(map[string]bool)
	var out []string
	reported := make(map[string]bool)
	for _, it := range s.items {
		for _, st := range it.Steps() {
			inv, seen := first[st.Label]
			if !seen {
				first[st.Label] = st.Inverted
				continue
			}
			if inv != st.Inverted && !reported[st.Label] {
				reported[st.Label] = true
				out = append(out, st.Label)
			}
		}
	}
	return out
}

// Labels returns the flattened module labels in execution order.
func (s *Sequence) Labels() []string {
	steps := s.Steps()
	out := make([]string, len(steps))
	for i, st := range steps {
		out[i] = st.Label
	}
	return out
}

type inverted struct{ item Item }

// Not inverts the steps of item.
func Not(item Item) Item { return inverted{item: item} }

func (n inverted) Steps() []Step {
	steps := n.item.Steps()
	for i := range steps {
		steps[i].Inverted = !steps[i].Inverted
	}
	return steps
}

// Label is a bare module reference, for composing by name.
type Label string

func (l Label) Steps() []Step { return []Step{{Label: string(l)}} }
