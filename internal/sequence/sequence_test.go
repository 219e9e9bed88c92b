package sequence_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

type L = sequence.Label

func TestConcat_Order(t *testing.T) {
	s := sequence.Concat(L("A"), L("B"))
	if got, want := s.Labels(), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Labels() = %v, want %v", got, want)
	}
}

func TestConcat_Associative(t *testing.T) {
	a, b, c := L("A"), L("B"), L("C")
	left := sequence.Concat(sequence.Concat(a, b), c)
	right := sequence.Concat(a, sequence.Concat(b, c))
	flat := sequence.Concat(a, b, c)

	want := []string{"A", "B", "C"}
	for name, s := range map[string]*sequence.Sequence{"(A+B)+C": left, "A+(B+C)": right, "A+B+C": flat} {
		if got := s.Labels(); !reflect.DeepEqual(got, want) {
			t.Errorf("%s: Labels() = %v, want %v", name, got, want)
		}
	}
	if got := left.Plus(L("D")).Labels(); !reflect.DeepEqual(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("Plus: got %v", got)
	}
}

func TestSteps_FirstOccurrenceWins(t *testing.T) {
	inner := sequence.New("inner", L("B"), L("A"))
	s := sequence.New("outer", L("A"), inner, L("C"))
	if got, want := s.Labels(), []string{"A", "B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Labels() = %v, want %v", got, want)
	}
}

func TestNot(t *testing.T) {
	s := sequence.Concat(L("noPileUp"), sequence.Not(L("vetoFilter")))
	steps := s.Steps()
	if len(steps) != 2 || steps[0].Inverted || !steps[1].Inverted {
		t.Fatalf("unexpected steps %v", steps)
	}
	if steps[1].String() != "~vetoFilter" {
		t.Errorf("String() = %q", steps[1].String())
	}
}

func TestConflicts(t *testing.T) {
	s := sequence.Concat(L("f"), L("A"), sequence.Not(L("f")), sequence.Not(L("g")), L("g"), sequence.Not(L("f")))
	if got, want := s.Conflicts(), []string{"f", "g"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Conflicts() = %v, want %v", got, want)
	}
	if got := sequence.Concat(L("f"), L("f"), sequence.Not(L("g"))).Conflicts(); len(got) != 0 {
		t.Errorf("Conflicts() = %v, want none", got)
	}
}

type parseCase struct {
	name    string
	expr    string
	refs    []string
	wantErr bool
}

func TestParse(t *testing.T) {
	cases := []parseCase{
		{name: "single", expr: "pfMET", refs: []string{"pfMET"}},
		{name: "plus", expr: "genMetTrueSequence + pfMET + noMuon", refs: []string{"genMetTrueSequence", "pfMET", "noMuon"}},
		{name: "star", expr: "OuterTrackerMonitorCluster *\n\t OuterTrackerMonitorStub", refs: []string{"OuterTrackerMonitorCluster", "OuterTrackerMonitorStub"}},
		{name: "parens", expr: "a + (b * c) + d", refs: []string{"a", "b", "c", "d"}},
		{name: "not", expr: "a + ~b", refs: []string{"a", "~b"}},
		{name: "empty", expr: "   ", wantErr: true},
		{name: "dangling op", expr: "a +", wantErr: true},
		{name: "unbalanced", expr: "(a + b", wantErr: true},
		{name: "extra paren", expr: "a + b)", wantErr: true},
		{name: "not group", expr: "~(a + b)", wantErr: true},
		{name: "bad char", expr: "a - b", wantErr: true},
		{name: "missing op", expr: "a b", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := sequence.Parse(tc.expr)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.expr)
				}
				if !errors.Is(err, cfgerr.ErrMalformed) {
					t.Errorf("error %v is not ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []string
			for _, r := range sequence.Refs(e) {
				got = append(got, r.String())
			}
			if !reflect.DeepEqual(got, tc.refs) {
				t.Errorf("refs = %v, want %v", got, tc.refs)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	e, err := sequence.Parse("a + (b * ~c)")
	if err != nil {
		t.Fatal(err)
	}
	s, err := sequence.Build("path", e, func(ref *sequence.RefExpr) (sequence.Item, error) {
		return L(ref.Name), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "path" {
		t.Errorf("Name() = %q", s.Name())
	}
	var got []string
	for _, st := range s.Steps() {
		got = append(got, st.String())
	}
	if want := []string{"a", "b", "~c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("steps = %v, want %v", got, want)
	}
}

func TestBuild_ReportsEveryFailure(t *testing.T) {
	e, _ := sequence.Parse("known + missing1 + missing2")
	_, err := sequence.Build("s", e, func(ref *sequence.RefExpr) (sequence.Item, error) {
		if ref.Name == "known" {
			return L(ref.Name), nil
		}
		return nil, cfgerr.Unresolved("s", ref.Name)
	})
	if !errors.Is(err, cfgerr.ErrUnresolvedReference) {
		t.Fatalf("expected unresolved reference, got %v", err)
	}
	for _, name := range []string{"missing1", "missing2"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestExprString(t *testing.T) {
	e, err := sequence.Parse("a+b*(c+~d)")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := e.String(), "a + b * (c + ~d)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
