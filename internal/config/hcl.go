package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
)

// HCL fragments look like
//
//	version = "v1"
//
//	pset "SimTrackMatching" {
//	  simTrackMinPt = double(2)
//	  verbose       = untracked(false)
//	}
//
//	module "OuterTrackerMCTruth" {
//	  kind = "analyzer"
//	  type = "OuterTrackerMCTruth"
//	  params {
//	    TopFolderName = "Phase2OuterTrackerV"
//	    pset "TH1TPart_Pt" {
//	      Nbinsx = int32(50)
//	      xmin   = double(0)
//	      xmax   = double(200)
//	    }
//	  }
//	}
//
//	sequence "PF2PAT" { expr = "pfNoMuon + pfJets" }
//
//	event_content "PF2PATStudies" {
//	  extends  = ["PF2PAT"]
//	  commands = ["keep *_pfNoMuon_*_*"]
//	}
//
// Parameters keep source order. Typed constructor functions (int32, double,
// InputTag, vint32, ref, untracked, ...) fix the kind; plain literals are
// inferred the way untagged YAML is.

var valueType = cty.Capsule("parameter", reflect.TypeOf(pset.Value{}))

func capsule(v pset.Value) cty.Value { return cty.CapsuleVal(valueType, &v) }

type hclSequence struct {
	Expr string `hcl:"expr"`
}

type hclEventContent struct {
	Extends  []string `hcl:"extends,optional"`
	Commands []string `hcl:"commands,optional"`
}

// DecodeHCL decodes one HCL fragment. filename is used in diagnostics.
func DecodeHCL(data []byte, filename string) (*Fragment, error) {
	file, diags := hclsyntax.ParseConfig(data, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, cfgerr.Malformed("", "%s", diags.Error())
	}
	d := &hclDecoder{ctx: &hcl.EvalContext{Functions: paramFunctions()}, src: data}
	f := d.fragment(file.Body.(*hclsyntax.Body))
	if d.diags.HasErrors() {
		return nil, cfgerr.Malformed("", "%s", d.diags.Error())
	}
	return f, nil
}

type hclDecoder struct {
	ctx   *hcl.EvalContext
	src   []byte
	diags hcl.Diagnostics
}

func (d *hclDecoder) errorf(rng hcl.Range, summary, format string, args ...any) {
	d.diags = append(d.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  rng.Ptr(),
	})
}

func (d *hclDecoder) fragment(body *hclsyntax.Body) *Fragment {
	f := &Fragment{}
	for _, attr := range sortedAttrs(body) {
		if attr.Name != "version" {
			d.errorf(attr.NameRange, "Unsupported argument", "%q is not a fragment argument", attr.Name)
			continue
		}
		f.Version = d.str(attr)
	}
	for _, blk := range body.Blocks {
		if len(blk.Labels) != 1 {
			d.errorf(blk.TypeRange, "Missing name", "%s block needs exactly one name label", blk.Type)
			continue
		}
		name := blk.Labels[0]
		switch blk.Type {
		case "pset":
			f.PSets = append(f.PSets, NamedPSet{Name: name, Params: d.params(blk.Body)})
		case "module":
			f.Modules = append(f.Modules, d.module(name, blk.Body))
		case "sequence":
			var s hclSequence
			d.diags = append(d.diags, gohcl.DecodeBody(blk.Body, nil, &s)...)
			f.Sequences = append(f.Sequences, SequenceDecl{Name: name, Expr: s.Expr})
		case "event_content":
			var ec hclEventContent
			d.diags = append(d.diags, gohcl.DecodeBody(blk.Body, nil, &ec)...)
			f.EventContent = append(f.EventContent, EventContentDecl{Name: name, Extends: ec.Extends, Commands: ec.Commands})
		default:
			d.errorf(blk.TypeRange, "Unsupported block type", "blocks of type %q are not expected here", blk.Type)
		}
	}
	return f
}

func (d *hclDecoder) module(label string, body *hclsyntax.Body) ModuleDecl {
	m := ModuleDecl{Label: label}
	for _, attr := range sortedAttrs(body) {
		switch attr.Name {
		case "kind":
			m.Kind = d.str(attr)
		case "type":
			m.Type = d.str(attr)
		case "clone_of":
			m.CloneOf = d.str(attr)
		default:
			d.errorf(attr.NameRange, "Unsupported argument", "%q is not a module argument; parameters go in a params block", attr.Name)
		}
	}
	for _, blk := range body.Blocks {
		if blk.Type != "params" || len(blk.Labels) != 0 {
			d.errorf(blk.TypeRange, "Unsupported block type", "module %s only takes one unlabeled params block", label)
			continue
		}
		if m.Params != nil {
			d.errorf(blk.TypeRange, "Duplicate params block", "module %s already has parameters", label)
			continue
		}
		m.Params = d.params(blk.Body)
	}
	return m
}

func (d *hclDecoder) str(attr *hclsyntax.Attribute) string {
	v, diags := attr.Expr.Value(nil)
	d.diags = append(d.diags, diags...)
	if diags.HasErrors() {
		return ""
	}
	if v.IsNull() || !v.Type().Equals(cty.String) {
		d.errorf(attr.SrcRange, "Incorrect attribute value type", "%q must be a string", attr.Name)
		return ""
	}
	return v.AsString()
}

type positioned struct {
	at    int
	entry pset.Entry
}

// params decodes attributes and nested pset/vpset blocks in source order.
// A nested block may carry a second label, untracked:
//
//	pset "options" untracked { ... }
func (d *hclDecoder) params(body *hclsyntax.Body) *pset.PSet {
	var items []positioned
	for _, attr := range body.Attributes {
		pv, ok := d.value(attr)
		if !ok {
			continue
		}
		items = append(items, positioned{at: attr.SrcRange.Start.Byte, entry: pset.P(attr.Name, pv)})
	}
	for _, blk := range body.Blocks {
		if len(blk.Labels) == 0 || len(blk.Labels) > 2 || (len(blk.Labels) == 2 && blk.Labels[1] != "untracked") {
			d.errorf(blk.TypeRange, "Invalid block labels", "want %s \"name\" [untracked]", blk.Type)
			continue
		}
		var v pset.Value
		switch blk.Type {
		case "pset":
			v = pset.Nested(d.params(blk.Body))
		case "vpset":
			v = d.vpset(blk)
		default:
			d.errorf(blk.TypeRange, "Unsupported block type", "parameters only nest pset and vpset blocks, got %q", blk.Type)
			continue
		}
		if len(blk.Labels) == 2 {
			v = pset.Untracked(v)
		}
		items = append(items, positioned{at: blk.TypeRange.Start.Byte, entry: pset.P(blk.Labels[0], v)})
	}
	slices.SortFunc(items, func(a, b positioned) int { return a.at - b.at })

	entries := make([]pset.Entry, len(items))
	for i, it := range items {
		entries[i] = it.entry
	}
	ps, err := pset.New(entries...)
	if err != nil {
		d.errorf(body.SrcRange, "Invalid parameter set", "%v", err)
		return pset.MustNew()
	}
	return ps
}

// value evaluates one parameter attribute. An untracked(...) call is unwrapped
// here so a bare literal inside it is still inferred from its source text.
func (d *hclDecoder) value(attr *hclsyntax.Attribute) (pset.Value, bool) {
	expr := attr.Expr
	untracked := false
	if call, ok := expr.(*hclsyntax.FunctionCallExpr); ok && call.Name == "untracked" && len(call.Args) == 1 && !call.ExpandFinal {
		untracked, expr = true, call.Args[0]
	}
	v, diags := expr.Value(d.ctx)
	d.diags = append(d.diags, diags...)
	if diags.HasErrors() {
		return pset.Value{}, false
	}
	pv, err := toValue(v, literal{src: d.src, expr: expr})
	if err != nil {
		d.errorf(attr.SrcRange, "Invalid parameter value", "%s: %v", attr.Name, err)
		return pset.Value{}, false
	}
	if untracked {
		pv = pset.Untracked(pv)
	}
	return pv, true
}

// literal is the source of an evaluated expression. cty numbers drop the
// decimal point, so 200.0 and 200 only differ in the text.
type literal struct {
	src  []byte
	expr hclsyntax.Expression
}

// fractional reports whether a number literal was written with a fraction or
// an exponent.
func (l literal) fractional() bool {
	switch e := l.expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		r := e.SrcRange
		if !e.Val.Type().Equals(cty.Number) || r.Start.Byte > r.End.Byte || r.End.Byte > len(l.src) {
			return false
		}
		return bytes.ContainsAny(l.src[r.Start.Byte:r.End.Byte], ".eE")
	case *hclsyntax.UnaryOpExpr:
		return e.Op == hclsyntax.OpNegate && literal{src: l.src, expr: e.Val}.fractional()
	case *hclsyntax.ParenthesesExpr:
		return literal{src: l.src, expr: e.Expression}.fractional()
	}
	return false
}

// elem returns the source of the i-th element of a tuple literal of n elements.
func (l literal) elem(i, n int) literal {
	if t, ok := l.expr.(*hclsyntax.TupleConsExpr); ok && len(t.Exprs) == n {
		return literal{src: l.src, expr: t.Exprs[i]}
	}
	return literal{}
}

func (d *hclDecoder) vpset(blk *hclsyntax.Block) pset.Value {
	for _, attr := range sortedAttrs(blk.Body) {
		d.errorf(attr.NameRange, "Unsupported argument", "vpset %s only holds pset blocks", blk.Labels[0])
	}
	sets := make([]*pset.PSet, 0, len(blk.Body.Blocks))
	for _, inner := range blk.Body.Blocks {
		if inner.Type != "pset" || len(inner.Labels) != 0 {
			d.errorf(inner.TypeRange, "Unsupported block type", "vpset %s holds unlabeled pset blocks", blk.Labels[0])
			continue
		}
		sets = append(sets, d.params(inner.Body))
	}
	return pset.VPSet(sets...)
}

func sortedAttrs(body *hclsyntax.Body) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *hclsyntax.Attribute) int { return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte })
	return out
}

// toValue maps a cty value onto a parameter. Capsules from the constructor
// functions pass through; bare literals are inferred the way untagged YAML
// is, with lit telling 200.0 from 200 when the source is known.
func toValue(v cty.Value, lit literal) (pset.Value, error) {
	if v.IsNull() {
		return pset.Value{}, errors.New("null is not a parameter value")
	}
	if !v.IsWhollyKnown() {
		return pset.Value{}, errors.New("value is not known")
	}
	ty := v.Type()
	switch {
	case ty.Equals(valueType):
		return *v.EncapsulatedValue().(*pset.Value), nil
	case ty.Equals(cty.String):
		return pset.String(v.AsString()), nil
	case ty.Equals(cty.Bool):
		return pset.Bool(v.True()), nil
	case ty.Equals(cty.Number):
		return inferNumber(v.AsBigFloat(), lit.fractional())
	case ty.IsTupleType(), ty.IsListType():
		return inferList(v.AsValueSlice(), lit)
	}
	return pset.Value{}, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}

func inferNumber(f *big.Float, fractional bool) (pset.Value, error) {
	if fractional || !f.IsInt() {
		d, _ := f.Float64()
		return pset.Double(d), nil
	}
	if i, acc := f.Int64(); acc == big.Exact {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return pset.Int32(int32(i)), nil
		}
		return pset.Int64(i), nil
	}
	if u, acc := f.Uint64(); acc == big.Exact {
		return pset.Uint64(u), nil
	}
	return pset.Value{}, fmt.Errorf("integer %s out of range", f.Text('g', -1))
}

func inferList(elems []cty.Value, lit literal) (pset.Value, error) {
	if len(elems) == 0 {
		return pset.Value{}, errors.New("empty list needs a typed constructor such as vint32()")
	}
	vals := make([]pset.Value, len(elems))
	for i, e := range elems {
		pv, err := toValue(e, lit.elem(i, len(elems)))
		if err != nil {
			return pset.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		vals[i] = pv
	}
	kinds := map[pset.Kind]bool{}
	for _, pv := range vals {
		kinds[pv.Kind()] = true
	}
	all := func(k ...pset.Kind) bool {
		for have := range kinds {
			if !slices.Contains(k, have) {
				return false
			}
		}
		return true
	}
	switch {
	case all(pset.KindString):
		return pset.VString(collect[string](vals)...), nil
	case all(pset.KindInputTag):
		return pset.VTag(collect[pset.InputTag](vals)...), nil
	case all(pset.KindInt32):
		return pset.VInt32(collect[int32](vals)...), nil
	case all(pset.KindInt32, pset.KindInt64):
		out := make([]int64, len(vals))
		for i, pv := range vals {
			out[i] = asInt64(pv.Data())
		}
		return pset.VInt64(out...), nil
	case all(pset.KindInt32, pset.KindInt64, pset.KindUint64) && nonNegative(vals):
		out := make([]uint64, len(vals))
		for i, pv := range vals {
			out[i] = asUint64(pv.Data())
		}
		return pset.VUint64(out...), nil
	case all(pset.KindInt32, pset.KindInt64, pset.KindDouble):
		out := make([]float64, len(vals))
		for i, pv := range vals {
			out[i] = asFloat(pv.Data())
		}
		return pset.VDouble(out...), nil
	}
	return pset.Value{}, errors.New("list mixes element types; use a typed constructor")
}

func collect[T any](vals []pset.Value) []T {
	out := make([]T, len(vals))
	for i, pv := range vals {
		out[i] = pv.Data().(T)
	}
	return out
}

func asInt64(d any) int64 {
	if i, ok := d.(int32); ok {
		return int64(i)
	}
	return d.(int64)
}

func asUint64(d any) uint64 {
	if u, ok := d.(uint64); ok {
		return u
	}
	return uint64(asInt64(d))
}

func nonNegative(vals []pset.Value) bool {
	for _, pv := range vals {
		if _, ok := pv.Data().(uint64); !ok && asInt64(pv.Data()) < 0 {
			return false
		}
	}
	return true
}

func asFloat(d any) float64 {
	switch n := d.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return d.(float64)
}

// paramFunctions are the typed constructors available in parameter values.
func paramFunctions() map[string]function.Function {
	return map[string]function.Function{
		"int32":  numberFunc(toInt32),
		"uint32": numberFunc(toUint32),
		"int64":  numberFunc(toInt64),
		"uint64": numberFunc(toUint64),
		"double": numberFunc(toDouble),
		"bool": function.New(&function.Spec{
			Params: []function.Parameter{{Name: "value", Type: cty.Bool}},
			Type:   function.StaticReturnType(valueType),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return capsule(pset.Bool(args[0].True())), nil
			},
		}),
		"string": stringFunc(func(s string) (pset.Value, error) { return pset.String(s), nil }),
		"ref": stringFunc(func(s string) (pset.Value, error) {
			if s == "" {
				return pset.Value{}, errors.New("ref needs a set name")
			}
			return pset.Ref(s), nil
		}),
		"InputTag": function.New(&function.Spec{
			Params:   []function.Parameter{{Name: "label", Type: cty.String}},
			VarParam: &function.Parameter{Name: "instance_and_process", Type: cty.String},
			Type:     function.StaticReturnType(valueType),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				if len(args) > 3 {
					return cty.NilVal, errors.New("InputTag takes at most label, instance and process")
				}
				parts := make([]string, len(args))
				for i, a := range args {
					parts[i] = a.AsString()
				}
				if parts[0] == "" {
					return cty.NilVal, errors.New("InputTag needs a label")
				}
				return capsule(pset.Tag(parts[0], parts[1:]...)), nil
			},
		}),
		"vint32": numberListFunc(toInt32, func(vs []pset.Value) pset.Value {
			return pset.VInt32(collect[int32](vs)...)
		}),
		"vuint32": numberListFunc(toUint32, func(vs []pset.Value) pset.Value {
			return pset.VUint32(collect[uint32](vs)...)
		}),
		"vint64": numberListFunc(toInt64, func(vs []pset.Value) pset.Value {
			return pset.VInt64(collect[int64](vs)...)
		}),
		"vuint64": numberListFunc(toUint64, func(vs []pset.Value) pset.Value {
			return pset.VUint64(collect[uint64](vs)...)
		}),
		"vdouble": numberListFunc(toDouble, func(vs []pset.Value) pset.Value {
			return pset.VDouble(collect[float64](vs)...)
		}),
		"vstring": stringListFunc(func(ss []string) (pset.Value, error) {
			return pset.VString(ss...), nil
		}),
		"VInputTag": stringListFunc(func(ss []string) (pset.Value, error) {
			out := make([]pset.InputTag, len(ss))
			for i, s := range ss {
				t, err := pset.ParseInputTag(s)
				if err != nil {
					return pset.Value{}, err
				}
				out[i] = t
			}
			return pset.VTag(out...), nil
		}),
		"untracked": function.New(&function.Spec{
			Params: []function.Parameter{{Name: "value", Type: cty.DynamicPseudoType}},
			Type:   function.StaticReturnType(valueType),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				pv, err := toValue(args[0], literal{})
				if err != nil {
					return cty.NilVal, err
				}
				return capsule(pset.Untracked(pv)), nil
			},
		}),
	}
}

func toInt32(f *big.Float) (pset.Value, error) {
	i, acc := f.Int64()
	if acc != big.Exact || i < math.MinInt32 || i > math.MaxInt32 {
		return pset.Value{}, fmt.Errorf("%s is not an int32", f.Text('g', -1))
	}
	return pset.Int32(int32(i)), nil
}

func toUint32(f *big.Float) (pset.Value, error) {
	u, acc := f.Uint64()
	if acc != big.Exact || u > math.MaxUint32 {
		return pset.Value{}, fmt.Errorf("%s is not a uint32", f.Text('g', -1))
	}
	return pset.Uint32(uint32(u)), nil
}

func toInt64(f *big.Float) (pset.Value, error) {
	i, acc := f.Int64()
	if acc != big.Exact {
		return pset.Value{}, fmt.Errorf("%s is not an int64", f.Text('g', -1))
	}
	return pset.Int64(i), nil
}

func toUint64(f *big.Float) (pset.Value, error) {
	u, acc := f.Uint64()
	if acc != big.Exact {
		return pset.Value{}, fmt.Errorf("%s is not a uint64", f.Text('g', -1))
	}
	return pset.Uint64(u), nil
}

func toDouble(f *big.Float) (pset.Value, error) {
	d, _ := f.Float64()
	return pset.Double(d), nil
}

func numberFunc(build func(*big.Float) (pset.Value, error)) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "value", Type: cty.Number}},
		Type:   function.StaticReturnType(valueType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			pv, err := build(args[0].AsBigFloat())
			if err != nil {
				return cty.NilVal, err
			}
			return capsule(pv), nil
		},
	})
}

// numberListFunc applies the scalar constructor to every argument so list
// elements get the same range checks as single values.
func numberListFunc(elem func(*big.Float) (pset.Value, error), wrap func([]pset.Value) pset.Value) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{Name: "values", Type: cty.Number},
		Type:     function.StaticReturnType(valueType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			vals := make([]pset.Value, len(args))
			for i, a := range args {
				pv, err := elem(a.AsBigFloat())
				if err != nil {
					return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
				}
				vals[i] = pv
			}
			return capsule(wrap(vals)), nil
		},
	})
}

func stringFunc(build func(string) (pset.Value, error)) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "value", Type: cty.String}},
		Type:   function.StaticReturnType(valueType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			pv, err := build(args[0].AsString())
			if err != nil {
				return cty.NilVal, err
			}
			return capsule(pv), nil
		},
	})
}

func stringListFunc(build func([]string) (pset.Value, error)) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{Name: "values", Type: cty.String},
		Type:     function.StaticReturnType(valueType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			ss := make([]string, len(args))
			for i, a := range args {
				ss[i] = a.AsString()
			}
			pv, err := build(ss)
			if err != nil {
				return cty.NilVal, err
			}
			return capsule(pv), nil
		},
	})
}
