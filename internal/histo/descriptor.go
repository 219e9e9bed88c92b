// Package histo reads and writes histogram binning descriptors: parameter
// sets of the form {Nbinsx, xmin, xmax[, Nbinsy, ymin, ymax]}.
package histo

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
)

const (
	NbinsX = "Nbinsx"
	XMin   = "xmin"
	XMax   = "xmax"
	NbinsY = "Nbinsy"
	YMin   = "ymin"
	YMax   = "ymax"
)

// Axis is the binning of one axis. Values are kept as declared; a maximum
// below the minimum is legal data.
type Axis struct {
	Nbins int32   `json:"nbins"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Descriptor is a 1D descriptor, or a 2D one when Y is set.
type Descriptor struct {
	X Axis  `json:"x"`
	Y *Axis `json:"y,omitempty"`
}

// H1 builds a one-dimensional descriptor.
func H1(nbins int32, min, max float64) Descriptor {
	return Descriptor{X: Axis{Nbins: nbins, Min: min, Max: max}}
}

// H2 builds a two-dimensional descriptor.
func H2(nbinsx int32, xmin, xmax float64, nbinsy int32, ymin, ymax float64) Descriptor {
	return Descriptor{
		X: Axis{Nbins: nbinsx, Min: xmin, Max: xmax},
		Y: &Axis{Nbins: nbinsy, Min: ymin, Max: ymax},
	}
}

func (d Descriptor) Is2D() bool { return d.Y != nil }

// PSet encodes d in the order Nbinsx, xmin, xmax[, Nbinsy, ymin, ymax].
func (d Descriptor) PSet() *pset.PSet {
	entries := []pset.Entry{
		pset.P(NbinsX, pset.Int32(d.X.Nbins)),
		pset.P(XMin, pset.Double(d.X.Min)),
		pset.P(XMax, pset.Double(d.X.Max)),
	}
	if d.Y != nil {
		entries = append(entries,
			pset.P(NbinsY, pset.Int32(d.Y.Nbins)),
			pset.P(YMin, pset.Double(d.Y.Min)),
			pset.P(YMax, pset.Double(d.Y.Max)),
		)
	}
	return pset.MustNew(entries...)
}

// Value wraps d.PSet() as a parameter value.
func (d Descriptor) Value() pset.Value { return pset.Nested(d.PSet()) }

func (d Descriptor) String() string {
	s := fmt.Sprintf("%d bins [%g, %g]", d.X.Nbins, d.X.Min, d.X.Max)
	if d.Y != nil {
		s += fmt.Sprintf(" x %d bins [%g, %g]", d.Y.Nbins, d.Y.Min, d.Y.Max)
	}
	return s
}

// FromPSet decodes a descriptor. The x triple is required, the y triple is
// all or nothing and no other parameter is allowed.
func FromPSet(ps *pset.PSet) (Descriptor, error) {
	for _, name := range ps.Names() {
		switch name {
		case NbinsX, XMin, XMax, NbinsY, YMin, YMax:
		default:
			return Descriptor{}, cfgerr.Malformed(name, "unexpected parameter in histogram descriptor")
		}
	}
	x, err := axis(ps, NbinsX, XMin, XMax)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{X: x}

	present := 0
	for _, name := range []string{NbinsY, YMin, YMax} {
		if ps.Has(name) {
			present++
		}
	}
	switch present {
	case 0:
	case 3:
		y, err := axis(ps, NbinsY, YMin, YMax)
		if err != nil {
			return Descriptor{}, err
		}
		d.Y = &y
	default:
		return Descriptor{}, cfgerr.Malformed(NbinsY, "y axis needs all of %s, %s and %s", NbinsY, YMin, YMax)
	}
	return d, nil
}

func axis(ps *pset.PSet, nbins, min, max string) (Axis, error) {
	n, errN := ps.Int32(nbins)
	lo, errLo := ps.Double(min)
	hi, errHi := ps.Double(max)
	if err := errors.Join(errN, errLo, errHi); err != nil {
		return Axis{}, err
	}
	return Axis{Nbins: n, Min: lo, Max: hi}, nil
}

// Named is a descriptor found under a parameter name.
type Named struct {
	Name       string     `json:"name"`
	Descriptor Descriptor `json:"descriptor"`
}

// Collect returns the nested sets of ps that decode as descriptors, in
// declaration order. Sets of any other shape are skipped.
func Collect(ps *pset.PSet) []Named {
	var out []Named
	for _, e := range ps.Entries() {
		if e.Value.Kind() != pset.KindPSet {
			continue
		}
		nested, _ := e.Value.Data().(*pset.PSet)
		d, err := FromPSet(nested)
		if err != nil {
			continue
		}
		out = append(out, Named{Name: e.Name, Descriptor: d})
	}
	return out
}
