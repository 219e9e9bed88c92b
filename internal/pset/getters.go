package pset

import (
	"slices"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
)

func get[T any](p *PSet, name string, kind Kind) (T, error) {
	var zero T
	v, ok := p.Get(name)
	if !ok {
		return zero, &cfgerr.Error{Kind: cfgerr.ErrNotFound, Path: name, Msg: "parameter is not set"}
	}
	if v.kind != kind {
		return zero, cfgerr.Mismatch(name, string(kind), string(v.kind))
	}
	return v.data.(T), nil
}

func (p *PSet) Int32(name string) (int32, error)    { return get[int32](p, name, KindInt32) }
func (p *PSet) Uint32(name string) (uint32, error)  { return get[uint32](p, name, KindUint32) }
func (p *PSet) Int64(name string) (int64, error)    { return get[int64](p, name, KindInt64) }
func (p *PSet) Uint64(name string) (uint64, error)  { return get[uint64](p, name, KindUint64) }
func (p *PSet) Double(name string) (float64, error) { return get[float64](p, name, KindDouble) }
func (p *PSet) Bool(name string) (bool, error)      { return get[bool](p, name, KindBool) }
func (p *PSet) String(name string) (string, error)  { return get[string](p, name, KindString) }

func (p *PSet) InputTag(name string) (InputTag, error) {
	return get[InputTag](p, name, KindInputTag)
}

func (p *PSet) PSet(name string) (*PSet, error) {
	return get[*PSet](p, name, KindPSet)
}

func (p *PSet) VInt32(name string) ([]int32, error) {
	v, err := get[[]int32](p, name, KindVInt32)
	return slices.Clone(v), err
}

func (p *PSet) VDouble(name string) ([]float64, error) {
	v, err := get[[]float64](p, name, KindVDouble)
	return slices.Clone(v), err
}

func (p *PSet) VString(name string) ([]string, error) {
	v, err := get[[]string](p, name, KindVString)
	return slices.Clone(v), err
}

func (p *PSet) VInputTag(name string) ([]InputTag, error) {
	v, err := get[[]InputTag](p, name, KindVInputTag)
	return slices.Clone(v), err
}

func (p *PSet) VPSet(name string) ([]*PSet, error) {
	v, err := get[[]*PSet](p, name, KindVPSet)
	return slices.Clone(v), err
}
