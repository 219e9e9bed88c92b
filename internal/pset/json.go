package pset

import (
	"bytes"
	"encoding/json"
	"math"
)

type jsonValue struct {
	Type    Kind            `json:"type"`
	Tracked bool            `json:"tracked"`
	Value   json.RawMessage `json:"value"`
}

// MarshalJSON encodes p as an object whose keys keep declaration order.
// Every parameter is written as {"type", "tracked", "value"}.
func (p *PSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes v with its kind and tracking flag.
func (v Value) MarshalJSON() ([]byte, error) {
	raw, err := v.jsonData()
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue{Type: v.kind, Tracked: v.Tracked(), Value: raw})
}

func (v Value) jsonData() ([]byte, error) {
	switch d := v.data.(type) {
	case *PSet:
		return d.MarshalJSON()
	case []*PSet:
		return json.Marshal(d)
	case float64:
		return json.Marshal(jsonFloat(d))
	case []float64:
		out := make([]any, len(d))
		for i, f := range d {
			out[i] = jsonFloat(f)
		}
		return json.Marshal(out)
	case InputTag:
		return json.Marshal(d.String())
	case []InputTag:
		out := make([]string, len(d))
		for i, t := range d {
			out[i] = t.String()
		}
		return json.Marshal(out)
	}
	return json.Marshal(v.data)
}

// JSON has no NaN or infinities; those are written as strings.
func jsonFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return formatDouble(f)
	}
	return f
}
