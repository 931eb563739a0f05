package isosurf

import (
	"gonum.org/v1/gonum/floats"
)

// IsoValues specifies the iso-values swept in one tessellation call, either
// as an explicit list or as evenly spaced values in a closed interval.
type IsoValues struct {
	list  []float64
	count int
	first float64
	last  float64
}

// IsoList returns an explicit, ordered list of iso-values.
func IsoList(values ...float64) IsoValues {
	return IsoValues{list: append([]float64(nil), values...)}
}

// IsoRange returns count iso-values evenly spaced from first to last inclusive.
// When count is 1 only first is used.
func IsoRange(count int, first, last float64) IsoValues {
	return IsoValues{count: count, first: first, last: last}
}

// Values returns the iso-values in sweep order.
func (iv IsoValues) Values() ([]float64, error) {
	if iv.list != nil {
		if len(iv.list) == 0 {
			return nil, ErrNoIsoValues
		}
		return append([]float64(nil), iv.list...), nil
	}
	switch {
	case iv.count <= 0:
		return nil, ErrNoIsoValues
	case iv.count == 1:
		return []float64{iv.first}, nil
	}
	return floats.Span(make([]float64, iv.count), iv.first, iv.last), nil
}
