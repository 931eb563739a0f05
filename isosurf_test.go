package isosurf_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/soypat/isosurf"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestIsoValues(t *testing.T) {
	for _, test := range []struct {
		name string
		iso  isosurf.IsoValues
		want []float64
	}{
		{name: "list", iso: isosurf.IsoList(0.3, -1, 2), want: []float64{0.3, -1, 2}},
		{name: "range", iso: isosurf.IsoRange(5, 0, 1), want: []float64{0, 0.25, 0.5, 0.75, 1}},
		{name: "single", iso: isosurf.IsoRange(1, 0.4, 9), want: []float64{0.4}},
		{name: "descending", iso: isosurf.IsoRange(3, 1, -1), want: []float64{1, 0, -1}},
	} {
		got, err := test.iso.Values()
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if len(got) != len(test.want) {
			t.Fatalf("%s: got %v, want %v", test.name, got, test.want)
		}
		for i := range got {
			if got[i] != test.want[i] {
				t.Errorf("%s: got %v, want %v", test.name, got, test.want)
				break
			}
		}
	}
	for _, iso := range []isosurf.IsoValues{isosurf.IsoList(), isosurf.IsoRange(0, 1, 2), isosurf.IsoRange(-2, 1, 2), {}} {
		if _, err := iso.Values(); !errors.Is(err, isosurf.ErrNoIsoValues) {
			t.Errorf("got %v, want ErrNoIsoValues", err)
		}
	}
}

func TestShapeCentroid(t *testing.T) {
	for _, test := range []struct {
		shape isosurf.Shape
		want  r3.Vec
	}{
		{isosurf.ShapeCube, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}},
		{isosurf.ShapeTetrahedron, r3.Vec{X: 0.25, Y: 0.25, Z: 0.25}},
		{isosurf.ShapeWedge, r3.Vec{X: 1. / 3, Y: 1. / 3, Z: 0.5}},
	} {
		if got := test.shape.Centroid(); got != test.want {
			t.Errorf("%s: got centroid %v, want %v", test.shape, got, test.want)
		}
	}
	if got := isosurf.Shape(42).String(); got != "Shape(42)" {
		t.Errorf("got %q for unknown shape", got)
	}
}

func TestEvalErrorUnwrap(t *testing.T) {
	cause := errors.New("no basis")
	err := error(&isosurf.EvalError{Field: "scalar", Xi: r3.Vec{X: 0.5}, Err: cause})
	if !errors.Is(err, cause) {
		t.Error("EvalError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "scalar") {
		t.Errorf("error message %q does not name the field", err)
	}
}

func TestSetLogger(t *testing.T) {
	defer isosurf.SetLogger(nil)
	var b bytes.Buffer
	isosurf.SetLogger(slog.New(slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug})))
	isosurf.Logger().Debug("sweep", "cells", 8)
	if !strings.Contains(b.String(), "cells=8") {
		t.Errorf("logger output %q", b.String())
	}
	isosurf.SetLogger(nil)
	b.Reset()
	isosurf.Logger().Warn("dropped")
	if b.Len() != 0 {
		t.Error("default logger is not silent")
	}
}
