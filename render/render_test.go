package render_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/fauxgl"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/isosurf"
	"github.com/soypat/isosurf/field"
	"github.com/soypat/isosurf/render"
	"github.com/soypat/isosurf/tessellate"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"
)

// imgDelta a normalized delta parameter to describe how close the matching
// should be performed (imgDelta=0: perfect match, imgDelta=1, loose match)
const imgDelta = 0

func sphereBuffer(t testing.TB, keys ...int) *render.Buffer {
	buf := render.NewBuffer(0, 0)
	for i, key := range keys {
		ev, err := field.Box(r3.Vec{X: float64(i)}, r3.Vec{X: float64(i + 1), Y: 1, Z: 1}, field.Sphere(r3.Vec{X: float64(i) + 0.5, Y: 0.5, Z: 0.5}, 0.3))
		if err != nil {
			t.Fatal(err)
		}
		elem := isosurf.Element{Key: key, Shape: isosurf.ShapeCube}
		if err = tessellate.Build(elem, ev, [3]int{9, 9, 9}, isosurf.IsoList(0), buf); err != nil {
			t.Fatal(err)
		}
	}
	return buf
}

func TestBufferAttributes(t *testing.T) {
	buf := render.NewBuffer(2, 0)
	if buf.Components(isosurf.AttrData) != 0 || buf.Components(isosurf.AttrTexture) != 2 {
		t.Fatal("unexpected attribute layout")
	}
	if _, err := buf.Append(isosurf.AttrPosition, 1, 2); !errors.Is(err, render.ErrComponents) {
		t.Errorf("got %v, want ErrComponents", err)
	}
	if _, err := buf.Append(isosurf.AttrData, 1); err == nil {
		t.Error("appended to a disabled attribute")
	}
	i, err := buf.Append(isosurf.AttrPosition, 1, 2, 3)
	if err != nil || i != 0 {
		t.Fatalf("got index %d, err %v", i, err)
	}
	i, _ = buf.Append(isosurf.AttrPosition, 4, 5, 6)
	if i != 1 || buf.Len() != 2 {
		t.Fatalf("got index %d and length %d", i, buf.Len())
	}
	if err = buf.ReplaceAt(isosurf.AttrPosition, 0, 7, 8, 9); err != nil {
		t.Fatal(err)
	}
	if got := buf.Attribute(isosurf.AttrPosition, 0); got[0] != 7 || got[2] != 9 {
		t.Errorf("got %v after replace", got)
	}
	if err = buf.ReplaceAt(isosurf.AttrPosition, 2, 0, 0, 0); err == nil {
		t.Error("replaced vertex out of range")
	}
}

func TestBufferRanges(t *testing.T) {
	buf := sphereBuffer(t, 7, 3)
	keys := buf.Keys()
	if len(keys) != 2 || keys[0] != 3 || keys[1] != 7 {
		t.Fatalf("got keys %v", keys)
	}
	n3, n7 := len(buf.Triangles(3)), len(buf.Triangles(7))
	if n3 == 0 || n3 != n7 {
		t.Errorf("got %d and %d triangles for equal spheres", n3, n7)
	}
	if len(buf.AllTriangles()) != n3+n7 || 3*(n3+n7) != buf.Len() {
		t.Errorf("got %d triangles in %d vertices", len(buf.AllTriangles()), buf.Len())
	}
	r7 := buf.FindRanges(7)
	if len(r7) != 1 || r7[0].Start != 0 {
		t.Errorf("first built element got ranges %v", r7)
	}
	buf.SetRanges(7, nil)
	if buf.FindRanges(7) != nil {
		t.Error("ranges not removed")
	}
	buf.MarkUpdateRequired(3, true)
	if !buf.UpdateRequired(3) {
		t.Error("update mark not set")
	}
	buf.Reset()
	if buf.Len() != 0 || len(buf.Keys()) != 0 || buf.UpdateRequired(3) {
		t.Error("buffer not reset")
	}
}

func TestSTLWriteRead(t *testing.T) {
	buf := sphereBuffer(t, 1)
	model := buf.AllTriangles()
	var b bytes.Buffer
	n, err := render.WriteSTL(&b, model)
	if err != nil {
		t.Fatal(err)
	}
	if n != 84+50*len(model) || n != b.Len() {
		t.Fatalf("wrote %d bytes for %d triangles", n, len(model))
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "sphere.stl")
	if err = render.CreateSTL(path, model); err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bfile, b.Bytes()) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}
	got, err := render.ReadSTL(bytes.NewReader(bfile))
	if err != nil && !errors.Is(err, render.ErrNormalMismatch) {
		t.Fatal(err)
	}
	if len(got) != len(model) {
		t.Fatalf("read %d triangles, wrote %d", len(got), len(model))
	}
	for i := range got {
		if got[i] != model[i] {
			t.Fatalf("triangle %d: read %v, wrote %v", i, got[i], model[i])
		}
	}
	mesh, err := fauxgl.LoadSTL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Triangles) != len(model) {
		t.Errorf("fauxgl loaded %d triangles, want %d", len(mesh.Triangles), len(model))
	}
}

func TestSTLReadErrors(t *testing.T) {
	if _, err := render.WriteSTL(&bytes.Buffer{}, nil); err == nil {
		t.Error("wrote empty model")
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Error("read truncated header")
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 84))); err == nil {
		t.Error("read model without triangles")
	}
	var b bytes.Buffer
	render.WriteSTL(&b, []ms3.Triangle{{{X: 0}, {X: 1}, {Y: 1}}})
	if _, err := render.ReadSTL(bytes.NewReader(b.Bytes()[:b.Len()-10])); err == nil {
		t.Error("read truncated triangle")
	}
}

func TestSTLNormalCheck(t *testing.T) {
	tri := []ms3.Triangle{{{X: 0}, {X: 1}, {Y: 1}}}
	for _, test := range []struct {
		name     string
		normal   [3]float32
		mismatch bool
	}{
		{name: "written", normal: [3]float32{0, 0, 1}},
		{name: "flipped", normal: [3]float32{0, 0, -1}},
		{name: "within tolerance", normal: [3]float32{0.03, 0, 1}},
		{name: "perpendicular", normal: [3]float32{1, 0, 0}, mismatch: true},
		{name: "zero", normal: [3]float32{}, mismatch: true},
	} {
		var b bytes.Buffer
		if _, err := render.WriteSTL(&b, tri); err != nil {
			t.Fatal(err)
		}
		data := b.Bytes()
		for i, f := range test.normal {
			binary.LittleEndian.PutUint32(data[84+4*i:], math.Float32bits(f))
		}
		got, err := render.ReadSTL(bytes.NewReader(data))
		if test.mismatch != errors.Is(err, render.ErrNormalMismatch) {
			t.Errorf("%s: got error %v", test.name, err)
		}
		if len(got) != 1 || got[0] != tri[0] {
			t.Errorf("%s: read %v", test.name, got)
		}
	}
}

func TestPreviewDeterministic(t *testing.T) {
	model := sphereBuffer(t, 1).AllTriangles()
	view := render.DefaultView(160, 90)
	var images [2][]byte
	for i := range images {
		img, err := render.Preview(model, view)
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 90 {
			t.Fatalf("got image bounds %v", img.Bounds())
		}
		var b bytes.Buffer
		if err = png.Encode(&b, img); err != nil {
			t.Fatal(err)
		}
		images[i] = b.Bytes()
	}
	equal, err := cmpimg.EqualApprox("png", images[0], images[1], imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("preview renders differ")
	}
	if _, err = render.Preview(nil, view); err == nil {
		t.Error("previewed empty model")
	}
}

func TestFacetIndex(t *testing.T) {
	model := sphereBuffer(t, 1).AllTriangles()
	idx := render.NewFacetIndex(model)
	if idx.Len() != len(model) {
		t.Fatalf("indexed %d facets of %d", idx.Len(), len(model))
	}
	for _, i := range []int{0, len(model) / 2, len(model) - 1} {
		tri := model[i]
		c := ms3.Scale(1./3, ms3.Add(tri[0], ms3.Add(tri[1], tri[2])))
		p := r3.Vec{X: float64(c.X), Y: float64(c.Y), Z: float64(c.Z)}
		got, d2 := idx.Nearest(p)
		if d2 > 1e-12 {
			t.Errorf("facet %d centroid found at squared distance %g (facet %d)", i, d2, got)
		}
		near := idx.NearestN(p, 5)
		if len(near) != 5 {
			t.Fatalf("got %d nearest facets", len(near))
		}
		if near[0] != got {
			t.Errorf("NearestN closest %d differs from Nearest %d", near[0], got)
		}
	}
	empty := render.NewFacetIndex(nil)
	if i, _ := empty.Nearest(r3.Vec{}); i != -1 {
		t.Errorf("empty index returned facet %d", i)
	}
}
