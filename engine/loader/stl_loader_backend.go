package loader

import (
	"bytes"
	"io"

	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"
)

// stlLoaderBackendImpl is the implementation of stlLoaderBackend.
type stlLoaderBackendImpl struct{}

// stlLoaderBackend is a loaderBackend for ASCII and binary STL files. STL stores every
// triangle with its own corners, so the decoded PolyData is merged with geometry.Clean.
type stlLoaderBackend interface {
	loaderBackend
}

var _ stlLoaderBackend = &stlLoaderBackendImpl{}

func newSTLLoaderBackend() stlLoaderBackend {
	return &stlLoaderBackendImpl{}
}

func (b *stlLoaderBackendImpl) Decode(path string) (*geometry.PolyData, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return solidToPolyData(solid), nil
}

// DecodeReader buffers r because the STL reader seeks to tell ASCII from binary.
func (b *stlLoaderBackendImpl) DecodeReader(r io.Reader) (*geometry.PolyData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return solidToPolyData(solid), nil
}

func solidToPolyData(solid *stl.Solid) *geometry.PolyData {
	tris := make([][3]mgl64.Vec3, len(solid.Triangles))
	for i, t := range solid.Triangles {
		for k, v := range t.Vertices {
			tris[i][k] = mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
		}
	}
	return geometry.Clean(geometry.FromTriangles(tris))
}
