package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
)

// loaderBackend decodes one mesh file format into PolyData.
// Concrete implementations (stlLoaderBackendImpl, gltfLoaderBackendImpl) handle format-specific details.
type loaderBackend interface {
	// Decode reads the file at path.
	//
	// Parameters:
	//   - path: the file path to decode
	//
	// Returns:
	//   - *geometry.PolyData: the decoded mesh, possibly empty
	//   - error: error if the file cannot be read or parsed
	Decode(path string) (*geometry.PolyData, error)

	// DecodeReader reads a mesh from a stream.
	//
	// Parameters:
	//   - r: the reader providing file data
	//
	// Returns:
	//   - *geometry.PolyData: the decoded mesh, possibly empty
	//   - error: error if the stream cannot be parsed
	DecodeReader(r io.Reader) (*geometry.PolyData, error)
}
