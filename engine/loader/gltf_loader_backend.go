package loader

import (
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-cad/engine/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct{}

// gltfLoaderBackend is a loaderBackend for glTF/GLB files. Every triangle primitive
// reachable from the default scene is baked into one PolyData in world coordinates.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

func newGLTFLoaderBackend() gltfLoaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Decode(path string) (*geometry.PolyData, error) {
	p := newGLTFParser()
	if err := p.Parse(path); err != nil {
		return nil, err
	}
	return b.extract(p)
}

func (b *gltfLoaderBackendImpl) DecodeReader(r io.Reader) (*geometry.PolyData, error) {
	p := newGLTFParser()
	if err := p.ParseReader(r, "."); err != nil {
		return nil, err
	}
	return b.extract(p)
}

// gltfMeshBuilder accumulates primitives from several nodes into one point/face list.
type gltfMeshBuilder struct {
	parser gltfParser
	points []mgl64.Vec3
	faces  [][3]uint32
}

func (b *gltfLoaderBackendImpl) extract(p gltfParser) (*geometry.PolyData, error) {
	doc := p.Document()
	mb := &gltfMeshBuilder{parser: p}

	roots := sceneRoots(doc)
	if roots == nil {
		// no scene graph: take every mesh untransformed
		for i := range doc.Meshes {
			if err := mb.addMesh(i, mgl64.Ident4()); err != nil {
				return nil, err
			}
		}
	}
	visited := make(map[int]bool, len(doc.Nodes))
	for _, n := range roots {
		if err := mb.walk(n, mgl64.Ident4(), visited); err != nil {
			return nil, err
		}
	}

	return geometry.NewPolyData(mb.points, mb.faces)
}

func sceneRoots(doc *gltfDocument) []int {
	if len(doc.Scenes) == 0 {
		return nil
	}
	idx := 0
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		idx = *doc.Scene
	}
	return doc.Scenes[idx].Nodes
}

func (mb *gltfMeshBuilder) walk(nodeIndex int, parent mgl64.Mat4, visited map[int]bool) error {
	doc := mb.parser.Document()
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIndex)
	}
	if visited[nodeIndex] {
		return fmt.Errorf("node %d appears twice in the scene graph", nodeIndex)
	}
	visited[nodeIndex] = true

	node := &doc.Nodes[nodeIndex]
	world := parent.Mul4(nodeMatrix(node))
	if node.Mesh != nil {
		if err := mb.addMesh(*node.Mesh, world); err != nil {
			return fmt.Errorf("node %d: %w", nodeIndex, err)
		}
	}
	for _, c := range node.Children {
		if err := mb.walk(c, world, visited); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns the node's local transform: Matrix if present, else T * R * S.
func nodeMatrix(n *gltfNode) mgl64.Mat4 {
	if n.Matrix != nil {
		return mgl64.Mat4(*n.Matrix)
	}
	m := mgl64.Ident4()
	if t := n.Translation; t != nil {
		m = m.Mul4(mgl64.Translate3D(t[0], t[1], t[2]))
	}
	if r := n.Rotation; r != nil {
		q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if s := n.Scale; s != nil {
		m = m.Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

func (mb *gltfMeshBuilder) addMesh(meshIndex int, world mgl64.Mat4) error {
	doc := mb.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIndex)
	}
	for primIdx, prim := range doc.Meshes[meshIndex].Primitives {
		if err := mb.addPrimitive(&prim, world); err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
	}
	return nil
}

func (mb *gltfMeshBuilder) addPrimitive(prim *gltfPrimitive, world mgl64.Mat4) error {
	mode := gltfPrimitiveModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	switch mode {
	case gltfPrimitiveModeTriangles, gltfPrimitiveModeTriangleStrip, gltfPrimitiveModeTriangleFan:
	default:
		// points and lines carry no surface
		return nil
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := mb.parser.ReadPositions(posAccessor)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = mb.parser.ReadIndices(*prim.Indices); err != nil {
			return fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	base := uint32(len(mb.points))
	for _, pos := range positions {
		mb.points = append(mb.points, mgl64.TransformCoordinate(pos, world))
	}
	for _, f := range triangulate(indices, mode) {
		for k := range f {
			if int(f[k]) >= len(positions) {
				return fmt.Errorf("index %d exceeds %d positions", f[k], len(positions))
			}
			f[k] += base
		}
		mb.faces = append(mb.faces, f)
	}
	return nil
}

// triangulate expands strip and fan index lists into a plain triangle list.
func triangulate(indices []uint32, mode int) [][3]uint32 {
	var out [][3]uint32
	switch mode {
	case gltfPrimitiveModeTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, [3]uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				out = append(out, [3]uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltfPrimitiveModeTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			out = append(out, [3]uint32{indices[0], indices[i], indices[i+1]})
		}
	default:
		for i := 0; i+2 < len(indices); i += 3 {
			out = append(out, [3]uint32{indices[i], indices[i+1], indices[i+2]})
		}
	}
	return out
}
