package importer

import (
	"fmt"

	"github.com/Faultbox/msfs-gltf/pkg/gltf"
	"github.com/Faultbox/msfs-gltf/pkg/math"
)

// batchIndices resolves the three raw indices of one triangle into
// vertex-pool ids and primitive-local attribute indices. The raw
// indices are taken in reverse order (third, second, first), which
// flips the winding to match the Z-up coordinate system. The base
// vertex offset is added to the vertex ids ONLY: UV arrays are
// addressed by the primitive-local index. This asymmetry is a property
// of the source format and must not be "fixed".
func batchIndices(raw [3]int, baseVertex int) (verts, local [3]int) {
	local = [3]int{raw[2], raw[1], raw[0]}
	verts = [3]int{local[0] + baseVertex, local[1] + baseVertex, local[2] + baseVertex}
	return verts, local
}

// indexRangeError aborts reconstruction of the enclosing mesh. It
// carries enough context to locate the offending batch in the source
// document.
type indexRangeError struct {
	Primitive  int
	Triangle   int
	BaseVertex int
	PoolSize   int
	Raw        [3]int
}

func (e *indexRangeError) Error() string {
	return fmt.Sprintf(
		"primitive %d triangle %d: resolved index out of range (base vertex %d, pool size %d, raw indices %v)",
		e.Primitive, e.Triangle, e.BaseVertex, e.PoolSize, e.Raw)
}

// reconstructPrimitive appends the triangles of one ASOBO batch to the
// mesh record. baseVertex is the resolved BaseVertexIndex, start the
// resolved StartIndex. Any out-of-range access returns an error that
// fails the whole mesh.
func reconstructPrimitive(rec *MeshRecord, primIdx int, indices, uv0, uv1 *gltf.Attribute,
	start, baseVertex, triangleCount, materialSlot int) error {

	for t := 0; t < triangleCount; t++ {
		i := start + t*3
		if i < 0 || i+2 >= indices.Len() {
			return fmt.Errorf(
				"primitive %d triangle %d: index buffer overrun (start %d, %d indices)",
				primIdx, t, start, indices.Len())
		}
		raw := [3]int{
			int(indices.Scalar(i)),
			int(indices.Scalar(i + 1)),
			int(indices.Scalar(i + 2)),
		}

		verts, local := batchIndices(raw, baseVertex)
		for c := 0; c < 3; c++ {
			if verts[c] < 0 || verts[c] >= len(rec.Vertices) ||
				local[c] < 0 || local[c] >= uv0.Len() || local[c] >= uv1.Len() {
				return &indexRangeError{
					Primitive:  primIdx,
					Triangle:   t,
					BaseVertex: baseVertex,
					PoolSize:   len(rec.Vertices),
					Raw:        raw,
				}
			}
		}

		tri := Triangle{Vertices: verts, Material: materialSlot}
		for c := 0; c < 3; c++ {
			tri.UV0[c] = flipV(uv0.Tuple(local[c]))
			tri.UV1[c] = flipV(uv1.Tuple(local[c]))
		}
		rec.Triangles = append(rec.Triangles, tri)
	}
	return nil
}

// flipV converts a glTF top-left-origin UV pair to bottom-left origin.
func flipV(uv []float64) math.Vec2 {
	return math.Vec2{X: float32(uv[0]), Y: float32(1 - uv[1])}
}
