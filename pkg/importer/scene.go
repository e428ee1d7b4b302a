package importer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/msfs-gltf/pkg/gltf"
)

// Hierarchy errors. Both are document errors and fail the whole import.
var (
	ErrUndefinedNode = errors.New("reference to undefined node")
	ErrNodeCycle     = errors.New("node hierarchy contains a cycle")
)

// buildMeshes reconstructs every mesh in the document. A failure inside
// one mesh records an ERROR diagnostic, leaves that mesh partially
// populated, and moves on to the next; buffer I/O failures abort the
// whole import.
func buildMeshes(doc *gltf.Document, store *gltf.BufferStore, materialCount int,
	diags *diagnostics) ([]*MeshRecord, error) {

	meshes := make([]*MeshRecord, len(doc.Meshes))
	for i := range doc.Meshes {
		rec, err := buildMesh(doc, store, i, materialCount, diags)
		meshes[i] = rec
		if err != nil {
			if errors.Is(err, gltf.ErrBufferIO) {
				return nil, err
			}
			diags.errorf("could not handle mesh %q: %v", rec.Name, err)
		}
	}
	return meshes, nil
}

// buildMesh accumulates one mesh's vertex pool across its primitives
// and reconstructs their triangle batches. The returned record is
// always usable, possibly partially populated when err is non-nil.
func buildMesh(doc *gltf.Document, store *gltf.BufferStore, meshIdx, materialCount int,
	diags *diagnostics) (*MeshRecord, error) {

	mesh := &doc.Meshes[meshIdx]
	rec := &MeshRecord{Name: doc.MeshName(meshIdx)}

	// Mesh-local material slots: primitives referencing the same glTF
	// material collapse to one slot.
	slots := make(map[int]int)
	for _, prim := range mesh.Primitives {
		if prim.Material == nil {
			continue
		}
		gm := *prim.Material
		if gm < 0 || gm >= materialCount {
			return rec, fmt.Errorf("primitive references undefined material %d", gm)
		}
		if _, ok := slots[gm]; !ok {
			slots[gm] = len(rec.Materials)
			rec.Materials = append(rec.Materials, gm)
		}
	}

	for primIdx := range mesh.Primitives {
		prim := &mesh.Primitives[primIdx]

		positions, err := decodePrimitiveAttr(doc, store, prim, "POSITION", 3, primIdx, diags)
		if err != nil {
			return rec, err
		}
		uv0, err := decodePrimitiveAttr(doc, store, prim, "TEXCOORD_0", 2, primIdx, diags)
		if err != nil {
			return rec, err
		}
		uv1, err := decodePrimitiveAttr(doc, store, prim, "TEXCOORD_1", 2, primIdx, diags)
		if err != nil {
			return rec, err
		}
		if prim.Indices == nil {
			return rec, fmt.Errorf("primitive %d has no indices accessor", primIdx)
		}
		indices, err := decodeAttr(doc, store, *prim.Indices,
			fmt.Sprintf("primitive %d indices", primIdx), diags)
		if err != nil {
			return rec, err
		}

		// Positions join the pool before the metadata check, so a later
		// batch's default offset accounts for them even when this
		// primitive ends up skipped.
		baseVertex := len(rec.Vertices)
		for v := 0; v < positions.Len(); v++ {
			p := positions.Tuple(v)
			rec.Vertices = append(rec.Vertices, PositionToZUp([3]float64{p[0], p[1], p[2]}))
		}

		asobo := prim.Extras.AsoboPrimitive
		if asobo == nil {
			diags.warnf("mesh %q primitive %d: missing ASOBO_primitive metadata, skipping batch",
				rec.Name, primIdx)
			continue
		}
		if asobo.PrimitiveCount == nil {
			diags.warnf("mesh %q primitive %d: ASOBO_primitive has no PrimitiveCount, skipping batch",
				rec.Name, primIdx)
			continue
		}

		start := 0
		if asobo.StartIndex != nil {
			start = *asobo.StartIndex
		}
		if asobo.BaseVertexIndex != nil {
			baseVertex = *asobo.BaseVertexIndex
		}
		materialSlot := -1
		if prim.Material != nil {
			materialSlot = slots[*prim.Material]
		}

		err = reconstructPrimitive(rec, primIdx, indices, uv0, uv1,
			start, baseVertex, *asobo.PrimitiveCount, materialSlot)
		if err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// decodePrimitiveAttr decodes a named attribute accessor of a primitive
// and validates its tuple width. A missing attribute fails the mesh.
func decodePrimitiveAttr(doc *gltf.Document, store *gltf.BufferStore, prim *gltf.Primitive,
	name string, components, primIdx int, diags *diagnostics) (*gltf.Attribute, error) {

	accIdx := prim.Attribute(name)
	if accIdx < 0 {
		return nil, fmt.Errorf("primitive %d has no %s attribute", primIdx, name)
	}
	attr, err := decodeAttr(doc, store, accIdx,
		fmt.Sprintf("primitive %d %s", primIdx, name), diags)
	if err != nil {
		return nil, err
	}
	if attr.Components != components {
		return nil, fmt.Errorf("primitive %d %s: expected %d components, got %d",
			primIdx, name, components, attr.Components)
	}
	return attr, nil
}

// decodeAttr decodes one accessor, converting the unsupported sparse
// case into an empty result plus a warning.
func decodeAttr(doc *gltf.Document, store *gltf.BufferStore, accIdx int,
	what string, diags *diagnostics) (*gltf.Attribute, error) {

	attr, err := gltf.DecodeAccessor(doc, store, accIdx)
	if err != nil {
		if errors.Is(err, gltf.ErrSparseAccessor) {
			diags.warnf("%s: sparse accessor %d is not supported, treating as empty", what, accIdx)
			return attr, nil
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return attr, nil
}

// buildNodes creates one SceneNode per document node with converted
// transforms. Nodes without a mesh reference get an empty placeholder
// record so hierarchy traversal never sees a nil mesh.
func buildNodes(doc *gltf.Document, meshes []*MeshRecord, diags *diagnostics) []*SceneNode {
	nodes := make([]*SceneNode, len(doc.Nodes))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		sn := &SceneNode{
			Name:        doc.NodeName(i),
			Translation: PositionToZUp(n.LocalTranslation()),
			Rotation:    RotationToZUp(n.LocalRotation()),
			Scale:       ScaleToZUp(n.LocalScale()),
		}
		switch {
		case n.Mesh == nil:
			sn.Mesh = &MeshRecord{Name: sn.Name}
		case *n.Mesh < 0 || *n.Mesh >= len(meshes):
			diags.warnf("node %q references undefined mesh %d", sn.Name, *n.Mesh)
			sn.Mesh = &MeshRecord{Name: sn.Name}
		default:
			sn.Mesh = meshes[*n.Mesh]
		}
		nodes[i] = sn
	}
	return nodes
}

// buildHierarchy links parent/child pointers and returns the roots of
// the document's first scene. Undefined node references and cycles are
// document errors.
func buildHierarchy(doc *gltf.Document, nodes []*SceneNode) ([]*SceneNode, error) {
	for i := range doc.Nodes {
		for _, c := range doc.Nodes[i].Children {
			if c < 0 || c >= len(nodes) {
				return nil, fmt.Errorf("%w: node %d lists child %d", ErrUndefinedNode, i, c)
			}
			nodes[i].Children = append(nodes[i].Children, nodes[c])
		}
	}

	var roots []*SceneNode
	for _, r := range doc.Scenes[0].Nodes {
		if r < 0 || r >= len(nodes) {
			return nil, fmt.Errorf("%w: scene lists root %d", ErrUndefinedNode, r)
		}
		if err := checkCycles(doc, r, make(map[int]bool)); err != nil {
			return nil, err
		}
		roots = append(roots, nodes[r])
	}
	return roots, nil
}

// checkCycles walks the document's node indices depth-first, failing if
// a node appears in its own ancestor chain.
func checkCycles(doc *gltf.Document, idx int, path map[int]bool) error {
	if path[idx] {
		return fmt.Errorf("%w: node %d", ErrNodeCycle, idx)
	}
	path[idx] = true
	defer delete(path, idx)
	for _, c := range doc.Nodes[idx].Children {
		if err := checkCycles(doc, c, path); err != nil {
			return err
		}
	}
	return nil
}
