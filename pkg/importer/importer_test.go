package importer

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/msfs-gltf/pkg/gltf"
	"github.com/Faultbox/msfs-gltf/pkg/math"
)

func TestImport_SingleMesh(t *testing.T) {
	doc := fixtureDoc()
	doc["meshes"] = []any{
		map[string]any{
			"name": "wing",
			"primitives": []any{
				asoboPrimitive(map[string]any{"PrimitiveCount": 2}, 0),
			},
		},
	}
	doc["materials"] = []any{
		map[string]any{
			"name":                 "paint",
			"pbrMetallicRoughness": map[string]any{"baseColorTexture": map[string]any{"index": 0}},
		},
	}
	doc["textures"] = []any{
		map[string]any{"extensions": map[string]any{"MSFT_texture_dds": map[string]any{"source": 0}}},
	}
	doc["images"] = []any{map[string]any{"uri": "foo.dds"}}
	doc["nodes"] = []any{
		map[string]any{
			"name":        "root",
			"mesh":        0,
			"translation": []any{1, 2, 3},
			"rotation":    []any{0, 0, 0, 1},
			"scale":       []any{2, 3, 4},
			"children":    []any{1},
		},
		map[string]any{"name": "empty"},
	}
	doc["scenes"] = []any{map[string]any{"nodes": []any{0}}}

	root, gltfPath := writeFixture(t, doc)

	result, err := Import(Options{GltfPath: gltfPath})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// Mesh: 6 converted vertices, 2 reversed triangles.
	if len(result.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(result.Meshes))
	}
	mesh := result.Meshes[0]
	if mesh.Name != "wing" {
		t.Errorf("mesh name = %q, want wing", mesh.Name)
	}
	if len(mesh.Vertices) != 6 {
		t.Fatalf("got %d vertices, want 6", len(mesh.Vertices))
	}
	// Vertex 0 is (0, 10, 20) in the source, Z-up (0, -20, 10).
	if mesh.Vertices[0] != (math.Vec3{X: 0, Y: -20, Z: 10}) {
		t.Errorf("vertex 0 = %v, want (0 -20 10)", mesh.Vertices[0])
	}
	if len(mesh.Triangles) != 2 {
		t.Fatalf("got %d triangles, want 2", len(mesh.Triangles))
	}
	if mesh.Triangles[0].Vertices != [3]int{2, 1, 0} {
		t.Errorf("triangle 0 = %v, want [2 1 0]", mesh.Triangles[0].Vertices)
	}
	if mesh.Triangles[1].Vertices != [3]int{5, 4, 3} {
		t.Errorf("triangle 1 = %v, want [5 4 3]", mesh.Triangles[1].Vertices)
	}
	if mesh.Triangles[0].Material != 0 || mesh.Materials[0] != 0 {
		t.Error("material slot not bound to glTF material 0")
	}

	// Materials: DDS substituted under the default sibling folder.
	wantPath := filepath.Join(root, "TEXTURE", "foo.png")
	if result.Materials[0].TexturePath != wantPath {
		t.Errorf("texture path = %q, want %q", result.Materials[0].TexturePath, wantPath)
	}
	ddsWarnings := 0
	for _, d := range result.Diagnostics {
		if d.Severity == SeverityWarning && strings.Contains(d.Message, "foo.dds") {
			ddsWarnings++
		}
	}
	if ddsWarnings != 1 {
		t.Errorf("got %d DDS substitution warnings, want 1", ddsWarnings)
	}

	// Hierarchy: one root with converted transform, one placeholder child.
	if len(result.Roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(result.Roots))
	}
	rootNode := result.Roots[0]
	if rootNode.Mesh != mesh {
		t.Error("root node should reference the imported mesh record")
	}
	if rootNode.Translation != (math.Vec3{X: 1, Y: -3, Z: 2}) {
		t.Errorf("root translation = %v, want (1 -3 2)", rootNode.Translation)
	}
	if rootNode.Scale != (math.Vec3{X: 2, Y: 4, Z: 3}) {
		t.Errorf("root scale = %v, want (2 4 3)", rootNode.Scale)
	}
	if rootNode.Rotation != math.QuatIdentity() {
		t.Errorf("root rotation = %v, want identity", rootNode.Rotation)
	}
	if len(rootNode.Children) != 1 {
		t.Fatalf("root should have 1 child, got %d", len(rootNode.Children))
	}
	child := rootNode.Children[0]
	if child.Mesh == nil {
		t.Fatal("node without mesh must get a placeholder, not nil")
	}
	if len(child.Mesh.Vertices) != 0 || child.Name != "empty" {
		t.Errorf("placeholder mesh should be empty, node %q has %d vertices",
			child.Name, len(child.Mesh.Vertices))
	}
}

func TestImport_MissingExtrasSkipsPrimitive(t *testing.T) {
	doc := fixtureDoc()
	doc["meshes"] = []any{
		map[string]any{
			"name": "multi",
			"primitives": []any{
				asoboPrimitive(map[string]any{"PrimitiveCount": 2}, -1),
				asoboPrimitive(nil, -1), // no vendor metadata
				asoboPrimitive(map[string]any{"PrimitiveCount": 2}, -1),
			},
		},
	}

	_, gltfPath := writeFixture(t, doc)

	result, err := Import(Options{GltfPath: gltfPath})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	mesh := result.Meshes[0]
	// All three primitives appended their vertices.
	if len(mesh.Vertices) != 18 {
		t.Errorf("got %d vertices, want 18", len(mesh.Vertices))
	}
	// Triangles only from primitives 1 and 3.
	if len(mesh.Triangles) != 4 {
		t.Fatalf("got %d triangles, want 4", len(mesh.Triangles))
	}
	// Primitive 3's default base offset counts the skipped primitive's
	// vertices.
	if mesh.Triangles[2].Vertices != [3]int{14, 13, 12} {
		t.Errorf("triangle 2 = %v, want [14 13 12]", mesh.Triangles[2].Vertices)
	}

	if len(result.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want exactly 1: %v", len(result.Diagnostics), result.Diagnostics)
	}
	d := result.Diagnostics[0]
	if d.Severity != SeverityWarning || !strings.Contains(d.Message, "ASOBO_primitive") {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}

func TestImport_MissingPrimitiveCountSkipsPrimitive(t *testing.T) {
	doc := fixtureDoc()
	doc["meshes"] = []any{
		map[string]any{
			"name": "partial",
			"primitives": []any{
				asoboPrimitive(map[string]any{"StartIndex": 0}, -1), // metadata without a count
				asoboPrimitive(map[string]any{"PrimitiveCount": 2}, -1),
			},
		},
	}

	_, gltfPath := writeFixture(t, doc)

	result, err := Import(Options{GltfPath: gltfPath})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	mesh := result.Meshes[0]
	// Both primitives appended their vertices, only the second batched.
	if len(mesh.Vertices) != 12 {
		t.Errorf("got %d vertices, want 12", len(mesh.Vertices))
	}
	if len(mesh.Triangles) != 2 {
		t.Fatalf("got %d triangles, want 2", len(mesh.Triangles))
	}
	// The second primitive's default base offset counts the skipped
	// primitive's vertices.
	if mesh.Triangles[0].Vertices != [3]int{8, 7, 6} {
		t.Errorf("triangle 0 = %v, want [8 7 6]", mesh.Triangles[0].Vertices)
	}

	if len(result.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want exactly 1: %v", len(result.Diagnostics), result.Diagnostics)
	}
	d := result.Diagnostics[0]
	if d.Severity != SeverityWarning || !strings.Contains(d.Message, "PrimitiveCount") {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}

func TestImport_SparseAccessorIsRecoverable(t *testing.T) {
	doc := fixtureDoc()
	// Make the first UV channel sparse; it decodes empty with a warning.
	doc["accessors"].([]any)[1].(map[string]any)["sparse"] = map[string]any{"count": 1}
	doc["meshes"] = []any{
		map[string]any{
			"name": "sparse_uv",
			"primitives": []any{
				asoboPrimitive(map[string]any{"PrimitiveCount": 2}, -1),
			},
		},
	}

	_, gltfPath := writeFixture(t, doc)

	result, err := Import(Options{GltfPath: gltfPath})
	if err != nil {
		t.Fatalf("Import should survive a sparse accessor, got: %v", err)
	}

	// The empty UV channel cannot satisfy the batch's lookups, so the
	// mesh aborts with its vertices kept.
	mesh := result.Meshes[0]
	if len(mesh.Vertices) != 6 {
		t.Errorf("got %d vertices, want 6", len(mesh.Vertices))
	}
	if len(mesh.Triangles) != 0 {
		t.Errorf("got %d triangles, want 0", len(mesh.Triangles))
	}

	warnings, errorCount := 0, 0
	for _, d := range result.Diagnostics {
		switch d.Severity {
		case SeverityWarning:
			warnings++
			if !strings.Contains(d.Message, "sparse") {
				t.Errorf("warning lacks sparse context: %q", d.Message)
			}
		case SeverityError:
			errorCount++
		}
	}
	if warnings != 1 {
		t.Errorf("got %d warnings, want 1: %v", warnings, result.Diagnostics)
	}
	if errorCount != 1 {
		t.Errorf("got %d error diagnostics, want 1: %v", errorCount, result.Diagnostics)
	}
}

func TestImport_IndexOutOfRangeAbortsMeshOnly(t *testing.T) {
	doc := fixtureDoc()
	doc["meshes"] = []any{
		map[string]any{
			"name": "broken",
			"primitives": []any{
				asoboPrimitive(map[string]any{"PrimitiveCount": 2, "BaseVertexIndex": 100}, -1),
			},
		},
		map[string]any{
			"name": "fine",
			"primitives": []any{
				asoboPrimitive(map[string]any{"PrimitiveCount": 2}, -1),
			},
		},
	}

	_, gltfPath := writeFixture(t, doc)

	result, err := Import(Options{GltfPath: gltfPath})
	if err != nil {
		t.Fatalf("Import should isolate the failure, got: %v", err)
	}

	// The broken mesh is partially populated: vertices landed in the
	// pool before reconstruction failed.
	broken := result.Meshes[0]
	if len(broken.Triangles) != 0 {
		t.Errorf("broken mesh has %d triangles, want 0", len(broken.Triangles))
	}
	if len(broken.Vertices) != 6 {
		t.Errorf("broken mesh has %d vertices, want 6", len(broken.Vertices))
	}

	// The next mesh in the document still decodes.
	fine := result.Meshes[1]
	if len(fine.Triangles) != 2 {
		t.Errorf("second mesh has %d triangles, want 2", len(fine.Triangles))
	}

	errorCount := 0
	for _, d := range result.Diagnostics {
		if d.Severity == SeverityError {
			errorCount++
			if !strings.Contains(d.Message, "base vertex 100") {
				t.Errorf("error diagnostic lacks context: %q", d.Message)
			}
		}
	}
	if errorCount != 1 {
		t.Errorf("got %d error diagnostics, want 1", errorCount)
	}
}

func TestImport_MissingBufferIsFatal(t *testing.T) {
	doc := fixtureDoc()
	doc["meshes"] = []any{
		map[string]any{
			"primitives": []any{asoboPrimitive(map[string]any{"PrimitiveCount": 2}, -1)},
		},
	}

	_, gltfPath := writeFixture(t, doc)
	if err := os.Remove(filepath.Join(filepath.Dir(gltfPath), "buffer.bin")); err != nil {
		t.Fatal(err)
	}

	_, err := Import(Options{GltfPath: gltfPath})
	if !errors.Is(err, gltf.ErrBufferIO) {
		t.Errorf("expected ErrBufferIO, got %v", err)
	}
}

func TestImport_MalformedDocumentIsFatal(t *testing.T) {
	doc := fixtureDoc()
	delete(doc, "meshes")

	_, gltfPath := writeFixture(t, doc)

	_, err := Import(Options{GltfPath: gltfPath})
	if !errors.Is(err, gltf.ErrMalformedDocument) {
		t.Errorf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestImport_UndefinedNodeIsFatal(t *testing.T) {
	doc := fixtureDoc()
	doc["nodes"] = []any{map[string]any{"name": "root", "children": []any{9}}}
	doc["scenes"] = []any{map[string]any{"nodes": []any{0}}}

	_, gltfPath := writeFixture(t, doc)

	_, err := Import(Options{GltfPath: gltfPath})
	if err == nil || !strings.Contains(err.Error(), "undefined node") {
		t.Errorf("expected undefined node error, got %v", err)
	}
}

func TestImport_NodeCycleIsFatal(t *testing.T) {
	doc := fixtureDoc()
	doc["nodes"] = []any{
		map[string]any{"name": "a", "children": []any{1}},
		map[string]any{"name": "b", "children": []any{0}},
	}
	doc["scenes"] = []any{map[string]any{"nodes": []any{0}}}

	_, gltfPath := writeFixture(t, doc)

	_, err := Import(Options{GltfPath: gltfPath})
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected cycle error, got %v", err)
	}
}

// fixtureDoc returns a document skeleton over fixtureBuffer's layout:
// accessor 0 positions (6 x VEC3 float), 1 and 2 texture coordinates
// (6 x VEC2 float), 3 indices (6 x uint16, values 0..5).
func fixtureDoc() map[string]any {
	return map[string]any{
		"buffers": []any{map[string]any{"uri": "buffer.bin", "byteLength": 180}},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 72},
			map[string]any{"buffer": 0, "byteOffset": 72, "byteLength": 48},
			map[string]any{"buffer": 0, "byteOffset": 120, "byteLength": 48},
			map[string]any{"buffer": 0, "byteOffset": 168, "byteLength": 12},
		},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": 5126, "type": "VEC3", "count": 6},
			map[string]any{"bufferView": 1, "componentType": 5126, "type": "VEC2", "count": 6},
			map[string]any{"bufferView": 2, "componentType": 5126, "type": "VEC2", "count": 6},
			map[string]any{"bufferView": 3, "componentType": 5123, "type": "SCALAR", "count": 6},
		},
		"meshes": []any{},
		"nodes":  []any{map[string]any{"name": "root"}},
		"scenes": []any{map[string]any{"nodes": []any{0}}},
	}
}

// asoboPrimitive builds a primitive over the fixture accessors. extras
// nil omits the vendor metadata; material -1 omits the material field.
func asoboPrimitive(extras map[string]any, material int) map[string]any {
	prim := map[string]any{
		"attributes": map[string]any{"POSITION": 0, "TEXCOORD_0": 1, "TEXCOORD_1": 2},
		"indices":    3,
	}
	if extras != nil {
		prim["extras"] = map[string]any{"ASOBO_primitive": extras}
	}
	if material >= 0 {
		prim["material"] = material
	}
	return prim
}

// writeFixture lays out <root>/model/test.gltf plus its buffer file and
// returns the root and the glTF path.
func writeFixture(t *testing.T, doc map[string]any) (root, gltfPath string) {
	t.Helper()
	root = t.TempDir()
	modelDir := filepath.Join(root, "model")
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshaling fixture document: %v", err)
	}
	gltfPath = filepath.Join(modelDir, "test.gltf")
	if err := os.WriteFile(gltfPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modelDir, "buffer.bin"), fixtureBuffer(), 0644); err != nil {
		t.Fatal(err)
	}
	return root, gltfPath
}

// fixtureBuffer builds the 180-byte binary payload backing fixtureDoc.
func fixtureBuffer() []byte {
	buf := new(bytes.Buffer)

	// Positions: vertex i at (i, 10+i, 20+i).
	for i := 0; i < 6; i++ {
		binary.Write(buf, binary.LittleEndian,
			[3]float32{float32(i), float32(10 + i), float32(20 + i)})
	}
	// Two UV channels.
	for i := 0; i < 6; i++ {
		binary.Write(buf, binary.LittleEndian, [2]float32{float32(i) / 8, 0.25})
	}
	for i := 0; i < 6; i++ {
		binary.Write(buf, binary.LittleEndian, [2]float32{0.5, float32(i) / 8})
	}
	// Indices 0..5.
	for i := 0; i < 6; i++ {
		binary.Write(buf, binary.LittleEndian, uint16(i))
	}
	return buf.Bytes()
}
