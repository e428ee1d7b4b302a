// Package gltf provides reading functionality for glTF 2.0 documents
// exported by Microsoft Flight Simulator, including the non-standard
// ASOBO_primitive triangle-batching metadata.
package gltf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Document errors.
var (
	ErrMalformedDocument = errors.New("malformed glTF document")
	ErrInvalidJSON       = errors.New("invalid glTF JSON")
)

// Document is a parsed glTF 2.0 JSON document. It is immutable after
// Parse; every consumer treats it as read-only.
type Document struct {
	Buffers     []Buffer     `json:"buffers"`
	BufferViews []BufferView `json:"bufferViews"`
	Accessors   []Accessor   `json:"accessors"`
	Meshes      []Mesh       `json:"meshes"`
	Materials   []Material   `json:"materials"`
	Textures    []Texture    `json:"textures"`
	Images      []Image      `json:"images"`
	Nodes       []Node       `json:"nodes"`
	Scenes      []Scene      `json:"scenes"`
}

// Buffer references one sibling binary file by URI.
type Buffer struct {
	URI        string `json:"uri"`        // Path relative to the glTF file
	ByteLength int    `json:"byteLength"` // Declared size in bytes
}

// BufferView is a byte sub-range of a buffer with an optional stride.
type BufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset"` // Defaults to 0
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride"` // Absent means tightly packed
}

// Accessor describes how to interpret a byte range as typed numeric data.
type Accessor struct {
	BufferView    *int            `json:"bufferView"`
	ByteOffset    int             `json:"byteOffset"` // Defaults to 0
	ComponentType ComponentType   `json:"componentType"`
	Type          string          `json:"type"` // SCALAR, VEC2, VEC3, ...
	Count         int             `json:"count"`
	Sparse        json.RawMessage `json:"sparse"` // Present means sparse (unsupported)
}

// IsSparse reports whether the accessor uses sparse storage.
func (a *Accessor) IsSparse() bool {
	return len(a.Sparse) > 0
}

// Mesh is a collection of primitives sharing one vertex pool after import.
type Mesh struct {
	Name       string      `json:"name"`
	Primitives []Primitive `json:"primitives"`
}

// MeshName returns the mesh name, or a generated one when absent.
func (d *Document) MeshName(index int) string {
	if name := d.Meshes[index].Name; name != "" {
		return name
	}
	return fmt.Sprintf("mesh_%d", index)
}

// Primitive is one glTF primitive. Under the ASOBO scheme a primitive's
// index/vertex buffers are shared by multiple triangle batches described
// in extras.
type Primitive struct {
	Attributes map[string]int  `json:"attributes"`
	Indices    *int            `json:"indices"`
	Material   *int            `json:"material"`
	Extras     PrimitiveExtras `json:"extras"`
}

// Attribute returns the accessor index for a named attribute, or -1 when
// the primitive does not carry it.
func (p *Primitive) Attribute(name string) int {
	if idx, ok := p.Attributes[name]; ok {
		return idx
	}
	return -1
}

// PrimitiveExtras holds vendor metadata attached to a primitive.
type PrimitiveExtras struct {
	AsoboPrimitive *AsoboPrimitive `json:"ASOBO_primitive"`
}

// AsoboPrimitive describes one triangle batch sliced from the
// primitive's shared index/vertex buffers. PrimitiveCount is the only
// mandatory field; the others carry documented defaults resolved by the
// reconstructor.
type AsoboPrimitive struct {
	StartIndex      *int `json:"StartIndex"`      // First raw index, defaults to 0
	BaseVertexIndex *int `json:"BaseVertexIndex"` // Defaults to the running pool offset
	PrimitiveCount  *int `json:"PrimitiveCount"`  // Triangle count, mandatory
}

// Material is a glTF material; only the base-color channel is consumed.
type Material struct {
	Name                 string                `json:"name"`
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness"`
}

// PBRMetallicRoughness carries the base-color texture binding.
type PBRMetallicRoughness struct {
	BaseColorTexture *TextureRef `json:"baseColorTexture"`
}

// TextureRef points at an entry of the textures array.
type TextureRef struct {
	Index int `json:"index"`
}

// Texture maps to an image, possibly through the MSFT_texture_dds
// extension when the image is a DDS container.
type Texture struct {
	Source     *int              `json:"source"`
	Extensions TextureExtensions `json:"extensions"`
}

// TextureExtensions holds the texture extensions this importer consumes.
type TextureExtensions struct {
	DDS *TextureDDS `json:"MSFT_texture_dds"`
}

// TextureDDS is the MSFT_texture_dds extension payload.
type TextureDDS struct {
	Source *int `json:"source"`
}

// ImageSource returns the image index for a texture, preferring the
// MSFT_texture_dds source over the standard one. Returns -1 when the
// texture references no image.
func (t *Texture) ImageSource() int {
	if t.Extensions.DDS != nil && t.Extensions.DDS.Source != nil {
		return *t.Extensions.DDS.Source
	}
	if t.Source != nil {
		return *t.Source
	}
	return -1
}

// Image references a texture file by URI.
type Image struct {
	URI string `json:"uri"`
}

// Node is one entry of the scene hierarchy.
type Node struct {
	Name        string      `json:"name"`
	Mesh        *int        `json:"mesh"`
	Children    []int       `json:"children"`
	Translation *[3]float64 `json:"translation"`
	Rotation    *[4]float64 `json:"rotation"` // Stored as (x, y, z, w)
	Scale       *[3]float64 `json:"scale"`
}

// NodeName returns the node name, or a generated one when absent.
func (d *Document) NodeName(index int) string {
	if name := d.Nodes[index].Name; name != "" {
		return name
	}
	return fmt.Sprintf("node_%d", index)
}

// LocalTranslation returns the node translation, defaulting to (0,0,0).
func (n *Node) LocalTranslation() [3]float64 {
	if n.Translation != nil {
		return *n.Translation
	}
	return [3]float64{0, 0, 0}
}

// LocalRotation returns the node rotation as (x,y,z,w), defaulting to
// the identity quaternion.
func (n *Node) LocalRotation() [4]float64 {
	if n.Rotation != nil {
		return *n.Rotation
	}
	return [4]float64{0, 0, 0, 1}
}

// LocalScale returns the node scale, defaulting to (1,1,1).
func (n *Node) LocalScale() [3]float64 {
	if n.Scale != nil {
		return *n.Scale
	}
	return [3]float64{1, 1, 1}
}

// Scene is an ordered list of root node ids.
type Scene struct {
	Nodes []int `json:"nodes"`
}

// Parse parses glTF JSON data and validates the top-level keys this
// importer requires.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	// Top-level keys the decode pipeline cannot proceed without.
	required := []struct {
		name    string
		present bool
	}{
		{"buffers", doc.Buffers != nil},
		{"bufferViews", doc.BufferViews != nil},
		{"accessors", doc.Accessors != nil},
		{"meshes", doc.Meshes != nil},
		{"nodes", doc.Nodes != nil},
		{"scenes", len(doc.Scenes) > 0},
	}
	for _, key := range required {
		if !key.present {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedDocument, key.name)
		}
	}

	return doc, nil
}

// ParseFile parses a glTF document from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glTF file: %w", err)
	}
	return Parse(data)
}
