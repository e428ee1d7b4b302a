package gltf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Accessor decoding errors.
var (
	ErrAccessorRange      = errors.New("accessor range exceeds buffer view")
	ErrSparseAccessor     = errors.New("sparse accessors are not supported")
	ErrNoBufferView       = errors.New("accessor has no buffer view")
	ErrUnknownComponent   = errors.New("unknown accessor component type")
	ErrUnknownElementType = errors.New("unknown accessor element type")
	ErrNoSuchAccessor     = errors.New("accessor index out of range")
)

// ComponentType is the glTF numeric component type enum.
type ComponentType int

// glTF component types.
const (
	ComponentByte          ComponentType = 5120
	ComponentUnsignedByte  ComponentType = 5121
	ComponentShort         ComponentType = 5122
	ComponentUnsignedShort ComponentType = 5123
	ComponentUnsignedInt   ComponentType = 5125
	ComponentFloat         ComponentType = 5126
)

// Size returns the component size in bytes, or 0 for unknown types.
func (c ComponentType) Size() int {
	switch c {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	default:
		return 0
	}
}

// elementCounts maps glTF element types to their component counts.
var elementCounts = map[string]int{
	"SCALAR": 1,
	"VEC2":   2,
	"VEC3":   3,
	"VEC4":   4,
	"MAT2":   4,
	"MAT3":   9,
	"MAT4":   16,
}

// Attribute is one decoded accessor: Count elements of Components
// values each, stored flat. SCALAR accessors read naturally through
// Scalar; wider element types through Tuple.
type Attribute struct {
	Count      int
	Components int
	values     []float64
}

// NewAttribute builds an attribute from flat values. len(values) must be
// a multiple of components.
func NewAttribute(components int, values []float64) *Attribute {
	return &Attribute{
		Count:      len(values) / components,
		Components: components,
		values:     values,
	}
}

// Len returns the number of decoded elements.
func (a *Attribute) Len() int { return a.Count }

// Scalar returns element i of a SCALAR attribute.
func (a *Attribute) Scalar(i int) float64 { return a.values[i] }

// Tuple returns element i as a slice of Components values. The slice
// aliases the attribute's storage and must not be mutated.
func (a *Attribute) Tuple(i int) []float64 {
	return a.values[i*a.Components : (i+1)*a.Components]
}

// DecodeAccessor decodes accessor index of the document into a typed
// attribute, reading bytes through the store. Sparse accessors yield an
// empty attribute and ErrSparseAccessor so the caller can report and
// continue. Layout follows the glTF rules: effective offset is
// bufferView.byteOffset + accessor.byteOffset, stride is
// bufferView.byteStride or the tightly-packed element size, components
// are little-endian.
func DecodeAccessor(doc *Document, store *BufferStore, index int) (*Attribute, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchAccessor, index)
	}
	acc := &doc.Accessors[index]

	components, ok := elementCounts[acc.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElementType, acc.Type)
	}
	componentSize := acc.ComponentType.Size()
	if componentSize == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownComponent, acc.ComponentType)
	}

	if acc.IsSparse() {
		return &Attribute{Components: components}, ErrSparseAccessor
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("%w: accessor %d", ErrNoBufferView, index)
	}

	view := &doc.BufferViews[*acc.BufferView]
	elementSize := componentSize * components
	stride := elementSize
	if view.ByteStride != nil {
		stride = *view.ByteStride
	}

	// The readable window starts at the accessor's offset inside the
	// view and runs to the view's end.
	start := view.ByteOffset + acc.ByteOffset
	window := view.ByteLength - acc.ByteOffset
	if window < 0 {
		return nil, fmt.Errorf("%w: accessor %d offset %d beyond view length %d",
			ErrAccessorRange, index, acc.ByteOffset, view.ByteLength)
	}
	if acc.Count > 0 {
		need := (acc.Count-1)*stride + elementSize
		if need > window {
			return nil, fmt.Errorf("%w: accessor %d needs %d bytes, view window has %d",
				ErrAccessorRange, index, need, window)
		}
	}

	data, err := store.Slice(view.Buffer, start, window)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", index, err)
	}

	attr := &Attribute{
		Count:      acc.Count,
		Components: components,
		values:     make([]float64, acc.Count*components),
	}
	for e := 0; e < acc.Count; e++ {
		base := e * stride
		for c := 0; c < components; c++ {
			attr.values[e*components+c] = decodeComponent(
				acc.ComponentType, data[base+c*componentSize:])
		}
	}
	return attr, nil
}

// decodeComponent reads one little-endian component from the front of b.
func decodeComponent(c ComponentType, b []byte) float64 {
	switch c {
	case ComponentByte:
		return float64(int8(b[0]))
	case ComponentUnsignedByte:
		return float64(b[0])
	case ComponentShort:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case ComponentUnsignedShort:
		return float64(binary.LittleEndian.Uint16(b))
	case ComponentUnsignedInt:
		return float64(binary.LittleEndian.Uint32(b))
	case ComponentFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		return 0
	}
}
