// Package importer reconstructs an editable scene description from an
// MSFS glTF export: meshes with per-triangle materials and dual UV
// channels, a node hierarchy, and base-color texture paths.
package importer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/msfs-gltf/pkg/math"
)

// Severity classifies a diagnostic entry.
type Severity int

// Diagnostic severities.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Diagnostic is one recoverable condition encountered during import,
// recorded in encounter order for the host to surface.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Triangle is one reconstructed face: three absolute vertex ids into
// the owning mesh's vertex pool, per-corner UVs for both channels, and
// the mesh-local material slot (-1 when the primitive had none).
type Triangle struct {
	Vertices [3]int       // Indices into MeshRecord.Vertices
	UV0      [3]math.Vec2 // Texture coordinates, channel 0
	UV1      [3]math.Vec2 // Texture coordinates, channel 1
	Material int          // Index into MeshRecord.Materials, or -1
}

// MeshRecord is one imported mesh: an append-only vertex pool
// accumulated across the mesh's primitives, the reconstructed triangle
// list, and the mesh-local material slots.
type MeshRecord struct {
	Name      string
	Vertices  []math.Vec3 // Z-up positions, pool shared by all primitives
	Triangles []Triangle
	Materials []int // Mesh-local slots, indices into Result.Materials
}

// SceneNode is one node of the imported hierarchy. Mesh is never nil:
// nodes without a mesh reference carry an empty placeholder so
// traversal stays uniform.
type SceneNode struct {
	Name        string
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
	Mesh        *MeshRecord
	Children    []*SceneNode
}

// Material is one resolved material slot.
type Material struct {
	Name        string
	TexturePath string // Resolved base-color texture path, "" if unbound
}

// Result is the neutral scene description handed to host adapters.
// All of it is read-only after Import returns.
type Result struct {
	Meshes      []*MeshRecord
	Roots       []*SceneNode
	Materials   []Material
	Diagnostics []Diagnostic
}

// diagnostics accumulates the ordered diagnostics list and mirrors each
// entry to the logger.
type diagnostics struct {
	entries []Diagnostic
	log     *zap.SugaredLogger
}

func (d *diagnostics) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.entries = append(d.entries, Diagnostic{Severity: SeverityWarning, Message: msg})
	d.log.Warn(msg)
}

func (d *diagnostics) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.entries = append(d.entries, Diagnostic{Severity: SeverityError, Message: msg})
	d.log.Error(msg)
}
