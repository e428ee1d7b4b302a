package importer

import "github.com/Faultbox/msfs-gltf/pkg/math"

// glTF stores Y-up right-handed data; the scene description is Z-up.
// The same conversion applies to every vertex position and to every
// node transform component.

// PositionToZUp converts a Y-up position (x, y, z) to Z-up (x, -z, y).
func PositionToZUp(p [3]float64) math.Vec3 {
	return math.Vec3{X: float32(p[0]), Y: float32(-p[2]), Z: float32(p[1])}
}

// PositionFromZUp is the inverse of PositionToZUp.
func PositionFromZUp(v math.Vec3) [3]float64 {
	return [3]float64{float64(v.X), float64(v.Z), float64(-v.Y)}
}

// ScaleToZUp converts Y-up scale factors (sx, sy, sz) to (sx, sz, sy).
func ScaleToZUp(s [3]float64) math.Vec3 {
	return math.Vec3{X: float32(s[0]), Y: float32(s[2]), Z: float32(s[1])}
}

// ScaleFromZUp is the inverse of ScaleToZUp.
func ScaleFromZUp(v math.Vec3) [3]float64 {
	return [3]float64{float64(v.X), float64(v.Z), float64(v.Y)}
}

// RotationToZUp converts a quaternion stored glTF-side as (x, y, z, w)
// to the Z-up convention: components become (w, x, -z, y).
func RotationToZUp(r [4]float64) math.Quat {
	return math.Quat{
		W: float32(r[3]),
		X: float32(r[0]),
		Y: float32(-r[2]),
		Z: float32(r[1]),
	}
}

// RotationFromZUp is the inverse of RotationToZUp.
func RotationFromZUp(q math.Quat) [4]float64 {
	return [4]float64{float64(q.X), float64(q.Z), float64(-q.Y), float64(q.W)}
}
