package math

// Vec3 is a 3D vector, used for positions and scale factors.
type Vec3 struct {
	X, Y, Z float32
}
