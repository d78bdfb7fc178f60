package frame

import (
	"math"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ClipSpace selects the normalized device depth range a projection maps into.
type ClipSpace int

const (
	// ClipSpaceZeroToOne maps depth into [0, 1] (Direct3D, WebGPU, Vulkan, Metal).
	ClipSpaceZeroToOne ClipSpace = iota

	// ClipSpaceNegOneToOne maps depth into [-1, 1] (OpenGL).
	ClipSpaceNegOneToOne
)

// Projection defaults: a 45 degree vertical field of view, near plane at 0.1 and far plane at 1000.
const (
	DefaultFovY float32 = math.Pi / 4
	DefaultNear float32 = 0.1
	DefaultFar  float32 = 1000
)

// depthZeroToOne remaps OpenGL clip depth [-w, w] into [0, w].
var depthZeroToOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Projection is the projection state derived from the current frame target size.
// It is recomputed whenever the targets are rebuilt and is otherwise immutable.
type Projection struct {
	FovY      float32
	Near      float32
	Far       float32
	ClipSpace ClipSpace

	// Size is the target size the projection was derived from.
	Size common.Size

	// Aspect is Size.Width / Size.Height.
	Aspect float32

	// Matrix is the column-major perspective matrix.
	Matrix mgl32.Mat4
}

// NewProjection derives a perspective projection for the given target size.
// An empty size yields an identity matrix and a zero aspect instead of dividing by zero.
//
// Parameters:
//   - size: the target size in pixels
//   - fovY: vertical field of view in radians
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//   - clip: the depth range convention of the target API
//
// Returns:
//   - Projection: the derived projection state
func NewProjection(size common.Size, fovY, near, far float32, clip ClipSpace) Projection {
	p := Projection{
		FovY:      fovY,
		Near:      near,
		Far:       far,
		ClipSpace: clip,
		Size:      size,
		Aspect:    size.Aspect(),
		Matrix:    mgl32.Ident4(),
	}
	if size.Empty() {
		return p
	}

	p.Matrix = mgl32.Perspective(fovY, p.Aspect, near, far)
	if clip == ClipSpaceZeroToOne {
		p.Matrix = depthZeroToOne.Mul4(p.Matrix)
	}
	return p
}

// Resized returns a copy of the projection derived for a new target size, keeping the lens settings.
//
// Parameters:
//   - size: the new target size in pixels
//
// Returns:
//   - Projection: the recomputed projection state
func (p Projection) Resized(size common.Size) Projection {
	return NewProjection(size, p.FovY, p.Near, p.Far, p.ClipSpace)
}

// DefaultView is a fixed camera five units back from the origin, looking at it.
func DefaultView() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
}
