package lodestone

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Aabb is an axis-aligned bounding box. A well-formed box has Min <= Max on
// every axis; inverted boxes are tolerated by the queries below and simply
// never overlap anything.
type Aabb struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func AabbFromCenterHalfExtents(center, halfExtents mgl32.Vec3) Aabb {
	return Aabb{
		Min: center.Sub(halfExtents),
		Max: center.Add(halfExtents),
	}
}

// IsValid reports whether Min <= Max componentwise.
func (a Aabb) IsValid() bool {
	return a.Min.X() <= a.Max.X() && a.Min.Y() <= a.Max.Y() && a.Min.Z() <= a.Max.Z()
}

// Intersects reports overlap with another box. Degenerate (inverted) boxes
// report no overlap rather than an error.
func (a Aabb) Intersects(other Aabb) bool {
	if !a.IsValid() || !other.IsValid() {
		return false
	}
	return a.Min.X() <= other.Max.X() && a.Max.X() >= other.Min.X() &&
		a.Min.Y() <= other.Max.Y() && a.Max.Y() >= other.Min.Y() &&
		a.Min.Z() <= other.Max.Z() && a.Max.Z() >= other.Min.Z()
}

func (a Aabb) ContainsPoint(p mgl32.Vec3) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y() &&
		p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

func (a Aabb) Center() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a Aabb) HalfExtents() mgl32.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// ExpandToInclude grows the box to contain the point.
func (a Aabb) ExpandToInclude(p mgl32.Vec3) Aabb {
	for i := 0; i < 3; i++ {
		if p[i] < a.Min[i] {
			a.Min[i] = p[i]
		}
		if p[i] > a.Max[i] {
			a.Max[i] = p[i]
		}
	}
	return a
}

// ComputeAabb returns the world-space bounding box of a collider at the
// given position. Pure; no error path.
func ComputeAabb(collider Collider, position mgl32.Vec3) Aabb {
	switch collider.Shape {
	case ShapeSphere:
		r := collider.Radius
		return AabbFromCenterHalfExtents(position, mgl32.Vec3{r, r, r})
	case ShapeCapsule:
		r := collider.Radius
		return AabbFromCenterHalfExtents(position, mgl32.Vec3{r, collider.HalfHeight + r, r})
	default:
		return AabbFromCenterHalfExtents(position, collider.HalfExtents)
	}
}
