package lodestone

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// parallelEpsilon is the per-axis direction magnitude below which a ray is
// treated as parallel to that axis's slabs.
const parallelEpsilon = 1e-8

// Ray is origin + direction, limited to MaxDistance.
type Ray struct {
	Origin      mgl32.Vec3
	Direction   mgl32.Vec3
	MaxDistance float32
}

// NewRay normalizes the direction. A zero-length direction is kept as the
// zero vector; every intersection routine handles that case as a miss (or as
// the degenerate per-axis parallel case in the slab test).
func NewRay(origin, direction mgl32.Vec3, maxDistance float32) Ray {
	if direction.LenSqr() > 0 {
		direction = direction.Normalize()
	}
	return Ray{
		Origin:      origin,
		Direction:   direction,
		MaxDistance: maxDistance,
	}
}

// PointAt returns the point at distance t along the ray.
func (r Ray) PointAt(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// RaycastHit describes the closest intersection found by a world query.
type RaycastHit struct {
	Entity   EntityId
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
}

// RaycastAabb runs the per-axis slab test. For axes where the ray is
// parallel the origin must lie inside that slab. Returns the entry distance,
// or 0 when the origin is already inside the box.
func RaycastAabb(ray Ray, aabb Aabb) (float32, bool) {
	tmin := float32(0)
	tmax := ray.MaxDistance

	for i := 0; i < 3; i++ {
		origin := ray.Origin[i]
		dir := ray.Direction[i]

		if mgl32.Abs(dir) < parallelEpsilon {
			// Parallel to this slab: no crossing possible, origin decides.
			if origin < aabb.Min[i] || origin > aabb.Max[i] {
				return 0, false
			}
			continue
		}

		invD := 1.0 / dir
		t1 := (aabb.Min[i] - origin) * invD
		t2 := (aabb.Max[i] - origin) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	// Order matters: a ray starting inside the box has tmin == 0 and must
	// report a hit at distance 0, not a miss.
	if tmin > 0 {
		return tmin, true
	}
	if tmax > 0 {
		return 0, true
	}
	return 0, false
}

// RaycastSphere solves |O + tD - C|^2 = r^2 and returns the closest positive
// root within range. Falls back to the far root when the origin is inside
// the sphere.
func RaycastSphere(ray Ray, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := ray.Origin.Sub(center)
	a := ray.Direction.Dot(ray.Direction)
	if a < 1e-12 {
		return 0, false
	}
	b := 2.0 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := float32(math.Sqrt(float64(discriminant)))
	t1 := (-b - sqrtD) / (2 * a)
	t2 := (-b + sqrtD) / (2 * a)

	if t1 > 0 && t1 <= ray.MaxDistance {
		return t1, true
	}
	if t2 > 0 && t2 <= ray.MaxDistance {
		return t2, true
	}
	return 0, false
}

// RaycastBox intersects an axis-aligned box and derives the face normal from
// the closest of the six face-distance candidates at the hit point.
func RaycastBox(ray Ray, center, halfExtents mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	aabb := AabbFromCenterHalfExtents(center, halfExtents)
	t, ok := RaycastAabb(ray, aabb)
	if !ok {
		return 0, mgl32.Vec3{}, false
	}

	local := ray.PointAt(t).Sub(center)
	var normal mgl32.Vec3
	minDist := float32(math.Inf(1))

	for i := 0; i < 3; i++ {
		extent := halfExtents[i]
		distToMax := mgl32.Abs(extent - local[i])
		distToMin := mgl32.Abs(extent + local[i])

		if distToMax < minDist {
			minDist = distToMax
			normal = mgl32.Vec3{}
			normal[i] = 1
		}
		if distToMin < minDist {
			minDist = distToMin
			normal = mgl32.Vec3{}
			normal[i] = -1
		}
	}

	return t, normal, true
}

// RaycastCapsule tests the two end-cap spheres at +-halfHeight on the local
// up axis. The cylindrical side is deliberately not tested; ground-detection
// tuning depends on this approximation, so it stays.
func RaycastCapsule(ray Ray, center mgl32.Vec3, halfHeight, radius float32) (float32, mgl32.Vec3, bool) {
	topCenter := center.Add(mgl32.Vec3{0, halfHeight, 0})
	bottomCenter := center.Sub(mgl32.Vec3{0, halfHeight, 0})

	closestT := float32(math.Inf(1))
	var closestNormal mgl32.Vec3

	if t, ok := RaycastSphere(ray, topCenter, radius); ok && t < closestT {
		closestT = t
		closestNormal = sphereNormal(ray.PointAt(t), topCenter)
	}
	if t, ok := RaycastSphere(ray, bottomCenter, radius); ok && t < closestT {
		closestT = t
		closestNormal = sphereNormal(ray.PointAt(t), bottomCenter)
	}

	if math.IsInf(float64(closestT), 1) {
		return 0, mgl32.Vec3{}, false
	}
	return closestT, closestNormal, true
}

// RaycastCollider dispatches on the collider's shape.
func RaycastCollider(ray Ray, collider Collider, position mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	switch collider.Shape {
	case ShapeSphere:
		t, ok := RaycastSphere(ray, position, collider.Radius)
		if !ok {
			return 0, mgl32.Vec3{}, false
		}
		return t, sphereNormal(ray.PointAt(t), position), true
	case ShapeCapsule:
		return RaycastCapsule(ray, position, collider.HalfHeight, collider.Radius)
	default:
		return RaycastBox(ray, position, collider.HalfExtents)
	}
}

// RaycastWorld scans every body and keeps the closest hit. Linear; intended
// for single, infrequent queries. Ground checks run against their own narrow
// candidate set instead.
func RaycastWorld(ray Ray, bodies []Body) (RaycastHit, bool) {
	var closest RaycastHit
	closestDistance := ray.MaxDistance
	found := false

	for _, body := range bodies {
		t, normal, ok := RaycastCollider(ray, *body.Collider, body.Transform.Position)
		if !ok || t >= closestDistance {
			continue
		}
		closestDistance = t
		closest = RaycastHit{
			Entity:   body.Entity,
			Point:    ray.PointAt(t),
			Normal:   normal,
			Distance: t,
		}
		found = true
	}

	return closest, found
}

func sphereNormal(hitPoint, center mgl32.Vec3) mgl32.Vec3 {
	n := hitPoint.Sub(center)
	if n.LenSqr() < 1e-12 {
		// Origin-inside hit at distance 0 can land on the center.
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}
