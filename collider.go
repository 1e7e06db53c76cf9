package lodestone

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CollisionLayer is the category bit(s) a collider belongs to.
type CollisionLayer uint32

const (
	LayerDefault     CollisionLayer = 1 << 0
	LayerPlayer      CollisionLayer = 1 << 1
	LayerNPC         CollisionLayer = 1 << 2
	LayerEnvironment CollisionLayer = 1 << 3
	// Trigger volumes overlap freely: they still produce collision events but
	// are skipped by physical resolution (ground checks, character movement).
	LayerTrigger    CollisionLayer = 1 << 4
	LayerProjectile CollisionLayer = 1 << 5
	LayerItem       CollisionLayer = 1 << 6
	LayerTerrain    CollisionLayer = 1 << 7

	LayerAll  CollisionLayer = 0xffffffff
	LayerNone CollisionLayer = 0
)

// CustomLayer returns the layer for a raw bit position.
func CustomLayer(bit uint32) CollisionLayer {
	return CollisionLayer(1 << bit)
}

func (l CollisionLayer) Combine(other CollisionLayer) CollisionLayer {
	return l | other
}

func (l CollisionLayer) Intersects(mask CollisionMask) bool {
	return uint32(l)&uint32(mask) != 0
}

// CollisionMask selects which layers a collider interacts with.
type CollisionMask uint32

const (
	MaskAll  CollisionMask = 0xffffffff
	MaskNone CollisionMask = 0
)

func MaskFromLayers(layers ...CollisionLayer) CollisionMask {
	var mask CollisionMask
	for _, l := range layers {
		mask |= CollisionMask(l)
	}
	return mask
}

func (m CollisionMask) WithLayer(layer CollisionLayer) CollisionMask {
	return m | CollisionMask(layer)
}

func (m CollisionMask) WithoutLayer(layer CollisionLayer) CollisionMask {
	return m &^ CollisionMask(layer)
}

func (m CollisionMask) Includes(layer CollisionLayer) bool {
	return uint32(m)&uint32(layer) != 0
}

type ColliderShape int

const (
	ShapeBox ColliderShape = iota
	ShapeSphere
	ShapeCapsule
)

// Collider describes a collision volume. The shape set is closed: every
// dispatch over Shape must handle all three variants.
//
// Shape parameters are validated (clamped non-negative) by the constructors
// and never re-checked on the query path.
type Collider struct {
	Shape       ColliderShape
	HalfExtents mgl32.Vec3 // Box
	Radius      float32    // Sphere, Capsule
	HalfHeight  float32    // Capsule, center to end-cap center
	Layer       CollisionLayer
	Mask        CollisionMask
}

func NewBoxCollider(halfExtents mgl32.Vec3) Collider {
	return Collider{
		Shape:       ShapeBox,
		HalfExtents: clampVecNonNegative(halfExtents),
		Layer:       LayerDefault,
		Mask:        MaskAll,
	}
}

func NewSphereCollider(radius float32) Collider {
	return Collider{
		Shape:  ShapeSphere,
		Radius: max(radius, 0),
		Layer:  LayerDefault,
		Mask:   MaskAll,
	}
}

func NewCapsuleCollider(halfHeight, radius float32) Collider {
	return Collider{
		Shape:      ShapeCapsule,
		HalfHeight: max(halfHeight, 0),
		Radius:     max(radius, 0),
		Layer:      LayerDefault,
		Mask:       MaskAll,
	}
}

func (c Collider) WithLayer(layer CollisionLayer) Collider {
	c.Layer = layer
	return c
}

func (c Collider) WithMask(mask CollisionMask) Collider {
	c.Mask = mask
	return c
}

func (c Collider) WithCollisionFiltering(layer CollisionLayer, mask CollisionMask) Collider {
	c.Layer = layer
	c.Mask = mask
	return c
}

// ShouldCollideWith is the symmetric layer/mask test: each collider's mask
// must include the other's layer. A one-sided check is not enough.
func (c Collider) ShouldCollideWith(other Collider) bool {
	return c.Mask.Includes(other.Layer) && other.Mask.Includes(c.Layer)
}

// ApproximateRadius returns a conservative bounding-sphere radius, used to
// size grid insertion and broad-phase queries. Never under-approximates.
func (c Collider) ApproximateRadius() float32 {
	switch c.Shape {
	case ShapeSphere:
		return c.Radius
	case ShapeCapsule:
		return c.HalfHeight + c.Radius
	default:
		return c.HalfExtents.Len()
	}
}

func clampVecNonNegative(v mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if v[i] < 0 {
			v[i] = 0
		}
	}
	return v
}
