package lodestone

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// skinWidth shrinks the character's test volume vertically so a body
	// resting on the ground does not collide with its own support.
	skinWidth = 0.02
	// airControl damps how much input steers a character while airborne.
	airControl = 0.3
	// blockedFraction: an axis whose actual displacement falls below this
	// fraction of the intended displacement counts as blocked and has its
	// velocity cancelled.
	blockedFraction = 0.1
)

// CharacterController is the immutable movement tuning for one character,
// set once at creation.
type CharacterController struct {
	Radius     float32
	HalfHeight float32
	// StepHeight only widens the ground-check ray via WithStepHeight; there
	// is no step-up displacement.
	StepHeight          float32
	GroundCheckDistance float32
	Layer               CollisionLayer
	Mask                CollisionMask
}

// NewCharacterController returns humanoid defaults: 0.6m wide, 1.8m tall.
func NewCharacterController() CharacterController {
	return CharacterController{
		Radius:              0.3,
		HalfHeight:          0.9,
		StepHeight:          0.3,
		GroundCheckDistance: 1.0, // must exceed HalfHeight to see the ground from center
		Layer:               LayerPlayer,
		Mask:                MaskAll,
	}
}

func (c CharacterController) WithSize(radius, halfHeight float32) CharacterController {
	c.Radius = max(radius, 0)
	c.HalfHeight = max(halfHeight, 0)
	return c
}

func (c CharacterController) WithCollisionFiltering(layer CollisionLayer, mask CollisionMask) CharacterController {
	c.Layer = layer
	c.Mask = mask
	return c
}

func (c CharacterController) WithStepHeight(height float32) CharacterController {
	c.StepHeight = max(height, 0)
	c.GroundCheckDistance = c.StepHeight + 0.1
	return c
}

// CharacterState is driven solely by GroundInfo.IsGrounded, recomputed
// every tick.
type CharacterState int

const (
	Grounded CharacterState = iota
	InAir
)

// GroundInfo is the result of this tick's ground detection. Fully
// overwritten each tick, never partially updated.
type GroundInfo struct {
	IsGrounded   bool
	Normal       mgl32.Vec3
	Distance     float32
	GroundEntity EntityId
}

func notGrounded() GroundInfo {
	return GroundInfo{
		IsGrounded:   false,
		Normal:       mgl32.Vec3{0, 1, 0},
		Distance:     float32(math.Inf(1)),
		GroundEntity: NoEntity,
	}
}

// CharacterMovement is the per-tick intent written by gameplay. The jump
// flag is consumed (reset) by the controller.
type CharacterMovement struct {
	Direction    mgl32.Vec3 // normalized or zero
	Speed        float32
	Jump         bool
	JumpVelocity float32
}

func NewCharacterMovement() CharacterMovement {
	return CharacterMovement{
		Speed:        5.0,
		JumpVelocity: 5.0,
	}
}

// WithDirection normalizes a nonzero direction; zero stays zero.
func (m CharacterMovement) WithDirection(direction mgl32.Vec3) CharacterMovement {
	if direction.LenSqr() > 0 {
		m.Direction = direction.Normalize()
	} else {
		m.Direction = mgl32.Vec3{}
	}
	return m
}

func (m CharacterMovement) WithSpeed(speed float32) CharacterMovement {
	m.Speed = speed
	return m
}

func (m CharacterMovement) WithJump(jumpVelocity float32) CharacterMovement {
	m.Jump = true
	m.JumpVelocity = jumpVelocity
	return m
}

// Velocity is the character's linear (and unused angular) velocity.
type Velocity struct {
	Linear  mgl32.Vec3
	Angular mgl32.Vec3
}

// DetectGround casts a single downward ray from the character's center and
// returns the closest non-trigger, mask-compatible hit under the check
// distance. The character's own collider is excluded.
func DetectGround(position mgl32.Vec3, controller CharacterController, self EntityId, bodies []Body) GroundInfo {
	ray := NewRay(position, mgl32.Vec3{0, -1, 0}, controller.GroundCheckDistance)

	closestDistance := controller.GroundCheckDistance
	info := notGrounded()

	for _, body := range bodies {
		if body.Entity == self {
			continue
		}
		if body.Collider.Layer == LayerTrigger {
			continue
		}
		if !controller.Mask.Includes(body.Collider.Layer) {
			continue
		}

		t, normal, ok := RaycastCollider(ray, *body.Collider, body.Transform.Position)
		if !ok || t >= closestDistance {
			continue
		}
		closestDistance = t
		info = GroundInfo{
			IsGrounded:   true,
			Normal:       normal,
			Distance:     t,
			GroundEntity: body.Entity,
		}
	}

	return info
}

// characterState maps ground detection to the movement state.
func characterState(ground GroundInfo) CharacterState {
	if ground.IsGrounded {
		return Grounded
	}
	return InAir
}

// MoveCharacter resolves one tick of movement for a character whose ground
// state was already recomputed this tick.
func MoveCharacter(c *Character, dt float32, gravity mgl32.Vec3, bodies []Body) {
	switch *c.State {
	case Grounded:
		moveGrounded(c, dt, bodies)
	case InAir:
		moveInAir(c, dt, gravity, bodies)
	}
}

func moveGrounded(c *Character, dt float32, bodies []Body) {
	if c.Movement.Jump {
		c.Velocity.Linear[1] = c.Movement.JumpVelocity
		c.Movement.Jump = false
	} else if c.Velocity.Linear.Y() < 0 {
		// Cancel only downward velocity. A jump issued this tick keeps its
		// upward velocity so it takes effect before grounding is
		// re-evaluated next tick.
		c.Velocity.Linear[1] = 0
	}

	// Horizontal velocity is set directly from intent, not accelerated.
	if c.Movement.Direction.LenSqr() > 0 {
		horizontal := c.Movement.Direction.Normalize().Mul(c.Movement.Speed)
		c.Velocity.Linear[0] = horizontal.X()
		c.Velocity.Linear[2] = horizontal.Z()
	} else {
		c.Velocity.Linear[0] = 0
		c.Velocity.Linear[2] = 0
	}

	delta := mgl32.Vec3{
		c.Velocity.Linear.X() * dt,
		c.Velocity.Linear.Y() * dt,
		c.Velocity.Linear.Z() * dt,
	}
	desired := c.Transform.Position.Add(delta)
	c.Transform.Position = tryMove(desired, c.Transform.Position, c.Controller, c.Entity, bodies)
}

func moveInAir(c *Character, dt float32, gravity mgl32.Vec3, bodies []Body) {
	// No mid-air jumping.
	c.Movement.Jump = false

	horizontal := mgl32.Vec3{c.Movement.Direction.X(), 0, c.Movement.Direction.Z()}
	if horizontal.LenSqr() > 0 {
		c.Velocity.Linear[0] += horizontal.X() * c.Movement.Speed * airControl * dt
		c.Velocity.Linear[2] += horizontal.Z() * c.Movement.Speed * airControl * dt
	}

	c.Velocity.Linear = c.Velocity.Linear.Add(gravity.Mul(dt))

	intended := c.Velocity.Linear.Mul(dt)
	desired := c.Transform.Position.Add(intended)
	newPosition := tryMove(desired, c.Transform.Position, c.Controller, c.Entity, bodies)

	// Collision response by velocity cancellation: any axis that moved less
	// than a tenth of its intended displacement loses its velocity.
	actual := newPosition.Sub(c.Transform.Position)
	for axis := 0; axis < 3; axis++ {
		if mgl32.Abs(actual[axis]) < mgl32.Abs(intended[axis])*blockedFraction {
			c.Velocity.Linear[axis] = 0
		}
	}

	c.Transform.Position = newPosition
}

// tryMove returns the furthest clear position toward desired, sliding along
// blocking geometry. Greedy, non-iterative: full move, then horizontal-only,
// then per-axis, each time attempting to stack the vertical delta on top.
func tryMove(desired, current mgl32.Vec3, controller CharacterController, self EntityId, bodies []Body) mgl32.Vec3 {
	if !wouldCollide(desired, controller, self, bodies) {
		return desired
	}

	delta := desired.Sub(current)

	// Horizontal first: wall sliding keeps X and Z together.
	horizontalOnly := current.Add(mgl32.Vec3{delta.X(), 0, delta.Z()})
	if !wouldCollide(horizontalOnly, controller, self, bodies) {
		withVertical := horizontalOnly.Add(mgl32.Vec3{0, delta.Y(), 0})
		if !wouldCollide(withVertical, controller, self, bodies) {
			return withVertical
		}
		return horizontalOnly
	}

	// Horizontal blocked too: accept each clear axis independently so the
	// character can slide into corners.
	result := current

	xOnly := current.Add(mgl32.Vec3{delta.X(), 0, 0})
	if !wouldCollide(xOnly, controller, self, bodies) {
		result = xOnly
	}

	zFromResult := result.Add(mgl32.Vec3{0, 0, delta.Z()})
	if !wouldCollide(zFromResult, controller, self, bodies) {
		result = zFromResult
	}

	withVertical := result.Add(mgl32.Vec3{0, delta.Y(), 0})
	if !wouldCollide(withVertical, controller, self, bodies) {
		result = withVertical
	}

	return result
}

// wouldCollide tests the character's skin-shrunk AABB at a candidate
// position against every solid, mask-compatible collider except itself.
func wouldCollide(position mgl32.Vec3, controller CharacterController, self EntityId, bodies []Body) bool {
	halfExtents := mgl32.Vec3{
		controller.Radius,
		controller.HalfHeight - skinWidth,
		controller.Radius,
	}
	characterAabb := AabbFromCenterHalfExtents(position, halfExtents)

	for _, body := range bodies {
		if body.Entity == self {
			continue
		}
		if body.Collider.Layer == LayerTrigger {
			continue
		}
		if !controller.Mask.Includes(body.Collider.Layer) {
			continue
		}

		if characterAabb.Intersects(ComputeAabb(*body.Collider, body.Transform.Position)) {
			return true
		}
	}

	return false
}
