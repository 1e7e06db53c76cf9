package lodestone

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testBody(index uint32, position mgl32.Vec3, collider Collider) Body {
	return Body{
		Entity:    MakeEntityId(index, 0),
		Transform: &Transform{Position: position},
		Collider:  &collider,
	}
}

// testCharacter stands on a floor whose top face is at y=0 when spawned at
// y=0.95: the ground ray travels 0.95, under the default check distance of 1.
func testCharacter(position mgl32.Vec3) *Character {
	movement := NewCharacterMovement()
	velocity := Velocity{}
	ground := notGrounded()
	state := InAir
	return &Character{
		Entity:     MakeEntityId(100, 0),
		Transform:  &Transform{Position: position},
		Controller: NewCharacterController(),
		Movement:   &movement,
		Velocity:   &velocity,
		Ground:     &ground,
		State:      &state,
	}
}

func testFloor() Body {
	return testBody(0, mgl32.Vec3{0, -0.5, 0}, NewBoxCollider(mgl32.Vec3{10, 0.5, 10}).WithLayer(LayerTerrain))
}

func TestDetectGround(t *testing.T) {
	c := testCharacter(mgl32.Vec3{0, 0.95, 0})
	floor := testFloor()

	ground := DetectGround(c.Transform.Position, c.Controller, c.Entity, []Body{floor})
	if !ground.IsGrounded {
		t.Fatal("expected grounded")
	}
	if ground.GroundEntity != floor.Entity {
		t.Errorf("ground entity: got %v", ground.GroundEntity)
	}
	if ground.Distance < 0.94 || ground.Distance > 0.96 {
		t.Errorf("ground distance: got %f, want ~0.95", ground.Distance)
	}
	if ground.Normal.Y() < 0.99 {
		t.Errorf("ground normal should point up, got %v", ground.Normal)
	}

	// Too high: ray runs out before the floor.
	high := DetectGround(mgl32.Vec3{0, 3, 0}, c.Controller, c.Entity, []Body{floor})
	if high.IsGrounded {
		t.Error("floor beyond check distance must not ground")
	}
}

func TestDetectGround_SkipsTriggersAndFilteredLayers(t *testing.T) {
	c := testCharacter(mgl32.Vec3{0, 0.95, 0})

	trigger := testBody(0, mgl32.Vec3{0, -0.5, 0},
		NewBoxCollider(mgl32.Vec3{10, 0.5, 10}).WithLayer(LayerTrigger))
	if DetectGround(c.Transform.Position, c.Controller, c.Entity, []Body{trigger}).IsGrounded {
		t.Error("trigger volumes must not count as ground")
	}

	c.Controller = c.Controller.WithCollisionFiltering(LayerPlayer, MaskFromLayers(LayerEnvironment))
	terrain := testFloor() // LayerTerrain, excluded by the mask
	if DetectGround(c.Transform.Position, c.Controller, c.Entity, []Body{terrain}).IsGrounded {
		t.Error("mask-filtered bodies must not count as ground")
	}

	// The character's own collider never grounds it.
	self := Body{Entity: c.Entity, Transform: c.Transform, Collider: &Collider{Shape: ShapeBox, HalfExtents: mgl32.Vec3{5, 5, 5}, Layer: LayerDefault, Mask: MaskAll}}
	c.Controller = NewCharacterController()
	if DetectGround(c.Transform.Position, c.Controller, c.Entity, []Body{self}).IsGrounded {
		t.Error("self must be excluded from ground detection")
	}
}

func TestMoveCharacter_JumpConsumesFlag(t *testing.T) {
	c := testCharacter(mgl32.Vec3{0, 0.95, 0})
	*c.State = Grounded
	*c.Movement = c.Movement.WithJump(5)

	MoveCharacter(c, 0.1, mgl32.Vec3{0, -9.81, 0}, []Body{testFloor()})

	if c.Movement.Jump {
		t.Error("jump flag should be consumed")
	}
	if c.Velocity.Linear.Y() != 5 {
		t.Errorf("vertical velocity: got %f, want 5", c.Velocity.Linear.Y())
	}
	if c.Transform.Position.Y() <= 0.95 {
		t.Errorf("character should have moved up, y=%f", c.Transform.Position.Y())
	}
}

func TestMoveCharacter_GroundedCancelsFall(t *testing.T) {
	c := testCharacter(mgl32.Vec3{0, 0.95, 0})
	*c.State = Grounded
	c.Velocity.Linear = mgl32.Vec3{0, -3, 0}

	MoveCharacter(c, 0.1, mgl32.Vec3{0, -9.81, 0}, []Body{testFloor()})

	if c.Velocity.Linear.Y() != 0 {
		t.Errorf("downward velocity should be cancelled on ground, got %f", c.Velocity.Linear.Y())
	}
}

func TestMoveCharacter_GroundedDirectVelocity(t *testing.T) {
	c := testCharacter(mgl32.Vec3{0, 0.95, 0})
	*c.State = Grounded
	*c.Movement = c.Movement.WithDirection(mgl32.Vec3{1, 0, 0}).WithSpeed(4)

	MoveCharacter(c, 0.5, mgl32.Vec3{0, -9.81, 0}, []Body{testFloor()})

	if !mgl32.FloatEqualThreshold(c.Velocity.Linear.X(), 4, 1e-5) {
		t.Errorf("horizontal velocity should equal speed, got %f", c.Velocity.Linear.X())
	}
	if !mgl32.FloatEqualThreshold(c.Transform.Position.X(), 2, 1e-4) {
		t.Errorf("position: got %f, want 2", c.Transform.Position.X())
	}

	// Releasing input stops horizontal movement immediately.
	*c.Movement = c.Movement.WithDirection(mgl32.Vec3{})
	MoveCharacter(c, 0.5, mgl32.Vec3{0, -9.81, 0}, []Body{testFloor()})
	if c.Velocity.Linear.X() != 0 {
		t.Errorf("horizontal velocity should drop to zero, got %f", c.Velocity.Linear.X())
	}
}

func TestMoveCharacter_WallSliding(t *testing.T) {
	c := testCharacter(mgl32.Vec3{0, 0.95, 0})
	*c.State = Grounded
	// Diagonal into a wall that blocks +X but leaves +Z clear.
	*c.Movement = c.Movement.WithDirection(mgl32.Vec3{1, 0, 1}).WithSpeed(5)

	wall := testBody(1, mgl32.Vec3{1, 1, 0}, NewBoxCollider(mgl32.Vec3{0.5, 1, 0.5}).WithLayer(LayerEnvironment))
	bodies := []Body{testFloor(), wall}

	start := c.Transform.Position
	MoveCharacter(c, 0.1, mgl32.Vec3{0, -9.81, 0}, bodies)

	moved := c.Transform.Position.Sub(start)
	if moved.Z() <= 0 {
		t.Errorf("expected slide along the wall in +Z, moved %v", moved)
	}
	if moved.X() != 0 {
		t.Errorf("blocked axis should not advance, moved %v", moved)
	}
}

func TestMoveCharacter_AirborneGravityAndControl(t *testing.T) {
	c := testCharacter(mgl32.Vec3{0, 10, 0})
	*c.State = InAir
	*c.Movement = c.Movement.WithDirection(mgl32.Vec3{1, 0, 0}).WithSpeed(5)
	c.Movement.Jump = true // illegal mid-air, must be dropped

	MoveCharacter(c, 0.1, mgl32.Vec3{0, -9.81, 0}, nil)

	if c.Movement.Jump {
		t.Error("mid-air jump flag should be discarded")
	}
	if !mgl32.FloatEqualThreshold(c.Velocity.Linear.Y(), -0.981, 1e-4) {
		t.Errorf("gravity should accumulate, vy=%f", c.Velocity.Linear.Y())
	}
	// Air control is damped: far below the grounded direct-set speed.
	if vx := c.Velocity.Linear.X(); vx <= 0 || vx >= 5 {
		t.Errorf("air control should nudge, not set, velocity: vx=%f", vx)
	}
	if c.Transform.Position.Y() >= 10 {
		t.Error("character should be falling")
	}
}

func TestMoveCharacter_LandingCancelsVerticalVelocity(t *testing.T) {
	// Resting just above the floor with downward speed: the move is blocked,
	// so the vertical velocity is cancelled instead of accumulating.
	c := testCharacter(mgl32.Vec3{0, 0.91, 0})
	*c.State = InAir
	c.Velocity.Linear = mgl32.Vec3{0, -5, 0}

	MoveCharacter(c, 0.1, mgl32.Vec3{0, -9.81, 0}, []Body{testFloor()})

	if c.Velocity.Linear.Y() != 0 {
		t.Errorf("blocked vertical axis should cancel velocity, vy=%f", c.Velocity.Linear.Y())
	}
}

func TestTryMove_FullMoveWhenClear(t *testing.T) {
	controller := NewCharacterController()
	desired := mgl32.Vec3{3, 5, -2}
	got := tryMove(desired, mgl32.Vec3{0, 5, 0}, controller, MakeEntityId(100, 0), nil)
	if got != desired {
		t.Errorf("unobstructed move should reach the target, got %v", got)
	}
}

func TestWouldCollide_SkinWidth(t *testing.T) {
	controller := NewCharacterController() // halfHeight 0.9

	floor := testFloor()
	// Standing exactly on the floor: the skin shrink keeps the volumes apart.
	if wouldCollide(mgl32.Vec3{0, 0.91, 0}, controller, MakeEntityId(100, 0), []Body{floor}) {
		t.Error("resting contact within skin width must not collide")
	}
	// Sunk past the skin: collides.
	if !wouldCollide(mgl32.Vec3{0, 0.8, 0}, controller, MakeEntityId(100, 0), []Body{floor}) {
		t.Error("penetrating the floor should collide")
	}
}
