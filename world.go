package lodestone

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is the piece of an entity's transform this core reads and, for
// characters, writes back. Rotation and scale stay with the owning framework.
type Transform struct {
	Position mgl32.Vec3
}

// Body couples an entity handle with the transform and collider the physics
// pass operates on. The handle is a weak reference; the core never manages
// the referenced object's lifecycle.
type Body struct {
	Entity    EntityId
	Transform *Transform
	Collider  *Collider
}

// Character bundles everything the kinematic mover needs for one entity.
type Character struct {
	Entity     EntityId
	Transform  *Transform
	Controller CharacterController
	Movement   *CharacterMovement
	Velocity   *Velocity
	Ground     *GroundInfo
	State      *CharacterState
}

// World owns the spatial grid, the collision tracker and the registered
// bodies, and runs the physics pass once per fixed tick. All mutation
// happens inside Step; there are no concurrent writers.
type World struct {
	Gravity mgl32.Vec3

	allocator  *EntityAllocator
	bodies     []Body
	bodyIndex  map[EntityId]int
	characters []*Character
	charIndex  map[EntityId]int
	states     map[EntityId]*CollisionState

	grid    *SpatialHashGrid
	tracker *CollisionTracker
	tick    GameTick
	log     Logger
}

func NewWorld(cellSize float32) *World {
	return &World{
		Gravity:   mgl32.Vec3{0, -9.81, 0},
		allocator: NewEntityAllocator(),
		bodyIndex: make(map[EntityId]int),
		charIndex: make(map[EntityId]int),
		states:    make(map[EntityId]*CollisionState),
		grid:      NewSpatialHashGrid(cellSize),
		tracker:   NewCollisionTracker(),
		log:       NewNopLogger(),
	}
}

// SetLogger replaces the world's logger. Passing nil installs the no-op one.
func (w *World) SetLogger(logger Logger) {
	if logger == nil {
		logger = NewNopLogger()
	}
	w.log = logger
	w.log.Infof("physics world: gravity=%v cell_size=%v", w.Gravity, w.grid.CellSize())
}

// SpawnBody registers a collider-carrying entity and returns its handle.
func (w *World) SpawnBody(position mgl32.Vec3, collider Collider) EntityId {
	entity := w.allocator.Alloc()
	w.bodyIndex[entity] = len(w.bodies)
	w.bodies = append(w.bodies, Body{
		Entity:    entity,
		Transform: &Transform{Position: position},
		Collider:  &collider,
	})
	w.states[entity] = NewCollisionState()
	return entity
}

// SpawnCharacter registers a character-controlled entity. Its collider is a
// capsule built from the controller's dimensions so it participates in
// collision detection like any other body; movement and ground detection
// themselves resolve only against non-character bodies.
func (w *World) SpawnCharacter(position mgl32.Vec3, controller CharacterController, movement CharacterMovement) EntityId {
	collider := NewCapsuleCollider(controller.HalfHeight, controller.Radius).
		WithCollisionFiltering(controller.Layer, controller.Mask)
	entity := w.SpawnBody(position, collider)

	ground := notGrounded()
	state := InAir
	velocity := Velocity{}
	w.charIndex[entity] = len(w.characters)
	w.characters = append(w.characters, &Character{
		Entity:     entity,
		Transform:  w.bodies[w.bodyIndex[entity]].Transform,
		Controller: controller,
		Movement:   &movement,
		Velocity:   &velocity,
		Ground:     &ground,
		State:      &state,
	})
	return entity
}

// Despawn removes an entity from the world. Safe to call with stale handles;
// returns false if the handle was not alive. Pairs involving the entity
// produce Ended events on the next Step.
func (w *World) Despawn(entity EntityId) bool {
	if !w.allocator.Alive(entity) {
		return false
	}

	if i, ok := w.bodyIndex[entity]; ok {
		last := len(w.bodies) - 1
		w.bodies[i] = w.bodies[last]
		w.bodyIndex[w.bodies[i].Entity] = i
		w.bodies = w.bodies[:last]
		delete(w.bodyIndex, entity)
	}
	if i, ok := w.charIndex[entity]; ok {
		last := len(w.characters) - 1
		w.characters[i] = w.characters[last]
		w.charIndex[w.characters[i].Entity] = i
		w.characters = w.characters[:last]
		delete(w.charIndex, entity)
	}
	delete(w.states, entity)
	w.grid.Remove(entity)
	return w.allocator.Free(entity)
}

func (w *World) Alive(entity EntityId) bool {
	return w.allocator.Alive(entity)
}

// Transform returns the entity's transform, or nil for stale handles.
func (w *World) Transform(entity EntityId) *Transform {
	if i, ok := w.bodyIndex[entity]; ok {
		return w.bodies[i].Transform
	}
	return nil
}

func (w *World) Collider(entity EntityId) *Collider {
	if i, ok := w.bodyIndex[entity]; ok {
		return w.bodies[i].Collider
	}
	return nil
}

// Movement returns the character's intent for gameplay to write into.
func (w *World) Movement(entity EntityId) *CharacterMovement {
	if i, ok := w.charIndex[entity]; ok {
		return w.characters[i].Movement
	}
	return nil
}

func (w *World) Velocity(entity EntityId) *Velocity {
	if i, ok := w.charIndex[entity]; ok {
		return w.characters[i].Velocity
	}
	return nil
}

func (w *World) GroundInfo(entity EntityId) (GroundInfo, bool) {
	if i, ok := w.charIndex[entity]; ok {
		return *w.characters[i].Ground, true
	}
	return GroundInfo{}, false
}

func (w *World) State(entity EntityId) (CharacterState, bool) {
	if i, ok := w.charIndex[entity]; ok {
		return *w.characters[i].State, true
	}
	return 0, false
}

func (w *World) CollisionState(entity EntityId) *CollisionState {
	return w.states[entity]
}

// Events returns this tick's collision events. Valid until the next Step.
func (w *World) Events() []CollisionEvent {
	return w.tracker.Events()
}

// QueryRadius exposes the broad-phase index for ad-hoc proximity queries
// (AI perception and the like) outside the physics pass.
func (w *World) QueryRadius(position mgl32.Vec3, radius float32) []EntityId {
	return w.grid.QueryRadius(position, radius)
}

func (w *World) QueryCell(position mgl32.Vec3) []EntityId {
	return w.grid.QueryCell(position)
}

func (w *World) GridStats() SpatialGridStats {
	return w.grid.Stats()
}

func (w *World) Tick() uint64 {
	return w.tick.Get()
}

// Raycast scans all registered bodies for the closest hit.
func (w *World) Raycast(ray Ray) (RaycastHit, bool) {
	return RaycastWorld(ray, w.bodies)
}

// Step runs one physics tick: grid rebuild, broad phase, narrow phase, event
// diffing, collision-state bookkeeping, then per-character ground detection
// and movement resolution. dt is the fixed timestep in seconds.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}

	UpdateSpatialGrid(w.grid, w.bodies)
	events := DetectCollisions(w.grid, w.tracker, w.bodies, w.bodyIndex)
	UpdateCollisionStates(events, w.states)

	obstacles := w.obstacles()
	for _, c := range w.characters {
		// Ground detection must precede movement: the grounded branch
		// depends on this tick's ground state, not last tick's.
		*c.Ground = DetectGround(c.Transform.Position, c.Controller, c.Entity, obstacles)
		*c.State = characterState(*c.Ground)
		MoveCharacter(c, dt, w.Gravity, obstacles)
	}

	w.tick.Increment()
	if w.log.DebugEnabled() {
		stats := w.grid.Stats()
		w.log.Debugf("tick %d: %d bodies, %d cells, %.2f avg occupancy, %d events",
			w.tick.Get(), len(w.bodies), stats.TotalCells, stats.AvgEntitiesPerCell, len(events))
	}
}

// Advance accumulates frame time and drains whole fixed steps, returning
// how many were run.
func (w *World) Advance(fixed *FixedTime, delta time.Duration) int {
	fixed.Accumulate(delta)
	steps := 0
	for fixed.ShouldUpdate() {
		fixed.ConsumeStep()
		w.Step(fixed.TimestepSeconds())
		steps++
	}
	return steps
}

// obstacles returns the bodies characters resolve against: everything that
// is not itself a character. Characters pass through each other.
func (w *World) obstacles() []Body {
	obstacles := make([]Body, 0, len(w.bodies))
	for _, body := range w.bodies {
		if _, isCharacter := w.charIndex[body.Entity]; isCharacter {
			continue
		}
		obstacles = append(obstacles, body)
	}
	return obstacles
}

// UpdateSpatialGrid clears and repopulates the broad-phase index from the
// current transforms. Full rebuild each tick keeps the grid trivially
// consistent at streamed-region scale.
func UpdateSpatialGrid(grid *SpatialHashGrid, bodies []Body) {
	grid.Clear()
	for _, body := range bodies {
		grid.InsertWithRadius(body.Entity, body.Transform.Position, body.Collider.ApproximateRadius())
	}
}

// DetectCollisions runs broad phase over the grid, confirms candidates with
// exact AABB tests, registers confirmed pairs and processes the tick's
// events. index maps entities to their slot in bodies. The grid and tracker
// are explicit parameters: whoever calls this holds the single-writer role
// for the tick.
func DetectCollisions(grid *SpatialHashGrid, tracker *CollisionTracker, bodies []Body, index map[EntityId]int) []CollisionEvent {
	for _, a := range bodies {
		radius := a.Collider.ApproximateRadius()
		nearby := grid.QueryRadius(a.Transform.Position, radius*2)

		for _, otherId := range nearby {
			if otherId == a.Entity {
				continue
			}
			// Test each unordered pair once; canonicalization would
			// deduplicate anyway, this just halves the narrow-phase work.
			if a.Entity.Index() <= otherId.Index() {
				continue
			}

			i, ok := index[otherId]
			if !ok {
				continue
			}
			b := bodies[i]

			if !a.Collider.ShouldCollideWith(*b.Collider) {
				continue
			}

			aabbA := ComputeAabb(*a.Collider, a.Transform.Position)
			aabbB := ComputeAabb(*b.Collider, b.Transform.Position)
			if aabbA.Intersects(aabbB) {
				tracker.RegisterCollision(a.Entity, b.Entity)
			}
		}
	}

	tracker.ProcessEvents()
	return tracker.Events()
}
