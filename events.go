package lodestone

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CollisionEventKind tags a CollisionEvent.
type CollisionEventKind int

const (
	// CollisionStarted fires on the first tick a pair overlaps.
	CollisionStarted CollisionEventKind = iota
	// CollisionEnded fires on the first tick a previously overlapping pair
	// no longer does.
	CollisionEnded
)

// CollisionEvent is produced fresh each tick by the tracker and is only
// valid until the next ProcessEvents call.
type CollisionEvent struct {
	Kind CollisionEventKind
	A, B EntityId
}

func (e CollisionEvent) Entities() (EntityId, EntityId) {
	return e.A, e.B
}

func (e CollisionEvent) Involves(entity EntityId) bool {
	return e.A == entity || e.B == entity
}

// CollisionPair is an unordered pair, stored smaller-index-first so (a,b)
// and (b,a) compare and hash identically.
type CollisionPair struct {
	a, b EntityId
}

func NewCollisionPair(a, b EntityId) CollisionPair {
	if a.Index() < b.Index() {
		return CollisionPair{a: a, b: b}
	}
	return CollisionPair{a: b, b: a}
}

// CollisionTracker keeps the current and previous tick's overlapping pairs
// and derives Started/Ended events from the set difference.
type CollisionTracker struct {
	previousFrame map[CollisionPair]struct{}
	currentFrame  map[CollisionPair]struct{}
	events        []CollisionEvent
}

func NewCollisionTracker() *CollisionTracker {
	return &CollisionTracker{
		previousFrame: make(map[CollisionPair]struct{}),
		currentFrame:  make(map[CollisionPair]struct{}),
	}
}

// RegisterCollision records a confirmed overlap for this tick. Registering
// the same pair twice is harmless; the set deduplicates.
func (t *CollisionTracker) RegisterCollision(a, b EntityId) {
	t.currentFrame[NewCollisionPair(a, b)] = struct{}{}
}

// ProcessEvents diffs the current tick's pairs against the previous tick's,
// then swaps the two buffers and clears the new current one. Ping-pong, no
// reallocation. Must run exactly once per tick, after all registrations.
func (t *CollisionTracker) ProcessEvents() {
	t.events = t.events[:0]

	for pair := range t.currentFrame {
		if _, ok := t.previousFrame[pair]; !ok {
			t.events = append(t.events, CollisionEvent{Kind: CollisionStarted, A: pair.a, B: pair.b})
		}
	}
	for pair := range t.previousFrame {
		if _, ok := t.currentFrame[pair]; !ok {
			t.events = append(t.events, CollisionEvent{Kind: CollisionEnded, A: pair.a, B: pair.b})
		}
	}

	t.previousFrame, t.currentFrame = t.currentFrame, t.previousFrame
	clear(t.currentFrame)
}

// Events returns this tick's events. The slice is reused on the next
// ProcessEvents call; callers must not retain it across ticks.
func (t *CollisionTracker) Events() []CollisionEvent {
	return t.events
}

// Clear drops all tracked state and pending events.
func (t *CollisionTracker) Clear() {
	clear(t.previousFrame)
	clear(t.currentFrame)
	t.events = t.events[:0]
}

// CollisionInfo carries optional contact details for a collision partner.
type CollisionInfo struct {
	OtherEntity      EntityId
	ContactPoint     mgl32.Vec3
	ContactNormal    mgl32.Vec3
	PenetrationDepth float32
}

// CollisionState is the gameplay-facing view of an entity's current
// collisions, maintained from tracker events each tick.
type CollisionState struct {
	CollidingWith set[EntityId]
	Details       map[EntityId]CollisionInfo
}

func NewCollisionState() *CollisionState {
	return &CollisionState{
		CollidingWith: make(set[EntityId]),
		Details:       make(map[EntityId]CollisionInfo),
	}
}

func (s *CollisionState) IsCollidingWith(entity EntityId) bool {
	_, ok := s.CollidingWith[entity]
	return ok
}

func (s *CollisionState) Info(entity EntityId) (CollisionInfo, bool) {
	info, ok := s.Details[entity]
	return info, ok
}

func (s *CollisionState) Clear() {
	clear(s.CollidingWith)
	clear(s.Details)
}

// UpdateCollisionStates applies one tick's events to the per-entity states.
// Entities without a registered state are skipped.
func UpdateCollisionStates(events []CollisionEvent, states map[EntityId]*CollisionState) {
	for _, event := range events {
		switch event.Kind {
		case CollisionStarted:
			if state, ok := states[event.A]; ok {
				state.CollidingWith[event.B] = struct{}{}
			}
			if state, ok := states[event.B]; ok {
				state.CollidingWith[event.A] = struct{}{}
			}
		case CollisionEnded:
			if state, ok := states[event.A]; ok {
				delete(state.CollidingWith, event.B)
				delete(state.Details, event.B)
			}
			if state, ok := states[event.B]; ok {
				delete(state.CollidingWith, event.A)
				delete(state.Details, event.A)
			}
		}
	}
}
