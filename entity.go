package lodestone

import "math"

// EntityId is an opaque handle to an externally-owned object. The low 32 bits
// are an arena index, the high 32 bits a generation counter, so a handle kept
// across a despawn fails Alive checks instead of aliasing a reused slot.
type EntityId uint64

// NoEntity is the sentinel for "no entity" (e.g. GroundInfo with no ground).
const NoEntity EntityId = math.MaxUint64

func MakeEntityId(index, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index returns the arena slot of the handle. It is also the fixed total
// order used to canonicalize collision pairs and deduplicate pair tests.
func (id EntityId) Index() uint32 {
	return uint32(id)
}

func (id EntityId) Generation() uint32 {
	return uint32(id >> 32)
}

// EntityAllocator hands out generation-tagged handles. Freed indices are
// recycled with a bumped generation.
type EntityAllocator struct {
	generations []uint32
	free        []uint32
}

func NewEntityAllocator() *EntityAllocator {
	return &EntityAllocator{}
}

func (a *EntityAllocator) Alloc() EntityId {
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		return MakeEntityId(index, a.generations[index])
	}

	index := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	return MakeEntityId(index, 0)
}

// Free releases the handle's slot. Returns false for stale or unknown
// handles, which are ignored rather than treated as errors.
func (a *EntityAllocator) Free(id EntityId) bool {
	if !a.Alive(id) {
		return false
	}

	index := id.Index()
	a.generations[index]++
	a.free = append(a.free, index)
	return true
}

func (a *EntityAllocator) Alive(id EntityId) bool {
	if id == NoEntity {
		return false
	}
	index := id.Index()
	return index < uint32(len(a.generations)) && a.generations[index] == id.Generation()
}

// Live returns the number of currently allocated handles.
func (a *EntityAllocator) Live() int {
	return len(a.generations) - len(a.free)
}
