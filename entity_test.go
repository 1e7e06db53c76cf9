package lodestone

import (
	"testing"
)

func TestEntityAllocator_GenerationSafety(t *testing.T) {
	alloc := NewEntityAllocator()

	first := alloc.Alloc()
	if !alloc.Alive(first) {
		t.Fatal("freshly allocated handle should be alive")
	}

	if !alloc.Free(first) {
		t.Fatal("freeing a live handle should succeed")
	}
	if alloc.Alive(first) {
		t.Error("freed handle should no longer be alive")
	}

	// The slot gets recycled with a bumped generation.
	second := alloc.Alloc()
	if second.Index() != first.Index() {
		t.Errorf("expected index %d to be recycled, got %d", first.Index(), second.Index())
	}
	if second.Generation() != first.Generation()+1 {
		t.Errorf("expected generation %d, got %d", first.Generation()+1, second.Generation())
	}

	// The stale handle must not alias the new one.
	if alloc.Alive(first) {
		t.Error("stale handle aliases the recycled slot")
	}
	if !alloc.Alive(second) {
		t.Error("recycled handle should be alive")
	}
}

func TestEntityAllocator_DoubleFree(t *testing.T) {
	alloc := NewEntityAllocator()
	id := alloc.Alloc()

	if !alloc.Free(id) {
		t.Fatal("first free should succeed")
	}
	if alloc.Free(id) {
		t.Error("second free of the same handle should be rejected")
	}
}

func TestEntityAllocator_Live(t *testing.T) {
	alloc := NewEntityAllocator()

	a := alloc.Alloc()
	b := alloc.Alloc()
	alloc.Alloc()

	if alloc.Live() != 3 {
		t.Errorf("expected 3 live, got %d", alloc.Live())
	}

	alloc.Free(a)
	alloc.Free(b)
	if alloc.Live() != 1 {
		t.Errorf("expected 1 live after frees, got %d", alloc.Live())
	}
}

func TestEntityId_PackUnpack(t *testing.T) {
	id := MakeEntityId(42, 7)
	if id.Index() != 42 {
		t.Errorf("index: got %d", id.Index())
	}
	if id.Generation() != 7 {
		t.Errorf("generation: got %d", id.Generation())
	}

	if NoEntity.Index() == MakeEntityId(0, 0).Index() &&
		NoEntity.Generation() == MakeEntityId(0, 0).Generation() {
		t.Error("NoEntity must not collide with the first real handle")
	}
}
