package lodestone

import (
	"time"
)

// FixedTime accumulates variable frame time and doles it out in fixed
// simulation steps. The backlog is clamped so a long stall does not trigger
// a spiral of catch-up steps.
type FixedTime struct {
	timestep       time.Duration
	accumulator    time.Duration
	maxAccumulator time.Duration
}

// NewFixedTime creates an accumulator for the given tick rate in Hz.
// Non-positive rates fall back to 60.
func NewFixedTime(rate int) *FixedTime {
	if rate <= 0 {
		rate = 60
	}
	timestep := time.Duration(float64(time.Second) / float64(rate))
	return &FixedTime{
		timestep:       timestep,
		maxAccumulator: timestep * 10,
	}
}

func (f *FixedTime) Accumulate(delta time.Duration) {
	f.accumulator += delta
	if f.accumulator > f.maxAccumulator {
		f.accumulator = f.maxAccumulator
	}
}

func (f *FixedTime) ShouldUpdate() bool {
	return f.accumulator >= f.timestep
}

func (f *FixedTime) ConsumeStep() {
	f.accumulator -= f.timestep
	if f.accumulator < 0 {
		f.accumulator = 0
	}
}

func (f *FixedTime) Timestep() time.Duration {
	return f.timestep
}

func (f *FixedTime) TimestepSeconds() float32 {
	return float32(f.timestep.Seconds())
}

// Alpha is the interpolation fraction of the partial step left in the
// accumulator, for render-side smoothing.
func (f *FixedTime) Alpha() float32 {
	return float32(f.accumulator.Seconds() / f.timestep.Seconds())
}

// GameTick is a wrapping simulation tick counter.
type GameTick struct {
	value uint64
}

func (t *GameTick) Increment() {
	t.value++
}

func (t *GameTick) Get() uint64 {
	return t.value
}
