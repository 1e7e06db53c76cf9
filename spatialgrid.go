package lodestone

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type set[T comparable] map[T]struct{}

// cellKey is a grid cell coordinate, floor(position / cellSize) per axis.
type cellKey struct {
	X, Y, Z int
}

func cellKeyFromPosition(position mgl32.Vec3, cellSize float32) cellKey {
	return cellKey{
		X: int(math.Floor(float64(position.X() / cellSize))),
		Y: int(math.Floor(float64(position.Y() / cellSize))),
		Z: int(math.Floor(float64(position.Z() / cellSize))),
	}
}

// SpatialHashGrid is the broad-phase index: cells map to the entities whose
// bounding volume may touch them. Queries return a superset of the true
// candidates (false positives are fine, false negatives are not), so callers
// must confirm with an exact narrow-phase test.
//
// A reverse index from entity to occupied cells keeps removal proportional
// to the cells the entity occupies.
type SpatialHashGrid struct {
	cellSize    float32
	cells       map[cellKey]set[EntityId]
	entityCells map[EntityId]set[cellKey]
}

// NewSpatialHashGrid creates a grid. A non-positive cell size is clamped to
// a default of 10 units.
func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	if cellSize <= 0 {
		cellSize = 10.0
	}
	return &SpatialHashGrid{
		cellSize:    cellSize,
		cells:       make(map[cellKey]set[EntityId]),
		entityCells: make(map[EntityId]set[cellKey]),
	}
}

func (g *SpatialHashGrid) CellSize() float32 {
	return g.cellSize
}

// Insert places an entity into the single cell containing the position.
func (g *SpatialHashGrid) Insert(entity EntityId, position mgl32.Vec3) {
	g.insertKey(entity, cellKeyFromPosition(position, g.cellSize))
}

// InsertWithRadius places an entity into every cell its bounding sphere
// could overlap: ceil(radius/cellSize) cells each way from the center cell.
// Conservative: it may cover cells the sphere misses, never the reverse.
func (g *SpatialHashGrid) InsertWithRadius(entity EntityId, position mgl32.Vec3, radius float32) {
	span := int(math.Ceil(float64(radius / g.cellSize)))
	base := cellKeyFromPosition(position, g.cellSize)

	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			for dz := -span; dz <= span; dz++ {
				g.insertKey(entity, cellKey{base.X + dx, base.Y + dy, base.Z + dz})
			}
		}
	}
}

func (g *SpatialHashGrid) insertKey(entity EntityId, key cellKey) {
	cell, ok := g.cells[key]
	if !ok {
		cell = make(set[EntityId])
		g.cells[key] = cell
	}
	cell[entity] = struct{}{}

	keys, ok := g.entityCells[entity]
	if !ok {
		keys = make(set[cellKey])
		g.entityCells[entity] = keys
	}
	keys[key] = struct{}{}
}

// Remove deletes the entity from every cell recorded in the reverse index,
// pruning cells that become empty.
func (g *SpatialHashGrid) Remove(entity EntityId) {
	keys, ok := g.entityCells[entity]
	if !ok {
		return
	}
	delete(g.entityCells, entity)

	for key := range keys {
		cell, ok := g.cells[key]
		if !ok {
			continue
		}
		delete(cell, entity)
		if len(cell) == 0 {
			delete(g.cells, key)
		}
	}
}

// Update is remove-then-insert; no in-place cell diffing.
func (g *SpatialHashGrid) Update(entity EntityId, position mgl32.Vec3) {
	g.Remove(entity)
	g.Insert(entity, position)
}

func (g *SpatialHashGrid) UpdateWithRadius(entity EntityId, position mgl32.Vec3, radius float32) {
	g.Remove(entity)
	g.InsertWithRadius(entity, position, radius)
}

// QueryRadius unions the entity sets of all cells within
// ceil(radius/cellSize)+1 of the query's cell. The extra cell of padding
// covers entities whose positions sit near cell boundaries.
func (g *SpatialHashGrid) QueryRadius(position mgl32.Vec3, radius float32) []EntityId {
	span := int(math.Ceil(float64(radius/g.cellSize))) + 1
	center := cellKeyFromPosition(position, g.cellSize)

	unique := make(set[EntityId])
	var results []EntityId

	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			for dz := -span; dz <= span; dz++ {
				cell, ok := g.cells[cellKey{center.X + dx, center.Y + dy, center.Z + dz}]
				if !ok {
					continue
				}
				for entity := range cell {
					if _, seen := unique[entity]; !seen {
						unique[entity] = struct{}{}
						results = append(results, entity)
					}
				}
			}
		}
	}

	return results
}

// QueryCell returns the entities in the single cell containing the position.
func (g *SpatialHashGrid) QueryCell(position mgl32.Vec3) []EntityId {
	cell, ok := g.cells[cellKeyFromPosition(position, g.cellSize)]
	if !ok {
		return nil
	}
	results := make([]EntityId, 0, len(cell))
	for entity := range cell {
		results = append(results, entity)
	}
	return results
}

// Clear drops all entities. The maps are retained and emptied in place.
func (g *SpatialHashGrid) Clear() {
	clear(g.cells)
	clear(g.entityCells)
}

// SpatialGridStats is a diagnostics snapshot of grid occupancy.
type SpatialGridStats struct {
	TotalCells         int
	TotalEntities      int
	AvgEntitiesPerCell float32
}

func (g *SpatialHashGrid) Stats() SpatialGridStats {
	stats := SpatialGridStats{
		TotalCells:    len(g.cells),
		TotalEntities: len(g.entityCells),
	}
	if stats.TotalCells > 0 {
		total := 0
		for _, cell := range g.cells {
			total += len(cell)
		}
		stats.AvgEntitiesPerCell = float32(total) / float32(stats.TotalCells)
	}
	return stats
}
