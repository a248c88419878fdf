package los

import "github.com/hexhammer/skirmish/internal/hexes"

// Cache memoizes visibility results for a fixed wall set. Presentation
// layers poll visibility continuously while a player hovers destinations, so
// a match host keeps one of these per game and invalidates it whenever a
// unit moves. Single-goroutine use; callers needing concurrency hold their
// own lock, the same way a room guards its game state.
type Cache struct {
	walls map[hexes.Hex]bool
	seen  map[[2]hexes.Hex]Result
}

// NewCache returns a cache bound to the given wall set. The wall set is
// immutable for the life of a match, so it is captured once here.
func NewCache(walls map[hexes.Hex]bool) *Cache {
	return &Cache{walls: walls, seen: make(map[[2]hexes.Hex]Result, 256)}
}

// Between returns the memoized visibility classification for from -> to.
func (c *Cache) Between(from, to hexes.Hex) Result {
	key := [2]hexes.Hex{from, to}
	if r, ok := c.seen[key]; ok {
		return r
	}
	r := Between(from, to, c.walls)
	c.seen[key] = r
	return r
}

// Invalidate drops every memoized result. Call after any state mutation that
// can change visibility (walls never change, but occupancy-derived queries
// layered on top of this cache do).
func (c *Cache) Invalidate() {
	c.seen = make(map[[2]hexes.Hex]Result, 256)
}
