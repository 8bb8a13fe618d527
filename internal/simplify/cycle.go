package simplify

// CycleDetector remembers the content IDs of every tree produced in one
// simplification run.
//
// A rule set that rewrites A*B into B*A and back never reaches a fixed
// point but also never grows, so the pass quota alone would only stop it
// after the full budget. Seeing the same ID twice ends the run at once.
type CycleDetector struct {
	seen map[string]int // expr ID -> pass that produced it
}

// NewCycleDetector creates an empty detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{seen: make(map[string]int)}
}

// WouldCycle reports whether id was already recorded, and if so the pass
// that first produced it.
func (c *CycleDetector) WouldCycle(id string) (int, bool) {
	pass, ok := c.seen[id]
	return pass, ok
}

// Record marks id as produced by pass. The input tree is recorded as
// pass 0.
func (c *CycleDetector) Record(id string, pass int) {
	if _, ok := c.seen[id]; !ok {
		c.seen[id] = pass
	}
}

// Size returns the number of distinct trees recorded.
func (c *CycleDetector) Size() int {
	return len(c.seen)
}
