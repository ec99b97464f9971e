package graph

// TickScans runs one tick with the provided number of initial ready
// scans. Used by regression tests only, see the scheduler docs.
func (g *Graph) TickScans(scans int) (int, error) {
	return g.tick(scans)
}
