package raster

// Edge is a non-horizontal polygon edge prepared for scanline traversal.
type Edge struct {
	x0, y0 float64 // upper endpoint (smaller y)
	x1, y1 float64 // lower endpoint (larger y)
	dxdy   float64 // dx/dy slope
	dir    int     // winding direction: +1 or -1
}

// NewEdge creates an edge from two endpoints in continuous pixel space.
// The winding direction is taken before normalizing the endpoints so the
// non-zero rule sees the original orientation.
func NewEdge(x0, y0, x1, y1 float64) Edge {
	dir := 1
	if y0 > y1 {
		dir = -1
		x0, y0, x1, y1 = x1, y1, x0, y0
	}
	return Edge{
		x0: x0, y0: y0,
		x1: x1, y1: y1,
		dxdy: (x1 - x0) / (y1 - y0),
		dir:  dir,
	}
}

// xAtY returns the edge's x coordinate at the given y.
func (e *Edge) xAtY(y float64) float64 {
	return e.x0 + (y-e.y0)*e.dxdy
}

// activeEdge is an edge crossing the current scanline.
type activeEdge struct {
	x   float64 // x at the current scanline
	dir int
}

// activeEdgeTable holds the edges crossing one scanline, sorted by x.
type activeEdgeTable struct {
	edges []activeEdge
}

func newActiveEdgeTable() *activeEdgeTable {
	return &activeEdgeTable{edges: make([]activeEdge, 0, 32)}
}

func (aet *activeEdgeTable) clear() {
	aet.edges = aet.edges[:0]
}

// addAtY inserts an edge with its x computed at scanline y.
func (aet *activeEdgeTable) addAtY(e Edge, y float64) {
	aet.edges = append(aet.edges, activeEdge{x: e.xAtY(y), dir: e.dir})
}

// sort orders active edges by x (insertion sort; the table is small).
func (aet *activeEdgeTable) sort() {
	for i := 1; i < len(aet.edges); i++ {
		key := aet.edges[i]
		j := i - 1
		for j >= 0 && aet.edges[j].x > key.x {
			aet.edges[j+1] = aet.edges[j]
			j--
		}
		aet.edges[j+1] = key
	}
}
