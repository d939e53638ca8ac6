package game

// Broad-phase bucket size in world pixels. Two map cells per bucket keeps
// tank-sized entities in at most four buckets.
const spatialBucketSize = 64.0

// SpatialStats is a per-tick census of the index, surfaced by the
// performance monitor.
type SpatialStats struct {
	TotalBuckets    int
	OccupiedBuckets int
	MaxPerBucket    int
	AvgPerOccupied  float64
	Inserted        int
}

// SpatialGrid buckets active entities by position so the collision pass
// checks near neighbours instead of every pair. Membership is derived state:
// rebuilt from entity positions every tick, never persisted, never
// authoritative.
type SpatialGrid struct {
	cols, rows int
	bucketSize float64
	buckets    [][]*Entity // row-major

	// Query-time dedupe: an entity spanning several buckets must surface
	// once per query. seen maps entity id to the stamp of the query that
	// last returned it.
	stamp int
	seen  map[int]int

	inserted int
}

// NewSpatialGrid sizes the index to cover a world of w x h pixels.
func NewSpatialGrid(w, h float64) *SpatialGrid {
	cols := int(w/spatialBucketSize) + 1
	rows := int(h/spatialBucketSize) + 1
	return &SpatialGrid{
		cols:       cols,
		rows:       rows,
		bucketSize: spatialBucketSize,
		buckets:    make([][]*Entity, cols*rows),
		seen:       make(map[int]int),
	}
}

// clampCol limits a bucket column to the index range so entities straying
// outside the arena land in edge buckets instead of vanishing.
func (sg *SpatialGrid) clampCol(c int) int {
	if c < 0 {
		return 0
	}
	if c >= sg.cols {
		return sg.cols - 1
	}
	return c
}

func (sg *SpatialGrid) clampRow(r int) int {
	if r < 0 {
		return 0
	}
	if r >= sg.rows {
		return sg.rows - 1
	}
	return r
}

// bucketRange returns the clamped bucket rectangle overlapped by an AABB.
func (sg *SpatialGrid) bucketRange(minX, minY, maxX, maxY float64) (c0, r0, c1, r1 int) {
	c0 = sg.clampCol(int(minX / sg.bucketSize))
	r0 = sg.clampRow(int(minY / sg.bucketSize))
	c1 = sg.clampCol(int(maxX / sg.bucketSize))
	r1 = sg.clampRow(int(maxY / sg.bucketSize))
	return
}

// Rebuild clears the index and reinserts every active entity into each
// bucket its bounding box overlaps. O(n), run once per tick before the
// collision pass.
func (sg *SpatialGrid) Rebuild(entities []*Entity) {
	for i := range sg.buckets {
		sg.buckets[i] = sg.buckets[i][:0]
	}
	sg.inserted = 0
	for _, e := range entities {
		if !e.Active {
			continue
		}
		minX, minY, maxX, maxY := e.bounds()
		c0, r0, c1, r1 := sg.bucketRange(minX, minY, maxX, maxY)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				i := r*sg.cols + c
				sg.buckets[i] = append(sg.buckets[i], e)
			}
		}
		sg.inserted++
	}
}

// CandidatesNear appends every active entity whose bucket overlaps the
// square around (x, y) of the given radius. The result is a superset of the
// true overlaps: callers narrow-phase it. Deduplicated; inactive entities
// never surface even if deactivated after the rebuild.
func (sg *SpatialGrid) CandidatesNear(x, y, radius float64, out []*Entity) []*Entity {
	sg.stamp++
	c0, r0, c1, r1 := sg.bucketRange(x-radius, y-radius, x+radius, y+radius)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, e := range sg.buckets[r*sg.cols+c] {
				if !e.Active {
					continue
				}
				if sg.seen[e.ID] == sg.stamp {
					continue
				}
				sg.seen[e.ID] = sg.stamp
				out = append(out, e)
			}
		}
	}
	return out
}

// SegmentCandidates appends active entities near the swept segment from
// (x1,y1) to (x2,y2), padded on every side. Same superset contract as
// CandidatesNear.
func (sg *SpatialGrid) SegmentCandidates(x1, y1, x2, y2, pad float64, out []*Entity) []*Entity {
	minX, maxX := x1, x2
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := y1, y2
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	sg.stamp++
	c0, r0, c1, r1 := sg.bucketRange(minX-pad, minY-pad, maxX+pad, maxY+pad)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, e := range sg.buckets[r*sg.cols+c] {
				if !e.Active {
					continue
				}
				if sg.seen[e.ID] == sg.stamp {
					continue
				}
				sg.seen[e.ID] = sg.stamp
				out = append(out, e)
			}
		}
	}
	return out
}

// Stats reports occupancy after the most recent Rebuild.
func (sg *SpatialGrid) Stats() SpatialStats {
	st := SpatialStats{
		TotalBuckets: len(sg.buckets),
		Inserted:     sg.inserted,
	}
	sum := 0
	for i := range sg.buckets {
		n := len(sg.buckets[i])
		if n == 0 {
			continue
		}
		st.OccupiedBuckets++
		sum += n
		if n > st.MaxPerBucket {
			st.MaxPerBucket = n
		}
	}
	if st.OccupiedBuckets > 0 {
		st.AvgPerOccupied = float64(sum) / float64(st.OccupiedBuckets)
	}
	return st
}
