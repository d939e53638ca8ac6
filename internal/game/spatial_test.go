package game

import (
	"math/rand"
	"testing"
)

func testEntity(id int, x, y, halfExtent float64) *Entity {
	return &Entity{
		ID:         id,
		Kind:       KindEnemyTank,
		X:          x,
		Y:          y,
		HalfExtent: halfExtent,
		Active:     true,
		Tank:       &TankState{Health: 1, MaxHealth: 1},
	}
}

// The broad phase may return extras but must never miss an overlap. Compare
// against a brute-force scan over random layouts and query boxes.
func TestSpatialGrid_SupersetOfBruteForce(t *testing.T) {
	const w, h = 1280, 800
	rng := rand.New(rand.NewSource(42))

	sg := NewSpatialGrid(w, h)
	entities := make([]*Entity, 0, 120)
	for i := 0; i < 120; i++ {
		entities = append(entities, testEntity(i+1, rng.Float64()*w, rng.Float64()*h, 4+rng.Float64()*16))
	}
	sg.Rebuild(entities)

	var buf []*Entity
	for q := 0; q < 300; q++ {
		qx := rng.Float64() * w
		qy := rng.Float64() * h
		radius := 8 + rng.Float64()*120

		buf = sg.CandidatesNear(qx, qy, radius, buf[:0])
		got := make(map[int]bool, len(buf))
		for _, e := range buf {
			if got[e.ID] {
				t.Fatalf("expected each candidate once, got entity %d twice", e.ID)
			}
			got[e.ID] = true
		}

		for _, e := range entities {
			minX, minY, maxX, maxY := e.bounds()
			overlaps := minX <= qx+radius && maxX >= qx-radius &&
				minY <= qy+radius && maxY >= qy-radius
			if overlaps && !got[e.ID] {
				t.Fatalf("expected entity %d at (%.1f,%.1f) near query (%.1f,%.1f,r=%.1f), missing from candidates",
					e.ID, e.X, e.Y, qx, qy, radius)
			}
		}
	}
}

func TestSpatialGrid_InactiveNeverSurfaces(t *testing.T) {
	sg := NewSpatialGrid(640, 640)
	a := testEntity(1, 100, 100, 16)
	b := testEntity(2, 110, 100, 16)
	sg.Rebuild([]*Entity{a, b})

	// Deactivation after the rebuild must still hide the entity at query time.
	b.Active = false
	got := sg.CandidatesNear(100, 100, 64, nil)
	for _, e := range got {
		if e.ID == b.ID {
			t.Fatal("deactivated entity surfaced from the index")
		}
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("expected only entity 1, got %d candidates", len(got))
	}
}

func TestSpatialGrid_DedupeAcrossBuckets(t *testing.T) {
	sg := NewSpatialGrid(640, 640)
	// Centered on a bucket corner: the hull spans four buckets.
	e := testEntity(1, 64, 64, 16)
	sg.Rebuild([]*Entity{e})

	got := sg.CandidatesNear(64, 64, 100, nil)
	if len(got) != 1 {
		t.Fatalf("expected a straddling entity exactly once, got %d", len(got))
	}

	// A second query must also see it again: the dedupe is per query, not
	// per lifetime.
	got = sg.CandidatesNear(64, 64, 100, got[:0])
	if len(got) != 1 {
		t.Fatalf("expected the entity again on a fresh query, got %d", len(got))
	}
}

func TestSpatialGrid_SegmentCandidates(t *testing.T) {
	sg := NewSpatialGrid(1280, 800)
	onPath := testEntity(1, 400, 300, 16)
	offPath := testEntity(2, 400, 700, 16)
	sg.Rebuild([]*Entity{onPath, offPath})

	got := sg.SegmentCandidates(100, 300, 700, 300, tankHalfExtent+projectileHalfExtent, nil)
	foundOn, foundOff := false, false
	for _, e := range got {
		if e.ID == onPath.ID {
			foundOn = true
		}
		if e.ID == offPath.ID {
			foundOff = true
		}
	}
	if !foundOn {
		t.Fatal("expected the entity on the swept path among candidates")
	}
	if foundOff {
		t.Fatal("entity 400px off the path should not be a candidate")
	}
}

func TestSpatialGrid_ClampsStrayPositions(t *testing.T) {
	sg := NewSpatialGrid(640, 640)
	stray := testEntity(1, -40, -40, 16)
	sg.Rebuild([]*Entity{stray})

	// Strays land in edge buckets rather than vanishing, so a query near the
	// origin still finds them.
	got := sg.CandidatesNear(10, 10, 32, nil)
	if len(got) != 1 || got[0].ID != stray.ID {
		t.Fatalf("expected the stray entity from the edge bucket, got %d candidates", len(got))
	}
}

func TestSpatialGrid_StatsReflectRebuild(t *testing.T) {
	sg := NewSpatialGrid(640, 640)
	a := testEntity(1, 100, 100, 16)
	b := testEntity(2, 500, 500, 16)
	dead := testEntity(3, 300, 300, 16)
	dead.Active = false
	sg.Rebuild([]*Entity{a, b, dead})

	st := sg.Stats()
	if st.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", st.Inserted)
	}
	if st.OccupiedBuckets == 0 {
		t.Fatal("expected occupied buckets after rebuild")
	}
	if st.MaxPerBucket < 1 {
		t.Fatalf("expected max per bucket of at least 1, got %d", st.MaxPerBucket)
	}

	sg.Rebuild(nil)
	st = sg.Stats()
	if st.Inserted != 0 || st.OccupiedBuckets != 0 {
		t.Fatalf("expected an empty index after rebuilding with no entities, got %+v", st)
	}
}
