package octree

import "testing"

func TestIsManifoldTrivialCases(t *testing.T) {
	if !IsManifold(0x00) {
		t.Error("all-outside cube should be manifold")
	}
	if !IsManifold(0xff) {
		t.Error("all-inside cube should be manifold")
	}
}

func TestIsManifoldSingleCorner(t *testing.T) {
	for c := 0; c < 8; c++ {
		if !IsManifold(1 << c) {
			t.Errorf("single inside corner %d should be manifold", c)
		}
	}
}

func TestIsManifoldDiagonalCornersAreNotManifold(t *testing.T) {
	// Corners 0 and 7 are opposite corners of the cube (differ in all 3
	// bits); marking only those two inside leaves the inside set split
	// into two components not adjacent via any cube edge (the other six
	// corners stay connected), so the cell would need two separate
	// surface patches.
	if IsManifold((1 << 0) | (1 << 7)) {
		t.Error("two diagonally opposite inside corners should not be manifold")
	}
}

func TestCornerMaskRoundTrip(t *testing.T) {
	signs := [8]bool{true, false, true, false, false, false, false, true}
	mask := CornerMask(signs)
	want := 1 | 1<<2 | 1<<7
	if mask != want {
		t.Errorf("CornerMask() = %#x, want %#x", mask, want)
	}
}

func TestCubeEdgesCoverEveryAdjacentPair(t *testing.T) {
	if len(CubeEdges) != 12 {
		t.Fatalf("len(CubeEdges) = %d, want 12", len(CubeEdges))
	}
	for _, e := range CubeEdges {
		if popcount(e[0]^e[1]) != 1 {
			t.Errorf("edge %v does not connect corners differing in one bit", e)
		}
	}
}

func allSigns(s bool) [8]bool {
	var out [8]bool
	for i := range out {
		out[i] = s
	}
	return out
}

func TestEdgeMidpointsManifoldDetectsHiddenCrossing(t *testing.T) {
	signs := allSigns(false)
	mid := [12]bool{}
	if !EdgeMidpointsManifold(signs, mid) {
		t.Error("all-outside corners and midpoints should pass the edge test")
	}
	mid[0] = true // edge 0 connects two same-sign corners but its midpoint disagrees
	if EdgeMidpointsManifold(signs, mid) {
		t.Error("an edge whose midpoint disagrees with its same-sign corners should fail the edge test")
	}
}

func TestFaceCentersManifoldDetectsHiddenSaddle(t *testing.T) {
	signs := allSigns(false)
	var face [6]bool
	if !FaceCentersManifold(signs, face) {
		t.Error("all-outside corners and face centers should pass the face test")
	}
	face[0] = true // face 0's 4 corners agree but its center disagrees
	if FaceCentersManifold(signs, face) {
		t.Error("a face whose center disagrees with its same-sign corners should fail the face test")
	}
}

func TestCubeCenterManifoldDetectsHiddenCrossing(t *testing.T) {
	signs := allSigns(true)
	if !CubeCenterManifold(signs, true) {
		t.Error("all-inside corners with an inside center should pass the cube test")
	}
	if CubeCenterManifold(signs, false) {
		t.Error("all-inside corners with an outside center should fail the cube test")
	}
	mixed := [8]bool{true, false, true, false, true, false, true, false}
	if !CubeCenterManifold(mixed, false) {
		t.Error("the cube test is vacuous whenever corners disagree")
	}
}

func TestLeafsAreManifoldCombinesAllFourTests(t *testing.T) {
	signs := allSigns(false)
	var mid [12]bool
	var face [6]bool
	center := false
	if !LeafsAreManifold(signs, mid, face, center) {
		t.Error("an entirely-outside cube with consistent aux samples should be manifold")
	}
	center = true // hides a crossing no corner, edge, or face sample would catch alone
	if LeafsAreManifold(signs, mid, face, center) {
		t.Error("a cube-center sign mismatch should fail LeafsAreManifold")
	}
}

func TestFaceCornersReturnsTheFourCoplanarCorners(t *testing.T) {
	for axis := 0; axis < 3; axis++ {
		for bit := 0; bit < 2; bit++ {
			corners := faceCorners(axis, bit)
			seen := map[int]bool{}
			for _, c := range corners {
				if (c>>uint(axis))&1 != bit {
					t.Errorf("axis %d bit %d: corner %d does not lie on the face", axis, bit, c)
				}
				seen[c] = true
			}
			if len(seen) != 4 {
				t.Errorf("axis %d bit %d: got %d distinct corners, want 4", axis, bit, len(seen))
			}
		}
	}
}

func TestEdgesAlongAxis(t *testing.T) {
	for axis := 0; axis < 3; axis++ {
		edges := EdgesAlongAxis(axis)
		if len(edges) != 4 {
			t.Fatalf("axis %d: got %d edges, want 4", axis, len(edges))
		}
		bit := 1 << axis
		for _, e := range edges {
			if e[0]^e[1] != bit {
				t.Errorf("axis %d: edge %v not parallel to axis", axis, e)
			}
		}
	}
}
