package octree

// CubeEdges lists the 12 edges of a unit cube as pairs of corner indices,
// using the bit0=X, bit1=Y, bit2=Z corner numbering shared with
// region.Region.Corner. Two corners are joined by an edge exactly when
// their indices differ in a single bit.
var CubeEdges = buildCubeEdges()

func buildCubeEdges() [12][2]int {
	var edges [12][2]int
	n := 0
	for a := 0; a < 8; a++ {
		for b := a + 1; b < 8; b++ {
			if popcount(a^b) == 1 {
				edges[n] = [2]int{a, b}
				n++
			}
		}
	}
	return edges
}

// EdgesAlongAxis returns, for axis in {0,1,2} (X,Y,Z), the 4 cube edges
// that run parallel to that axis.
func EdgesAlongAxis(axis int) [4][2]int {
	bit := 1 << axis
	var out [4][2]int
	n := 0
	for _, e := range CubeEdges {
		if e[0]^e[1] == bit {
			out[n] = e
			n++
		}
	}
	return out
}

func popcount(x int) int {
	c := 0
	for x != 0 {
		c += x & 1
		x >>= 1
	}
	return c
}

// manifoldTable[mask] reports whether a cube whose 8 corners have the
// inside/outside pattern given by mask (bit i set means corner i is
// inside the surface) can be safely represented by a single dual vertex.
//
// A configuration is unsafe (needs more than one patch through the cell)
// when either its inside corners or its outside corners fail to form a
// single connected group under cube-edge adjacency — e.g. two diagonally
// opposite corners inside and the rest outside connects to two disjoint
// surface sheets passing through the same cell. This is computed once at
// init time by union-find edge contraction: start with each corner in its
// own group, then merge the two corners of every cube edge whose
// endpoints share a sign, exactly as the reference manifold-corner-table
// generator does, and check that both the inside and outside groups have
// collapsed to one component each (trivially true when a side is empty).
var manifoldTable [256]bool

func init() {
	for mask := 0; mask < 256; mask++ {
		manifoldTable[mask] = computeManifold(mask)
	}
}

func computeManifold(mask int) bool {
	var uf unionFind8
	uf.init()
	for _, e := range CubeEdges {
		signA := mask&(1<<e[0]) != 0
		signB := mask&(1<<e[1]) != 0
		if signA == signB {
			uf.union(e[0], e[1])
		}
	}
	insideRoots := map[int]bool{}
	outsideRoots := map[int]bool{}
	for c := 0; c < 8; c++ {
		r := uf.find(c)
		if mask&(1<<c) != 0 {
			insideRoots[r] = true
		} else {
			outsideRoots[r] = true
		}
	}
	return len(insideRoots) <= 1 && len(outsideRoots) <= 1
}

// IsManifold reports whether the cube corner-sign pattern mask (bit i set
// means corner i is inside) admits a single dual vertex.
func IsManifold(mask int) bool { return manifoldTable[mask&0xff] }

type unionFind8 struct {
	parent [8]int
}

func (u *unionFind8) init() {
	for i := range u.parent {
		u.parent[i] = i
	}
}

func (u *unionFind8) find(x int) int {
	for u.parent[x] != x {
		x = u.parent[x]
	}
	return x
}

func (u *unionFind8) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// CornerMask packs a node's CornerSign array into the bitmask IsManifold
// expects.
func CornerMask(signs [8]bool) int {
	mask := 0
	for i, s := range signs {
		if s {
			mask |= 1 << i
		}
	}
	return mask
}

// faceCorners returns the 4 corner indices lying on the face of the unit
// cube perpendicular to axis at the given bit value (0 = min face, 1 =
// max face).
func faceCorners(axis, bit int) [4]int {
	var out [4]int
	n := 0
	for c := 0; c < 8; c++ {
		if (c>>uint(axis))&1 == bit {
			out[n] = c
			n++
		}
	}
	return out
}

// EdgeMidpointsManifold reports whether the field's sign at the midpoint
// of every one of the cube's 12 edges is consistent with the corner-only
// classification: an edge whose two corners share a sign must not hide
// an extra, corner-invisible crossing at its midpoint. This is the edge
// test of the Ju et al. manifold criterion, grounded on dc_tree3.cpp's
// leafsAreManifold.
func EdgeMidpointsManifold(signs [8]bool, midSigns [12]bool) bool {
	for i, e := range CubeEdges {
		a, b := e[0], e[1]
		if signs[a] == signs[b] && midSigns[i] != signs[a] {
			return false
		}
	}
	return true
}

// FaceCentersManifold reports whether the field's sign at each of the
// cube's 6 face centers is consistent with the corner-only
// classification: a face whose 4 corners all share a sign must not hide
// a saddle that changes sign twice across the face. faceSigns is ordered
// by faceIdx = axis*2+bit, matching SampleAuxSigns.
func FaceCentersManifold(signs [8]bool, faceSigns [6]bool) bool {
	for axis := 0; axis < 3; axis++ {
		for bit := 0; bit < 2; bit++ {
			corners := faceCorners(axis, bit)
			allSame := true
			for _, c := range corners[1:] {
				if signs[c] != signs[corners[0]] {
					allSame = false
					break
				}
			}
			if allSame && faceSigns[axis*2+bit] != signs[corners[0]] {
				return false
			}
		}
	}
	return true
}

// CubeCenterManifold reports whether the field's sign at the cube's
// center is consistent with the corner-only classification: a cube
// whose 8 corners all share a sign must not hide a sign change that
// never touches a corner, edge midpoint, or face center.
func CubeCenterManifold(signs [8]bool, centerSign bool) bool {
	for _, s := range signs[1:] {
		if s != signs[0] {
			return true
		}
	}
	return centerSign == signs[0]
}

// LeafsAreManifold runs the full Ju et al. manifold criterion a
// candidate collapse must pass: the 256-entry corner table (IsManifold)
// plus the edge-midpoint, face-center, and cube-center sign tests,
// grounded on dc_tree3.cpp's leafsAreManifold.
func LeafsAreManifold(signs [8]bool, midSigns [12]bool, faceSigns [6]bool, centerSign bool) bool {
	return IsManifold(CornerMask(signs)) &&
		EdgeMidpointsManifold(signs, midSigns) &&
		FaceCentersManifold(signs, faceSigns) &&
		CubeCenterManifold(signs, centerSign)
}
