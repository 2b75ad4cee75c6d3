package align

// BreakingPoint pairs a query position with the target position it aligns to.
type BreakingPoint struct {
	Query  uint32
	Target uint32
}

// BreakingPoints walks an alignment of query against target and records the
// positions where the alignment enters a new fixed-length target window,
// plus the first and last aligned positions. Consecutive points therefore
// delimit query segments that each lie within a single target window.
// Target positions are reported with tOffset added.
func BreakingPoints(path []Op, qOffset, tOffset, windowLength uint32) []BreakingPoint {
	if windowLength == 0 {
		return nil
	}
	var points []BreakingPoint
	qi, ti := qOffset, tOffset
	lastWindow := uint32(0)
	first := true
	var lastMatch BreakingPoint
	haveMatch := false

	for _, op := range path {
		switch op {
		case OpMatch, OpMismatch:
			window := ti / windowLength
			if first || window != lastWindow {
				points = append(points, BreakingPoint{Query: qi, Target: ti})
				lastWindow = window
				first = false
			}
			lastMatch = BreakingPoint{Query: qi + 1, Target: ti + 1}
			haveMatch = true
			qi++
			ti++
		case OpInsert:
			qi++
		case OpDelete:
			ti++
		}
	}
	if haveMatch && (len(points) == 0 || points[len(points)-1] != lastMatch) {
		points = append(points, lastMatch)
	}
	if len(points) < 2 {
		return nil
	}
	return points
}
