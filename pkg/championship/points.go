package championship

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PointsTable maps a finishing position to the awarded points.
type PointsTable map[int]decimal.Decimal

var (
	RacePoints = table(25, 18, 15, 12, 10, 8, 6, 4, 2, 1)

	SprintPoints = table(8, 7, 6, 5, 4, 3, 2, 1)
)

func table(points ...int64) PointsTable {
	ret := make(PointsTable, len(points))
	for i, p := range points {
		ret[i+1] = decimal.NewFromInt(p)
	}
	return ret
}

// Points returns the points for pos. Positions outside the table score zero.
func (t PointsTable) Points(pos int) decimal.Decimal {
	if p, ok := t[pos]; ok {
		return p
	}
	return decimal.Zero
}

func (t PointsTable) Valid(pos int) bool {
	_, ok := t[pos]
	return ok
}

// Positions returns the scoring positions in ascending order
func (t PointsTable) Positions() []int {
	ret := make([]int, 0, len(t))
	for k := range t {
		ret = append(ret, k)
	}
	sort.Ints(ret)
	return ret
}
