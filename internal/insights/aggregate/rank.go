package aggregate

import (
	"sort"

	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
)

// ArgMaxSum returns the row whose summed field is largest. On an exact tie
// the first-encountered row wins: which group that is for equal values is
// unspecified, but it is deterministic for a fixed input order.
func ArgMaxSum(rows []Row, field string) (Row, error) {
	if len(rows) == 0 {
		return Row{}, pkgerrors.New(pkgerrors.CodeEmptyInput, "argmax over zero groups").
			WithDetails(map[string]any{"field": field})
	}

	best := rows[0]
	bestValue, ok := best.Sums[field]
	if !ok {
		return Row{}, missingSumField(field)
	}
	for _, row := range rows[1:] {
		value, ok := row.Sums[field]
		if !ok {
			return Row{}, missingSumField(field)
		}
		if value.GreaterThan(bestValue) {
			best = row
			bestValue = value
		}
	}
	return best, nil
}

// SortBySumDesc returns the rows ordered by the summed field, largest first.
// The sort is stable so ties keep their first-encounter order.
func SortBySumDesc(rows []Row, field string) ([]Row, error) {
	out := make([]Row, len(rows))
	copy(out, rows)
	for _, row := range out {
		if _, ok := row.Sums[field]; !ok {
			return nil, missingSumField(field)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sums[field].GreaterThan(out[j].Sums[field])
	})
	return out, nil
}

func missingSumField(field string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "field was not summed by the aggregation").
		WithDetails(map[string]any{"field": field})
}
