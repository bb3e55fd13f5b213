package classify

import (
	"math"
	"sort"

	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
)

// Quantile estimates the q-th quantile (0 ≤ q ≤ 1) of values using linear
// interpolation between order statistics: position = q·(n−1), interpolated
// between the surrounding sorted values. This matches the estimator the
// customer-tier thresholds were defined against.
func Quantile(values []float64, q float64) (float64, error) {
	if len(values) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeEmptyInput, "quantile over zero values")
	}
	if q < 0 || q > 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantile must be within [0, 1]").
			WithDetails(map[string]any{"q": q})
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower], nil
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), nil
}
