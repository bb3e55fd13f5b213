package aggregate

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ventas-insights/internal/insights/dataset"
	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
)

// Field names accepted as grouping keys and reduction targets.
const (
	FieldSaleDate   = "sale_date"
	FieldMonth      = "month"
	FieldCustomerID = "customer_id"
	FieldProduct    = "product"
	FieldCategory   = "category"
	FieldCountry    = "country"
	FieldQuantity   = "quantity"
	FieldRevenue    = "revenue"
	FieldCost       = "cost"
	FieldProfit     = "profit"
)

// Kind selects how a field is reduced within a group.
type Kind string

const (
	Sum           Kind = "sum"
	Count         Kind = "count"
	DistinctCount Kind = "distinct_count"
)

// Reduction pairs a field with its reduction kind.
type Reduction struct {
	Field string
	Kind  Kind
}

// Spec describes one grouping pass: an ordered list of grouping keys plus the
// reductions to apply per group.
type Spec struct {
	GroupKeys  []string
	Reductions []Reduction
}

// Row is one group of the aggregation result. Keys is aligned with the spec's
// GroupKeys order. Rows are ephemeral: recomputed per query, never cached.
type Row struct {
	Keys     []string
	Sums     map[string]decimal.Decimal
	Counts   map[string]int
	Distinct map[string]int
}

// Key returns the i-th grouping key value of the row.
func (r Row) Key(i int) string {
	if i < 0 || i >= len(r.Keys) {
		return ""
	}
	return r.Keys[i]
}

type group struct {
	keys     []string
	sums     map[string]decimal.Decimal
	counts   map[string]int
	distinct map[string]map[string]struct{}
}

// Apply groups the derived rows by the spec's keys and reduces them. Output
// rows preserve first-encounter order of the groups, which keeps results
// deterministic for a fixed input ordering. Groups of size 1 are fine.
func Apply(rows []dataset.Enriched, spec Spec) ([]Row, error) {
	if len(spec.GroupKeys) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one grouping key required")
	}

	groups := make(map[string]*group)
	var order []string

	for _, row := range rows {
		keys := make([]string, len(spec.GroupKeys))
		for i, field := range spec.GroupKeys {
			value, err := keyValue(row, field)
			if err != nil {
				return nil, err
			}
			keys[i] = value
		}
		groupKey := strings.Join(keys, "\x1f")

		g, ok := groups[groupKey]
		if !ok {
			g = &group{
				keys:     keys,
				sums:     make(map[string]decimal.Decimal),
				counts:   make(map[string]int),
				distinct: make(map[string]map[string]struct{}),
			}
			groups[groupKey] = g
			order = append(order, groupKey)
		}

		for _, red := range spec.Reductions {
			switch red.Kind {
			case Sum:
				value, err := numericValue(row, red.Field)
				if err != nil {
					return nil, err
				}
				g.sums[red.Field] = g.sums[red.Field].Add(value)
			case Count:
				g.counts[red.Field]++
			case DistinctCount:
				value, err := keyValue(row, red.Field)
				if err != nil {
					return nil, err
				}
				set, ok := g.distinct[red.Field]
				if !ok {
					set = make(map[string]struct{})
					g.distinct[red.Field] = set
				}
				set[value] = struct{}{}
			default:
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown reduction kind").
					WithDetails(map[string]any{"kind": string(red.Kind)})
			}
		}
	}

	out := make([]Row, 0, len(order))
	for _, groupKey := range order {
		g := groups[groupKey]
		row := Row{
			Keys:     g.keys,
			Sums:     g.sums,
			Counts:   g.counts,
			Distinct: make(map[string]int, len(g.distinct)),
		}
		for field, set := range g.distinct {
			row.Distinct[field] = len(set)
		}
		out = append(out, row)
	}
	return out, nil
}

func keyValue(row dataset.Enriched, field string) (string, error) {
	switch field {
	case FieldSaleDate:
		return row.SaleDate.Format(dataset.DefaultDateLayout), nil
	case FieldMonth:
		return strconv.Itoa(row.Month), nil
	case FieldCustomerID:
		return row.CustomerID, nil
	case FieldProduct:
		return row.Product, nil
	case FieldCategory:
		return row.Category, nil
	case FieldCountry:
		return row.Country, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown grouping field").
			WithDetails(map[string]any{"field": field})
	}
}

func numericValue(row dataset.Enriched, field string) (decimal.Decimal, error) {
	switch field {
	case FieldQuantity:
		return decimal.NewFromInt(int64(row.Quantity)), nil
	case FieldRevenue:
		return row.Revenue, nil
	case FieldCost:
		return row.Cost, nil
	case FieldProfit:
		return row.Profit, nil
	default:
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown numeric field").
			WithDetails(map[string]any{"field": field})
	}
}
