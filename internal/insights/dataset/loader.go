package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/ventas-insights/pkg/errors"
)

// Source CSV column names. The upstream export uses Spanish headers.
const (
	ColSaleDate   = "fecha_venta"
	ColCustomerID = "cliente_id"
	ColProduct    = "producto"
	ColCategory   = "categoria_producto"
	ColQuantity   = "cantidad_vendida"
	ColUnitPrice  = "precio_unitario"
	ColUnitCost   = "coste_unitario"
	ColCountry    = "pais"
)

// DefaultDateLayout is the only accepted sale date layout (ISO-8601 date).
const DefaultDateLayout = "2006-01-02"

var requiredColumns = []string{
	ColSaleDate,
	ColCustomerID,
	ColProduct,
	ColCategory,
	ColQuantity,
	ColUnitPrice,
	ColUnitCost,
	ColCountry,
}

// Loader parses the raw sales CSV into a canonical Table. Monetary columns
// are rounded half-up to 2 decimal places here, exactly once; incomplete rows
// and exact duplicates are dropped.
type Loader struct {
	dateLayout string
}

// NewLoader builds a loader. An empty layout selects DefaultDateLayout.
func NewLoader(dateLayout string) *Loader {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Loader{dateLayout: dateLayout}
}

// LoadFile reads and normalizes the CSV at path.
func (l *Loader) LoadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDataFormat, err, "opening dataset").
			WithDetails(map[string]any{"path": path})
	}
	defer file.Close()
	return l.Load(file)
}

// Load reads and normalizes CSV rows from r. Any unparsable cell aborts the
// load; no partial table is ever returned.
func (l *Loader) Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDataFormat, err, "reading header row")
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var (
		rows     []Transaction
		seen     = make(map[string]struct{})
		parseErr error
		line     = 1
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDataFormat, err, fmt.Sprintf("reading row %d", line))
		}

		if incomplete(record, index) {
			continue
		}

		dedupeKey := strings.Join(record, "\x1f")
		if _, dup := seen[dedupeKey]; dup {
			continue
		}
		seen[dedupeKey] = struct{}{}

		tx, err := l.parseRow(record, index)
		if err != nil {
			parseErr = multierr.Append(parseErr, fmt.Errorf("row %d: %w", line, err))
			continue
		}
		rows = append(rows, tx)
	}

	if parseErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDataType, parseErr, "parsing dataset rows")
	}

	return NewTable(rows), nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDataFormat, "required columns missing").
			WithDetails(map[string]any{"columns": missing})
	}
	return index, nil
}

// incomplete reports whether any required cell is empty. Mirrors the
// upstream cleaning step that drops rows with missing values.
func incomplete(record []string, index map[string]int) bool {
	for _, col := range requiredColumns {
		i := index[col]
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return true
		}
	}
	return false
}

func (l *Loader) parseRow(record []string, index map[string]int) (Transaction, error) {
	cell := func(col string) string {
		return strings.TrimSpace(record[index[col]])
	}

	saleDate, err := parseDate(cell(ColSaleDate), l.dateLayout)
	if err != nil {
		return Transaction{}, err
	}

	quantity, err := strconv.Atoi(cell(ColQuantity))
	if err != nil {
		return Transaction{}, fmt.Errorf("column %s: %w", ColQuantity, err)
	}
	if quantity < 0 {
		return Transaction{}, fmt.Errorf("column %s: negative quantity %d", ColQuantity, quantity)
	}

	unitPrice, err := parseMoney(cell(ColUnitPrice), ColUnitPrice)
	if err != nil {
		return Transaction{}, err
	}
	unitCost, err := parseMoney(cell(ColUnitCost), ColUnitCost)
	if err != nil {
		return Transaction{}, err
	}

	return Transaction{
		SaleDate:   saleDate,
		CustomerID: cell(ColCustomerID),
		Product:    cell(ColProduct),
		Category:   cell(ColCategory),
		Country:    cell(ColCountry),
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		UnitCost:   unitCost,
	}, nil
}

func parseDate(value, layout string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", ColSaleDate, err)
	}
	return t, nil
}

// parseMoney parses a non-negative monetary cell and rounds it half-up to 2
// decimal places. This is the single rounding point of the pipeline.
func parseMoney(value, col string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("column %s: %w", col, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("column %s: negative amount %s", col, d)
	}
	return d.Round(2), nil
}
