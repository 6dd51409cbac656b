package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"frauddetect/internal/apperr"
)

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	txs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return txs, nil
}

// ReadCSV parses a comma-separated table with a header row. Every required
// column must be present; all missing columns are reported together as
// SchemaErrors. Numeric cells are parsed strictly, an empty numeric cell
// becomes NaN. Rows keep file order.
func ReadCSV(r io.Reader) ([]Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &apperr.SchemaError{Column: RequiredColumns[0]}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var schemaErr error
	for _, col := range RequiredColumns {
		if _, ok := pos[col]; !ok {
			schemaErr = multierr.Append(schemaErr, &apperr.SchemaError{Column: col})
		}
	}
	if schemaErr != nil {
		return nil, schemaErr
	}

	var out []Transaction
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		tx, err := parseRow(row, pos, rowNum)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func parseRow(row []string, pos map[string]int, rowNum int) (Transaction, error) {
	cell := func(col string) string { return strings.TrimSpace(row[pos[col]]) }
	tx := Transaction{
		TransactionID:    cell(ColTransactionID),
		MerchantID:       cell(ColMerchantID),
		CustomerID:       cell(ColCustomerID),
		MerchantName:     cell(ColMerchantName),
		MerchantLocation: cell(ColMerchantLocation),
		CustomerName:     cell(ColCustomerName),
		CustomerAddress:  cell(ColCustomerAddress),
		Timestamp:        cell(ColTimestamp),
		LastLogin:        cell(ColLastLogin),
		Category:         cell(ColCategory),
	}
	for _, col := range NumericColumns {
		v, err := ParseNumeric(col, cell(col), rowNum)
		if err != nil {
			return tx, err
		}
		tx.setNumeric(col, v)
	}
	label := cell(ColFraudIndicator)
	switch label {
	case "0", "0.0":
		tx.FraudIndicator = 0
	case "1", "1.0":
		tx.FraudIndicator = 1
	default:
		return tx, &apperr.ParseError{Column: ColFraudIndicator, Row: rowNum, Value: label}
	}
	return tx, nil
}

// ParseNumeric parses one numeric cell. Empty means missing and yields NaN.
func ParseNumeric(col, s string, rowNum int) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &apperr.ParseError{Column: col, Row: rowNum, Value: s, Err: err}
	}
	return v, nil
}
