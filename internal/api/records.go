package api

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin/binding"
	"go.uber.org/multierr"

	"frauddetect/internal/apperr"
	"frauddetect/internal/data"
)

// predictColumns must be present as keys in every /predict and /explain record.
var predictColumns = []string{
	data.ColTransactionID, data.ColTimestamp, data.ColMerchantID, data.ColAmount,
	data.ColCustomerID, data.ColTransactionAmount, data.ColAnomalyScore, data.ColCategory,
	data.ColCustomerAge, data.ColAccountBalance, data.ColSuspiciousFlag, data.ColLastLogin,
}

// logColumns must be present in every /log record.
var logColumns = []string{data.ColTransactionID, data.ColAmount, data.ColTimestamp, data.ColMerchantID}

var (
	errEmptyBody = errors.New("request body must be a JSON object or a non-empty array of objects")
	errBadJSON   = errors.New("invalid json")
)

// decodeRecords accepts a single JSON object or an array of objects and
// decodes through gin's JSON binding.
func decodeRecords(body []byte) ([]map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	var recs []map[string]any
	if body[0] == '[' {
		if err := binding.JSON.BindBody(body, &recs); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadJSON, err)
		}
	} else {
		var one map[string]any
		if err := binding.JSON.BindBody(body, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadJSON, err)
		}
		recs = []map[string]any{one}
	}
	if len(recs) == 0 {
		return nil, errEmptyBody
	}
	return recs, nil
}

// requireKeys reports every required key absent from any record, once per key.
func requireKeys(recs []map[string]any, cols []string) error {
	var err error
	for _, col := range cols {
		for _, r := range recs {
			if _, ok := r[col]; !ok {
				err = multierr.Append(err, &apperr.SchemaError{Column: col})
				break
			}
		}
	}
	return err
}

// toTransaction converts one decoded record. row is 1-based for error messages.
// JSON null in a numeric field counts as missing.
func toTransaction(r map[string]any, row int) (data.Transaction, error) {
	tx := data.Transaction{
		TransactionID:    str(r[data.ColTransactionID]),
		MerchantID:       str(r[data.ColMerchantID]),
		CustomerID:       str(r[data.ColCustomerID]),
		MerchantName:     str(r[data.ColMerchantName]),
		MerchantLocation: str(r[data.ColMerchantLocation]),
		CustomerName:     str(r[data.ColCustomerName]),
		CustomerAddress:  str(r[data.ColCustomerAddress]),
		Timestamp:        str(r[data.ColTimestamp]),
		LastLogin:        str(r[data.ColLastLogin]),
		Category:         str(r[data.ColCategory]),
	}
	nums := map[string]*float64{
		data.ColAmount:            &tx.Amount,
		data.ColTransactionAmount: &tx.TransactionAmount,
		data.ColAnomalyScore:      &tx.AnomalyScore,
		data.ColCustomerAge:       &tx.CustomerAge,
		data.ColAccountBalance:    &tx.AccountBalance,
		data.ColSuspiciousFlag:    &tx.SuspiciousFlag,
	}
	for _, col := range data.NumericColumns {
		v, err := num(col, r[col], row)
		if err != nil {
			return tx, err
		}
		*nums[col] = v
	}
	return tx, nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func num(col string, v any, row int) (float64, error) {
	switch t := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return t, nil
	case string:
		return data.ParseNumeric(col, t, row)
	default:
		return 0, &apperr.ParseError{Column: col, Row: row, Value: fmt.Sprint(t), Err: errors.New("not a number")}
	}
}
