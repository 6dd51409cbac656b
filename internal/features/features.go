package features

import (
	"errors"
	"math"
	"strings"
	"time"

	"frauddetect/internal/apperr"
	"frauddetect/internal/data"
)

// Derived column names.
const (
	ColGap     = "gap"
	ColHour    = "Hour"
	ColDay     = "Day"
	ColMonth   = "Month"
	ColWeekday = "Weekday"
	ColYear    = "Year"
)

var columns = []string{
	data.ColAmount, data.ColTransactionAmount, data.ColAnomalyScore, data.ColCategory,
	data.ColCustomerAge, data.ColAccountBalance, data.ColSuspiciousFlag,
	ColGap, ColHour, ColDay, ColMonth, ColWeekday, ColYear,
}

// Columns returns the feature-column order of every matrix built here.
func Columns() []string { return append([]string(nil), columns...) }

// ColumnIndex returns the position of name in Columns, or -1.
func ColumnIndex(name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a timezone-naive wall-clock instant.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range timeLayouts {
		var ts time.Time
		ts, err = time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// GapDays is the absolute difference in calendar days between a and b.
func GapDays(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(math.Round(da.Sub(db).Hours() / 24))
	if d < 0 {
		d = -d
	}
	return d
}

// Weekday counts from Monday = 0.
func Weekday(t time.Time) int { return (int(t.Weekday()) + 6) % 7 }

// Vectorize turns one transaction into a feature row in Columns order.
// row is the 1-based data row used in error messages. Missing numerics stay NaN.
func Vectorize(tx data.Transaction, enc *LabelEncoder, row int) ([]float64, error) {
	ts, err := ParseTimestamp(tx.Timestamp)
	if err != nil {
		return nil, &apperr.ParseError{Column: data.ColTimestamp, Row: row, Value: tx.Timestamp, Err: err}
	}
	ll, err := ParseTimestamp(tx.LastLogin)
	if err != nil {
		return nil, &apperr.ParseError{Column: data.ColLastLogin, Row: row, Value: tx.LastLogin, Err: err}
	}
	code, err := enc.Encode(tx.Category)
	if err != nil {
		return nil, err
	}
	return []float64{
		tx.Amount,
		tx.TransactionAmount,
		tx.AnomalyScore,
		float64(code),
		tx.CustomerAge,
		tx.AccountBalance,
		tx.SuspiciousFlag,
		float64(GapDays(ts, ll)),
		float64(ts.Hour()),
		float64(ts.Day()),
		float64(ts.Month()),
		float64(Weekday(ts)),
		float64(ts.Year()),
	}, nil
}

// Builder drops identifiers, derives temporal features and encodes Category.
type Builder struct {
	Encoder *LabelEncoder
}

// NewBuilder returns a builder around a recorded vocabulary; pass nil to fit one.
func NewBuilder(classes []string) *Builder {
	if classes == nil {
		return &Builder{}
	}
	return &Builder{Encoder: NewLabelEncoder(classes)}
}

// Fit snapshots the Category vocabulary.
func (b *Builder) Fit(txs []data.Transaction) {
	cats := make([]string, len(txs))
	for i := range txs {
		cats[i] = txs[i].Category
	}
	b.Encoder = &LabelEncoder{}
	b.Encoder.Fit(cats)
}

// FitTransform fits the encoder and builds the training matrix. A numeric
// column with no value in any row is rejected before the remaining gaps are
// filled with 0.
func (b *Builder) FitTransform(txs []data.Transaction) ([][]float64, []int, error) {
	if len(txs) == 0 {
		return nil, nil, &apperr.DataQualityError{Reason: "empty dataset"}
	}
	for _, col := range data.NumericColumns {
		missing := 0
		for i := range txs {
			if math.IsNaN(txs[i].Numeric(col)) {
				missing++
			}
		}
		if missing == len(txs) {
			return nil, nil, &apperr.DataQualityError{Column: col, Reason: "all values missing"}
		}
	}
	b.Fit(txs)
	return b.Transform(txs)
}

// Transform builds X and y with the recorded encoder.
func (b *Builder) Transform(txs []data.Transaction) ([][]float64, []int, error) {
	if b.Encoder == nil {
		return nil, nil, errors.New("features: builder used before Fit")
	}
	X := make([][]float64, len(txs))
	y := make([]int, len(txs))
	for i := range txs {
		v, err := Vectorize(txs[i], b.Encoder, i+1)
		if err != nil {
			return nil, nil, err
		}
		for j := range v {
			if math.IsNaN(v[j]) {
				v[j] = 0
			}
		}
		X[i] = v
		y[i] = txs[i].FraudIndicator
	}
	return X, y, nil
}
