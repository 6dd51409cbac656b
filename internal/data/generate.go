package data

import (
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var categories = []string{"Food", "Online", "Other", "Retail", "Travel"}
var cities = []string{"Lisbon", "Porto", "Austin", "Denver", "Leeds", "Lyon", "Osaka"}
var streets = []string{"Main St", "Oak Ave", "Pine Rd", "Elm St", "Harbor Way"}

// TimestampLayout is the wall-clock layout used in generated files.
const TimestampLayout = "2006-01-02 15:04:05"

// GenerateSyntheticTransactions writes n labelled transactions to outPath.
// Fraud is rare (roughly fraudRate plus the signal from the risky features)
// and driven by AnomalyScore, Amount, SuspiciousFlag and the login gap, so
// the classifier has something to learn. The output is a pure function of seed.
func GenerateSyntheticTransactions(n int, fraudRate float64, seed int64, outPath string) error {
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(RequiredColumns); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	span := 2 * 365 * 24 * time.Hour

	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(rng.Int63n(int64(span))))
		ts = ts.Truncate(time.Second)
		gapDays := rng.Intn(30)
		if rng.Float64() < 0.1 {
			gapDays = 30 + rng.Intn(300)
		}
		lastLogin := ts.Add(-time.Duration(gapDays)*24*time.Hour - time.Duration(rng.Intn(86400))*time.Second)

		amount := rng.Float64()*990 + 10
		txAmount := amount * (0.9 + 0.2*rng.Float64())
		anomaly := rng.Float64()
		age := 18 + rng.Intn(60)
		balance := rng.Float64() * 10000
		suspicious := 0
		if rng.Float64() < 0.1 {
			suspicious = 1
		}
		cat := categories[rng.Intn(len(categories))]

		score := fraudRate
		if anomaly > 0.85 {
			score += 0.35
		}
		if amount > 800 {
			score += 0.2
		}
		if suspicious == 1 {
			score += 0.25
		}
		if gapDays > 200 {
			score += 0.15
		}
		fraud := 0
		if rng.Float64() < score*score*1.5 {
			fraud = 1
		}

		cust := rng.Intn(2000)
		merch := rng.Intn(300)
		rec := make([]string, 0, len(RequiredColumns))
		for _, col := range RequiredColumns {
			switch col {
			case ColTransactionID:
				rec = append(rec, strconv.Itoa(1+i))
			case ColTimestamp:
				rec = append(rec, ts.Format(TimestampLayout))
			case ColMerchantID:
				rec = append(rec, strconv.Itoa(2000+merch))
			case ColAmount:
				rec = append(rec, strconv.FormatFloat(amount, 'f', 2, 64))
			case ColCustomerID:
				rec = append(rec, strconv.Itoa(1000+cust))
			case ColTransactionAmount:
				rec = append(rec, strconv.FormatFloat(txAmount, 'f', 2, 64))
			case ColAnomalyScore:
				rec = append(rec, strconv.FormatFloat(anomaly, 'f', 6, 64))
			case ColCategory:
				rec = append(rec, cat)
			case ColCustomerAge:
				rec = append(rec, strconv.Itoa(age))
			case ColAccountBalance:
				rec = append(rec, strconv.FormatFloat(balance, 'f', 2, 64))
			case ColSuspiciousFlag:
				rec = append(rec, strconv.Itoa(suspicious))
			case ColLastLogin:
				rec = append(rec, lastLogin.Format(TimestampLayout))
			case ColMerchantName:
				rec = append(rec, "Merchant "+strconv.Itoa(merch))
			case ColMerchantLocation:
				rec = append(rec, cities[merch%len(cities)])
			case ColCustomerName:
				rec = append(rec, "Customer "+strconv.Itoa(cust))
			case ColCustomerAddress:
				rec = append(rec, strconv.Itoa(1+cust%500)+" "+streets[cust%len(streets)])
			case ColFraudIndicator:
				rec = append(rec, strconv.Itoa(fraud))
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
