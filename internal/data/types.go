package data

// Transaction is one row of the labelled transaction table. Numeric fields
// hold NaN when the source cell was empty. Timestamp and LastLogin are kept as
// the raw wall-clock strings; the feature builder parses them.
type Transaction struct {
	TransactionID     string  `json:"TransactionID" binding:"required"`
	MerchantID        string  `json:"MerchantID"`
	CustomerID        string  `json:"CustomerID"`
	MerchantName      string  `json:"MerchantName"`
	MerchantLocation  string  `json:"MerchantLocation"`
	CustomerName      string  `json:"CustomerName"`
	CustomerAddress   string  `json:"CustomerAddress"`
	Timestamp         string  `json:"Timestamp" binding:"required"`
	LastLogin         string  `json:"LastLogin" binding:"required"`
	Amount            float64 `json:"Amount"`
	TransactionAmount float64 `json:"TransactionAmount"`
	AnomalyScore      float64 `json:"AnomalyScore"`
	Category          string  `json:"Category" binding:"required"`
	CustomerAge       float64 `json:"CustomerAge" binding:"gte=0"`
	AccountBalance    float64 `json:"AccountBalance"`
	SuspiciousFlag    float64 `json:"SuspiciousFlag" binding:"gte=0,lte=1"`
	FraudIndicator    int     `json:"FraudIndicator"`
}

// Column names of the flat input file.
const (
	ColTransactionID     = "TransactionID"
	ColMerchantID        = "MerchantID"
	ColCustomerID        = "CustomerID"
	ColMerchantName      = "MerchantName"
	ColMerchantLocation  = "MerchantLocation"
	ColCustomerName      = "CustomerName"
	ColCustomerAddress   = "CustomerAddress"
	ColTimestamp         = "Timestamp"
	ColLastLogin         = "LastLogin"
	ColAmount            = "Amount"
	ColTransactionAmount = "TransactionAmount"
	ColAnomalyScore      = "AnomalyScore"
	ColCategory          = "Category"
	ColCustomerAge       = "CustomerAge"
	ColAccountBalance    = "AccountBalance"
	ColSuspiciousFlag    = "SuspiciousFlag"
	ColFraudIndicator    = "FraudIndicator"
)

// IdentifierColumns are dropped before modelling.
var IdentifierColumns = []string{
	ColTransactionID, ColMerchantID, ColCustomerID, ColMerchantName,
	ColMerchantLocation, ColCustomerName, ColCustomerAddress,
}

// RequiredColumns lists every column the loader insists on, in canonical file order.
var RequiredColumns = []string{
	ColTransactionID, ColTimestamp, ColMerchantID, ColAmount, ColCustomerID,
	ColTransactionAmount, ColAnomalyScore, ColCategory, ColCustomerAge,
	ColAccountBalance, ColSuspiciousFlag, ColLastLogin, ColMerchantName,
	ColMerchantLocation, ColCustomerName, ColCustomerAddress, ColFraudIndicator,
}

// NumericColumns are parsed strictly as float64.
var NumericColumns = []string{
	ColAmount, ColTransactionAmount, ColAnomalyScore,
	ColCustomerAge, ColAccountBalance, ColSuspiciousFlag,
}

// Numeric returns the value of a numeric column by name.
func (t *Transaction) Numeric(col string) float64 {
	switch col {
	case ColAmount:
		return t.Amount
	case ColTransactionAmount:
		return t.TransactionAmount
	case ColAnomalyScore:
		return t.AnomalyScore
	case ColCustomerAge:
		return t.CustomerAge
	case ColAccountBalance:
		return t.AccountBalance
	case ColSuspiciousFlag:
		return t.SuspiciousFlag
	}
	return 0
}

func (t *Transaction) setNumeric(col string, v float64) {
	switch col {
	case ColAmount:
		t.Amount = v
	case ColTransactionAmount:
		t.TransactionAmount = v
	case ColAnomalyScore:
		t.AnomalyScore = v
	case ColCustomerAge:
		t.CustomerAge = v
	case ColAccountBalance:
		t.AccountBalance = v
	case ColSuspiciousFlag:
		t.SuspiciousFlag = v
	}
}
