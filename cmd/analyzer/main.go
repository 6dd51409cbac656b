package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"frauddetect/internal/artifact"
	"frauddetect/internal/data"
	"frauddetect/internal/explain"
	"frauddetect/internal/inference"
)

func main() {
	model := flag.String("model", "models/fraud_rf.bin", "Artifact to explain")
	dataPath := flag.String("data", "data/transactions.csv", "Input CSV")
	rows := flag.Int("rows", 100, "Leading rows to explain")
	outImg := flag.String("out_img", "cmd/api/static/summary.png", "Summary plot PNG")
	outCsv := flag.String("out_csv", "data/feature_importance.csv", "Mean |contribution| per feature")
	show := flag.Int("show", 3, "Per-row explanations to print")
	flag.Parse()

	a, err := artifact.Load(*model)
	if err != nil {
		fmt.Println("Failed to load model:", err)
		os.Exit(1)
	}
	pr, err := inference.New(a)
	if err != nil {
		fmt.Println("Model rejected:", err)
		os.Exit(1)
	}
	txs, err := data.LoadCSV(*dataPath)
	if err != nil {
		fmt.Println("Failed to read dataset:", err)
		os.Exit(1)
	}
	if *rows > 0 && len(txs) > *rows {
		txs = txs[:*rows]
	}
	X, err := pr.Preprocess(txs)
	if err != nil {
		fmt.Println("Preprocessing failed:", err)
		os.Exit(1)
	}

	attr, _ := explain.Contributions(a.Forest, X)
	imp := explain.MeanAbs(a.FeatureColumns, attr)
	fmt.Printf("Model %s | strategy=%s | rows=%d\n", a.Params, a.Strategy, len(X))
	for _, v := range imp {
		fmt.Printf("%-18s %.5f\n", v.Feature, v.Value)
	}

	for i, e := range pr.Explain(X[:min(*show, len(X))]) {
		fmt.Printf("row %d | %s | p=%.3f | bias=%.3f | top=%s (%+.3f)\n",
			i+1, e.Prediction, e.Probability, e.Bias, e.Contributions[0].Feature, e.Contributions[0].Value)
	}

	if err := writeCSV(*outCsv, imp); err != nil {
		fmt.Println("Failed to save CSV:", err)
	} else {
		fmt.Println("Importance saved to:", *outCsv)
	}
	if err := explain.SummaryPlot(*outImg, a.FeatureColumns, attr); err != nil {
		fmt.Println("Failed to save PNG:", err)
	} else {
		fmt.Println("Plot saved to:", *outImg)
	}
}

func writeCSV(path string, imp []explain.Importance) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"feature", "mean_abs_contribution"}); err != nil {
		return err
	}
	for _, v := range imp {
		if err := w.Write([]string{v.Feature, fmt.Sprintf("%.6f", v.Value)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
