package artifact

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"frauddetect/internal/apperr"
	"frauddetect/internal/eval"
	"frauddetect/internal/features"
	"frauddetect/internal/models"
	"frauddetect/internal/tuning"
)

// Magic prefixes every artifact file; readers reject anything else.
const Magic = "FRAUD-RF-V1\n"

// Version is the payload schema version written after the magic.
const Version = 1

// Artifact is the trained forest plus everything needed to rebuild its inputs.
type Artifact struct {
	Version        int
	Strategy       string
	FeatureColumns []string
	Categories     []string
	ScalerMin      []float64
	ScalerMax      []float64
	Params         tuning.Params
	Forest         *models.RandomForest
	TestMetrics    eval.Metrics
	CreatedAt      time.Time
}

// Encoder rebuilds the category encoder recorded at training time.
func (a *Artifact) Encoder() *features.LabelEncoder {
	return features.NewLabelEncoder(a.Categories)
}

// Scaler rebuilds the fitted min-max scaler.
func (a *Artifact) Scaler() *features.MinMaxScaler {
	return &features.MinMaxScaler{Min: a.ScalerMin, Max: a.ScalerMax}
}

func (a *Artifact) check() error {
	switch {
	case a.Version != Version:
		return fmt.Errorf("payload version %d, want %d", a.Version, Version)
	case a.Forest == nil || len(a.Forest.Trees) == 0:
		return errors.New("no fitted forest")
	case len(a.FeatureColumns) == 0:
		return errors.New("no feature columns")
	case len(a.ScalerMin) != len(a.FeatureColumns) || len(a.ScalerMax) != len(a.FeatureColumns):
		return errors.New("scaler width does not match feature columns")
	}
	return nil
}

// Save writes a to a temporary file next to path and renames it into place,
// so readers see either the previous file or the complete new one.
func Save(path string, a *Artifact) error {
	if a.Version == 0 {
		a.Version = Version
	}
	if err := a.check(); err != nil {
		return &apperr.ArtifactError{Path: path, Reason: "refusing to save", Err: err}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &apperr.ArtifactError{Path: path, Reason: "create directory", Err: err}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &apperr.ArtifactError{Path: path, Reason: "create temp file", Err: err}
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if _, err := w.WriteString(Magic); err != nil {
		tmp.Close()
		return &apperr.ArtifactError{Path: path, Reason: "write", Err: err}
	}
	if err := gob.NewEncoder(w).Encode(a); err != nil {
		tmp.Close()
		return &apperr.ArtifactError{Path: path, Reason: "encode", Err: err}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return &apperr.ArtifactError{Path: path, Reason: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &apperr.ArtifactError{Path: path, Reason: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &apperr.ArtifactError{Path: path, Reason: "close", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &apperr.ArtifactError{Path: path, Reason: "rename", Err: err}
	}
	return nil
}

// Load reads and validates an artifact written by Save.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &apperr.ArtifactError{Path: path, Reason: "open", Err: err}
	}
	defer f.Close()
	a, err := Read(bufio.NewReader(f))
	if err != nil {
		var ae *apperr.ArtifactError
		if errors.As(err, &ae) {
			ae.Path = path
		}
		return nil, err
	}
	return a, nil
}

// Read decodes an artifact from r.
func Read(r io.Reader) (*Artifact, error) {
	head := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, &apperr.ArtifactError{Reason: "truncated header", Err: err}
	}
	if !bytes.Equal(head, []byte(Magic)) {
		return nil, &apperr.ArtifactError{Reason: fmt.Sprintf("bad magic %q", head)}
	}
	var a Artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, &apperr.ArtifactError{Reason: "corrupt payload", Err: err}
	}
	if err := a.check(); err != nil {
		return nil, &apperr.ArtifactError{Reason: "invalid payload", Err: err}
	}
	return &a, nil
}
