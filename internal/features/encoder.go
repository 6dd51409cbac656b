package features

import (
	"fmt"
	"sort"

	"frauddetect/internal/apperr"
)

// LabelEncoder maps category strings to 0..K-1 in lexicographic order of
// the values seen at fit time. Classes stays sorted; once fit the encoder is
// only read, so a restored encoder can be shared between goroutines.
type LabelEncoder struct {
	Classes []string
}

// NewLabelEncoder restores an encoder from a recorded vocabulary.
func NewLabelEncoder(classes []string) *LabelEncoder {
	le := &LabelEncoder{Classes: append([]string(nil), classes...)}
	sort.Strings(le.Classes)
	return le
}

// Fit records the sorted distinct values.
func (le *LabelEncoder) Fit(values []string) {
	seen := map[string]struct{}{}
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	le.Classes = classes
}

// Encode returns the code of v or an EncodingError when v was never seen.
func (le *LabelEncoder) Encode(v string) (int, error) {
	i := sort.SearchStrings(le.Classes, v)
	if i == len(le.Classes) || le.Classes[i] != v {
		return 0, &apperr.EncodingError{Column: "Category", Value: v}
	}
	return i, nil
}

// Decode returns the category for code.
func (le *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(le.Classes) {
		return "", fmt.Errorf("decode: code %d out of range [0,%d)", code, len(le.Classes))
	}
	return le.Classes[code], nil
}
