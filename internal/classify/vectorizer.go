// Package classify maps free-text expense descriptions to budget category
// names using a pre-trained bag-of-words vectorizer and linear classifier.
// Both artifacts are fitted offline, exported as JSON, and loaded once at
// process start; all state is read-only after load.
package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"
)

// FeatureVector is a sparse TF-IDF vector keyed by vocabulary index.
type FeatureVector map[int]float64

// Vectorizer turns a description into a FeatureVector using the vocabulary
// and IDF weights fixed at training time.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

type vectorizerArtifact struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// LoadVectorizer reads a fitted vectorizer artifact. Any failure here is
// fatal for the caller: the process must not serve requests without it.
func LoadVectorizer(path string) (*Vectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer artifact: %w", err)
	}

	var artifact vectorizerArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode vectorizer artifact: %w", err)
	}

	return NewVectorizer(artifact.Vocabulary, artifact.IDF)
}

// NewVectorizer builds a vectorizer from an already-decoded vocabulary and
// IDF table, validating that every vocabulary index has an IDF weight.
func NewVectorizer(vocabulary map[string]int, idf []float64) (*Vectorizer, error) {
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}
	for token, idx := range vocabulary {
		if idx < 0 || idx >= len(idf) {
			return nil, fmt.Errorf("token %q has index %d outside idf table of size %d", token, idx, len(idf))
		}
	}

	return &Vectorizer{vocabulary: vocabulary, idf: idf}, nil
}

// Dimension returns the size of the fitted feature space.
func (v *Vectorizer) Dimension() int {
	return len(v.idf)
}

// Vectorize computes the L2-normalized TF-IDF vector for text. Unknown
// tokens are dropped; empty or fully unknown text yields an empty vector.
func (v *Vectorizer) Vectorize(text string) FeatureVector {
	vec := make(FeatureVector)

	for _, token := range tokenize(text) {
		idx, ok := v.vocabulary[token]
		if !ok {
			continue
		}
		vec[idx] += v.idf[idx]
	}

	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx, w := range vec {
			vec[idx] = w / norm
		}
	}

	return vec
}

// tokenize mirrors the training-side analyzer: lowercase alphanumeric runs,
// single-character tokens dropped.
func tokenize(text string) []string {
	var tokens []string

	for _, run := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(run) >= 2 {
			tokens = append(tokens, run)
		}
	}

	return tokens
}
