package classify

import (
	"encoding/json"
	"fmt"
	"os"
)

// Model is a pre-trained linear classifier over TF-IDF features. It is
// consumed as a black box: one weight row and bias per class, prediction by
// highest score. Inference is deterministic; ties resolve to the class
// listed first in the artifact.
type Model struct {
	classes []int
	weights [][]float64
	bias    []float64
}

type modelArtifact struct {
	Classes []int       `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// LoadModel reads a fitted classifier artifact. Failures are fatal for the
// caller, same as LoadVectorizer.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}

	return NewModel(artifact.Classes, artifact.Weights, artifact.Bias)
}

// NewModel validates artifact shapes and builds a ready-to-use classifier.
func NewModel(classes []int, weights [][]float64, bias []float64) (*Model, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("model has no classes")
	}
	if len(weights) != len(classes) {
		return nil, fmt.Errorf("weight rows (%d) do not match classes (%d)", len(weights), len(classes))
	}
	if len(bias) != len(classes) {
		return nil, fmt.Errorf("bias entries (%d) do not match classes (%d)", len(bias), len(classes))
	}
	dim := len(weights[0])
	for i, row := range weights {
		if len(row) != dim {
			return nil, fmt.Errorf("weight row %d has %d features, expected %d", i, len(row), dim)
		}
	}

	return &Model{classes: classes, weights: weights, bias: bias}, nil
}

// Dimension returns the feature-space size the model was trained on.
func (m *Model) Dimension() int {
	return len(m.weights[0])
}

// Predict returns the class id with the highest linear score for vec.
// Feature indices outside the trained dimension are ignored.
func (m *Model) Predict(vec FeatureVector) int {
	best := 0
	bestScore := m.score(0, vec)

	for i := 1; i < len(m.classes); i++ {
		if s := m.score(i, vec); s > bestScore {
			best = i
			bestScore = s
		}
	}

	return m.classes[best]
}

func (m *Model) score(class int, vec FeatureVector) float64 {
	row := m.weights[class]
	score := m.bias[class]
	for idx, w := range vec {
		if idx < len(row) {
			score += row[idx] * w
		}
	}
	return score
}
