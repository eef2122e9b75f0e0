package classify

import (
	"fmt"
	"log/slog"
)

// Categorizer is what the rest of the application depends on: a single call
// from description text to category name.
type Categorizer interface {
	Categorize(description string) string
}

// Pipeline chains the fitted vectorizer and model and resolves the predicted
// class id to a category name. Safe for concurrent use: both artifacts are
// read-only after load.
type Pipeline struct {
	vectorizer *Vectorizer
	model      *Model
}

// LoadPipeline loads both artifacts and verifies they agree on the feature
// space. This runs once at startup; an error here must abort the process.
func LoadPipeline(vectorizerPath, modelPath string) (*Pipeline, error) {
	vectorizer, err := LoadVectorizer(vectorizerPath)
	if err != nil {
		return nil, fmt.Errorf("load vectorizer: %w", err)
	}

	model, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	return NewPipeline(vectorizer, model)
}

// NewPipeline wires an already-loaded vectorizer and model together.
func NewPipeline(vectorizer *Vectorizer, model *Model) (*Pipeline, error) {
	if vectorizer.Dimension() != model.Dimension() {
		return nil, fmt.Errorf("vectorizer dimension %d does not match model dimension %d",
			vectorizer.Dimension(), model.Dimension())
	}

	slog.Info("Classifier pipeline loaded",
		"vocabulary_size", vectorizer.Dimension(),
		"classes", len(model.classes))

	return &Pipeline{vectorizer: vectorizer, model: model}, nil
}

// Categorize predicts the category name for a description.
func (p *Pipeline) Categorize(description string) string {
	return CategoryName(p.model.Predict(p.vectorizer.Vectorize(description)))
}
