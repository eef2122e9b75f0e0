package classify

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"finch/internal/core"
)

func testVectorizer(t *testing.T) *Vectorizer {
	t.Helper()
	v, err := NewVectorizer(map[string]int{
		"coffee":   0,
		"bus":      1,
		"ticket":   2,
		"electric": 3,
		"bill":     4,
	}, []float64{1.2, 1.0, 1.0, 1.5, 1.1})
	if err != nil {
		t.Fatalf("NewVectorizer: %v", err)
	}
	return v
}

func testModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(
		[]int{3, 12, 14},
		[][]float64{
			{2.0, -1.0, -1.0, -1.0, -1.0}, // Food_Drinks: coffee
			{-1.0, 2.0, 2.0, -1.0, -1.0},  // Transportation: bus, ticket
			{-1.0, -1.0, -1.0, 2.0, 2.0},  // Utilities: electric, bill
		},
		[]float64{0.1, 0.0, 0.0},
	)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func TestCategoryNameTable(t *testing.T) {
	want := map[int]string{
		1: "Entertainment", 2: "Finance", 3: "Food_Drinks",
		4: "Health", 5: "Health", 6: "Housing", 7: "Insurance",
		8: "Lifestyle", 9: "Loans", 10: "Shopping",
		11: "Technology", 12: "Transportation", 13: "Travel", 14: "Utilities",
	}
	for id, name := range want {
		if got := CategoryName(id); got != name {
			t.Errorf("CategoryName(%d) = %q, want %q", id, got, name)
		}
	}
	for _, id := range []int{0, -1, 15, 100} {
		if got := CategoryName(id); got != core.Uncategorized {
			t.Errorf("CategoryName(%d) = %q, want %q", id, got, core.Uncategorized)
		}
	}
}

func TestCategoriesDistinct(t *testing.T) {
	names := Categories()
	// 14 ids collapse into 13 names because 4 and 5 share Health.
	if len(names) != 13 {
		t.Fatalf("expected 13 distinct categories, got %d: %v", len(names), names)
	}
	if names[0] != "Entertainment" || names[len(names)-1] != "Utilities" {
		t.Fatalf("unexpected ordering: %v", names)
	}
}

func TestVectorizeNormalized(t *testing.T) {
	v := testVectorizer(t)

	vec := v.Vectorize("Coffee and a bus ticket")
	if len(vec) != 3 {
		t.Fatalf("expected 3 active features, got %d: %v", len(vec), vec)
	}

	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if math.Abs(norm-1.0) > 1e-9 {
		t.Fatalf("vector not L2-normalized: |v|^2 = %f", norm)
	}
}

func TestVectorizeEmptyAndUnknown(t *testing.T) {
	v := testVectorizer(t)

	if vec := v.Vectorize(""); len(vec) != 0 {
		t.Fatalf("empty text should yield empty vector, got %v", vec)
	}
	if vec := v.Vectorize("zzz qqq!!"); len(vec) != 0 {
		t.Fatalf("unknown tokens should yield empty vector, got %v", vec)
	}
	// Single-character runs are dropped by the analyzer.
	if vec := v.Vectorize("a coffee"); len(vec) != 1 {
		t.Fatalf("expected only the coffee feature, got %v", vec)
	}
}

func TestPredict(t *testing.T) {
	v := testVectorizer(t)
	m := testModel(t)

	cases := map[string]int{
		"Morning coffee":     3,
		"bus ticket to town": 12,
		"electric bill":      14,
	}
	for text, want := range cases {
		if got := m.Predict(v.Vectorize(text)); got != want {
			t.Errorf("Predict(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	v := testVectorizer(t)
	m := testModel(t)

	for _, text := range []string{"Morning coffee", "electric bill", "something unseen", ""} {
		first := m.Predict(v.Vectorize(text))
		for i := 0; i < 10; i++ {
			if got := m.Predict(v.Vectorize(text)); got != first {
				t.Fatalf("Predict(%q) not deterministic: %d then %d", text, first, got)
			}
		}
	}
}

func TestPredictTieBreak(t *testing.T) {
	// Identical rows and biases: the first listed class must win.
	m, err := NewModel(
		[]int{7, 2},
		[][]float64{{1, 1}, {1, 1}},
		[]float64{0, 0},
	)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if got := m.Predict(FeatureVector{0: 0.5, 1: 0.5}); got != 7 {
		t.Fatalf("tie should resolve to first class, got %d", got)
	}
}

func TestNewModelShapeValidation(t *testing.T) {
	if _, err := NewModel(nil, nil, nil); err == nil {
		t.Error("expected error for empty class list")
	}
	if _, err := NewModel([]int{1, 2}, [][]float64{{1}}, []float64{0, 0}); err == nil {
		t.Error("expected error for weight row count mismatch")
	}
	if _, err := NewModel([]int{1}, [][]float64{{1}}, []float64{}); err == nil {
		t.Error("expected error for bias length mismatch")
	}
	if _, err := NewModel([]int{1, 2}, [][]float64{{1, 2}, {1}}, []float64{0, 0}); err == nil {
		t.Error("expected error for ragged weight rows")
	}
}

func TestNewVectorizerValidation(t *testing.T) {
	if _, err := NewVectorizer(nil, nil); err == nil {
		t.Error("expected error for empty vocabulary")
	}
	if _, err := NewVectorizer(map[string]int{"coffee": 3}, []float64{1.0}); err == nil {
		t.Error("expected error for index outside idf table")
	}
}

func TestLoadPipelineFromArtifacts(t *testing.T) {
	p, err := LoadPipeline(
		filepath.Join("testdata", "vectorizer.json"),
		filepath.Join("testdata", "model.json"),
	)
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}

	if got := p.Categorize("morning coffee"); got != "Food_Drinks" {
		t.Errorf("Categorize(coffee) = %q, want Food_Drinks", got)
	}
	if got := p.Categorize("bus ticket"); got != "Transportation" {
		t.Errorf("Categorize(bus ticket) = %q, want Transportation", got)
	}

	// Determinism across repeated calls on the loaded artifacts.
	first := p.Categorize("electric bill")
	for i := 0; i < 5; i++ {
		if got := p.Categorize("electric bill"); got != first {
			t.Fatalf("Categorize not deterministic: %q then %q", first, got)
		}
	}
}

func TestLoadPipelineMissingArtifact(t *testing.T) {
	_, err := LoadPipeline(filepath.Join("testdata", "nope.json"), filepath.Join("testdata", "model.json"))
	if err == nil {
		t.Fatal("expected error for missing vectorizer artifact")
	}
}

func TestLoadPipelineCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "vectorizer.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt artifact: %v", err)
	}

	_, err := LoadPipeline(corrupt, filepath.Join("testdata", "model.json"))
	if err == nil {
		t.Fatal("expected error for corrupt vectorizer artifact")
	}
}

func TestNewPipelineDimensionMismatch(t *testing.T) {
	v := testVectorizer(t)
	m, err := NewModel([]int{1}, [][]float64{{1, 2}}, []float64{0})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if _, err := NewPipeline(v, m); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
