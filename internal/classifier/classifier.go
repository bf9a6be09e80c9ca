package classifier

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Kind selects which model handles a prediction.
type Kind string

const (
	KindLeaf  Kind = "leaf"
	KindFruit Kind = "fruit"
)

// ParseKind maps a detection_type form value to a Kind, defaulting to leaf.
func ParseKind(s string) Kind {
	if s == string(KindFruit) {
		return KindFruit
	}
	return KindLeaf
}

// ConfidenceThreshold is the minimum primary confidence (percent) below which
// a prediction is reported as Unknown and not persisted.
const ConfidenceThreshold = 50.0

var leafClasses = []string{
	"Anthracnose", "Bacterial Canker", "Cutting Weevil", "Die Back", "Gall Midge",
	"Healthy", "Powdery Mildew", "Sooty Mold",
}

var fruitClasses = []string{
	"Anthracnose", "Black Mold Rot", "Healthy", "Stem End Rot",
}

// AllClasses is the combined disease catalog across both models.
var AllClasses = []string{
	"Anthracnose", "Bacterial Canker", "Cutting Weevil", "Die Back", "Gall Midge",
	"Healthy", "Powdery Mildew", "Sooty Mold", "Black Mold Rot", "Stem End Rot",
}

var treatments = map[string]string{
	"Anthracnose":      "The diseased twigs should be pruned and burnt along with fallen leaves. Spraying twice with Carbendazim (Bavistin 0.1%) at 15 days interval during flowering controls blossom infection.",
	"Bacterial Canker": "Three sprays of Streptocycline (0.01%) or Agrimycin-100 (0.01%) after first visual symptom at 10 day intervals are effective in controlling the disease.",
	"Cutting Weevil":   "Use recommended insecticides and remove infested plant material.",
	"Die Back":         "Pruning of the diseased twigs 2-3 inches below the affected portion and spraying Copper Oxychloride (0.3%) on infected trees controls the disease.",
	"Gall Midge":       "Remove and destroy infested fruits; use appropriate insecticides.",
	"Healthy":          "No treatment needed. Maintain good agricultural practices.",
	"Powdery Mildew":   "Alternate spraying of Wettable sulphur 0.2 per cent at 15 days interval are recommended for effective control of the disease.",
	"Sooty Mold":       "Pruning of affected branches and their prompt destruction followed by spraying of Wettasulf (0.2%) helps to control the disease.",
	"Black Mold Rot":   "Improve air circulation and apply fungicides as needed.",
	"Stem End Rot":     "Proper post-harvest handling and storage conditions are essential.",
}

// UnknownTreatment is returned when the classifier cannot confidently match
// the image to any catalogued disease.
const UnknownTreatment = "The uploaded image could not be confidently classified. Please ensure the image is of a mango leaf or fruit and try again."

// ClassNames returns the class catalog for a model kind. The returned slice
// must not be mutated.
func ClassNames(kind Kind) []string {
	if kind == KindFruit {
		return fruitClasses
	}
	return leafClasses
}

// TreatmentFor returns the treatment suggestion for a disease.
func TreatmentFor(disease string) string {
	if t, ok := treatments[disease]; ok {
		return t
	}
	return "No treatment information available."
}

var fruitDiseases = map[string]struct{}{
	"Black Mold Rot": {},
	"Stem End Rot":   {},
	"Alternaria":     {},
}

// DiseaseTypeFor reports whether a disease affects fruit or leaf.
func DiseaseTypeFor(disease string) Kind {
	if _, ok := fruitDiseases[disease]; ok {
		return KindFruit
	}
	return KindLeaf
}

// ConfidenceLevel converts a 0..1 confidence score to a human readable level.
func ConfidenceLevel(score float64) string {
	switch {
	case score >= 0.8:
		return "High"
	case score >= 0.6:
		return "Medium"
	case score >= 0.4:
		return "Low"
	default:
		return "Very Low"
	}
}

// RankedPrediction is a single entry of the top-3 breakdown.
// Confidence is a percentage rounded to two decimals.
type RankedPrediction struct {
	Rank                int     `json:"rank"`
	Disease             string  `json:"disease"`
	Confidence          float64 `json:"confidence"`
	ConfidenceFormatted string  `json:"confidence_formatted"`
}

// Summary condenses a probability vector into the primary prediction and the
// top-3 breakdown.
type Summary struct {
	PrimaryDisease    string
	PrimaryConfidence float64 // percent
	ConfidenceLevel   string
	Top3              []RankedPrediction
}

// Summarize ranks the probability vector against the class catalog.
// It returns an error when the vector length does not match the catalog.
func Summarize(probs []float64, classNames []string) (*Summary, error) {
	if len(probs) != len(classNames) {
		return nil, fmt.Errorf("prediction vector length %d does not match %d classes", len(probs), len(classNames))
	}

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	n := 3
	if len(idx) < n {
		n = len(idx)
	}

	top := make([]RankedPrediction, 0, n)
	for i := 0; i < n; i++ {
		pct := roundPct(probs[idx[i]] * 100)
		top = append(top, RankedPrediction{
			Rank:                i + 1,
			Disease:             classNames[idx[i]],
			Confidence:          pct,
			ConfidenceFormatted: fmt.Sprintf("%.2f%%", probs[idx[i]]*100),
		})
	}

	return &Summary{
		PrimaryDisease:    classNames[idx[0]],
		PrimaryConfidence: probs[idx[0]] * 100,
		ConfidenceLevel:   ConfidenceLevel(probs[idx[0]]),
		Top3:              top,
	}, nil
}

func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}

// Classifier produces class probabilities for an image. Implementations are
// expected to be safe for concurrent use.
type Classifier interface {
	// Predict returns a probability per class, in the order of
	// ClassNames(kind), for the raw image bytes.
	Predict(ctx context.Context, image []byte, kind Kind) ([]float64, error)
}
