package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/domain"
)

// defaultWeights is used for artifact types with no configured weight map.
// Equal weights keep the overall score meaningful rather than zero.
var defaultWeights = map[Dimension]float64{
	DimStructure:   0.2,
	DimReadability: 0.2,
	DimPedagogy:    0.2,
	DimEngagement:  0.2,
	DimFactuality:  0.2,
}

// Assessor scores artifacts against configured per-type weights and
// thresholds. It holds no mutable state; a single instance is shared by
// all requests.
type Assessor struct {
	thresholds config.QualityThresholds
	weights    map[domain.ArtifactType]map[Dimension]float64
}

// NewAssessor builds an assessor from quality configuration. Weight maps
// are keyed by artifact type name and dimension name; unknown dimension
// names in the configuration are rejected at construction so a typo
// fails startup instead of silently dropping weight.
func NewAssessor(cfg config.QualityConfig) (*Assessor, error) {
	weights := make(map[domain.ArtifactType]map[Dimension]float64, len(cfg.Weights))
	for typeName, dims := range cfg.Weights {
		at := domain.ArtifactType(typeName)
		if !at.Valid() {
			return nil, fmt.Errorf("quality weights reference unknown artifact type %q", typeName)
		}

		converted := make(map[Dimension]float64, len(dims))
		for dimName, w := range dims {
			dim := Dimension(dimName)
			if !validDimension(dim) {
				return nil, fmt.Errorf("quality weights for %q reference unknown dimension %q", typeName, dimName)
			}
			converted[dim] = w
		}
		weights[at] = converted
	}

	return &Assessor{thresholds: cfg.Thresholds, weights: weights}, nil
}

func validDimension(d Dimension) bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

// Assess scores the artifact and decides pass or fail. The result depends
// only on the artifact and the assessor's configuration; calling it twice
// with the same inputs yields identical reports.
func (a *Assessor) Assess(artifact *domain.Artifact) Report {
	text := artifact.Text()
	lower := strings.ToLower(text)

	scores := map[Dimension]float64{
		DimStructure:   scoreStructure(artifact),
		DimReadability: scoreReadability(text, artifact.AudienceLevel),
		DimPedagogy:    scorePedagogy(artifact, lower),
		DimEngagement:  scoreEngagement(lower),
		DimFactuality:  scoreFactuality(text, lower),
	}

	report := Report{
		DimensionScores: scores,
		OverallScore:    a.weightedOverall(artifact.Type, scores),
	}

	// Three independent gates. A strong overall score never excuses a
	// weak pedagogical or factual score.
	failedOverall := report.OverallScore < a.thresholds.MinOverall
	failedPedagogy := scores[DimPedagogy] < a.thresholds.MinPedagogical
	failedFactuality := scores[DimFactuality] < a.thresholds.MinFactual

	report.Passed = !failedOverall && !failedPedagogy && !failedFactuality
	if report.Passed {
		return report
	}

	report.FailedDimensions = a.failedDimensions(artifact.Type, scores, failedPedagogy, failedFactuality)
	report.ImprovementNotes = improvementNotes(report.FailedDimensions, artifact)

	return report
}

// weightedOverall computes the weighted average of the dimension scores
// for the artifact type. Weights that do not sum to 1 are normalized.
func (a *Assessor) weightedOverall(at domain.ArtifactType, scores map[Dimension]float64) float64 {
	weights, ok := a.weights[at]
	if !ok || len(weights) == 0 {
		weights = defaultWeights
	}

	var sum, weightSum float64
	for _, dim := range Dimensions {
		w := weights[dim]
		sum += scores[dim] * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}

	return sum / weightSum
}

// failedDimensions identifies the dimensions responsible for a failure,
// in the fixed dimension order. When only the overall threshold fails,
// the weakest weighted contributors are blamed so the regeneration
// prompt has something concrete to ask for.
func (a *Assessor) failedDimensions(
	at domain.ArtifactType,
	scores map[Dimension]float64,
	failedPedagogy, failedFactuality bool,
) []Dimension {
	blamed := make(map[Dimension]bool, len(Dimensions))
	if failedPedagogy {
		blamed[DimPedagogy] = true
	}
	if failedFactuality {
		blamed[DimFactuality] = true
	}

	if len(blamed) == 0 {
		// Overall-only failure: blame the lowest-scoring dimensions that
		// actually carry weight for this type, up to two of them.
		weights, ok := a.weights[at]
		if !ok || len(weights) == 0 {
			weights = defaultWeights
		}

		weighted := make([]Dimension, 0, len(Dimensions))
		for _, dim := range Dimensions {
			if weights[dim] > 0 {
				weighted = append(weighted, dim)
			}
		}
		sort.SliceStable(weighted, func(i, j int) bool {
			return scores[weighted[i]] < scores[weighted[j]]
		})
		for i, dim := range weighted {
			if i >= 2 {
				break
			}
			blamed[dim] = true
		}
	}

	failed := make([]Dimension, 0, len(blamed))
	for _, dim := range Dimensions {
		if blamed[dim] {
			failed = append(failed, dim)
		}
	}
	return failed
}
