package quality

// Dimension names one quality dimension.
type Dimension string

// The five assessed dimensions.
const (
	DimStructure   Dimension = "structure"
	DimReadability Dimension = "readability"
	DimPedagogy    Dimension = "pedagogy"
	DimEngagement  Dimension = "engagement"
	DimFactuality  Dimension = "factuality"
)

// Dimensions lists all dimensions in a fixed order. Scoring and
// reporting iterate this slice, never a map, so output is deterministic.
var Dimensions = []Dimension{
	DimStructure, DimReadability, DimPedagogy, DimEngagement, DimFactuality,
}

// Report is the outcome of assessing one artifact.
type Report struct {
	// DimensionScores holds each dimension's score in [0,1].
	DimensionScores map[Dimension]float64 `json:"dimension_scores"`

	// OverallScore is the weighted average of the dimension scores,
	// weighted per artifact type.
	OverallScore float64 `json:"overall_score"`

	// Passed is true only when the overall score and the two critical
	// dimensions each clear their own threshold.
	Passed bool `json:"passed"`

	// FailedDimensions lists the dimensions responsible for a failure,
	// in the fixed dimension order.
	FailedDimensions []Dimension `json:"failed_dimensions,omitempty"`

	// ImprovementNotes carries one concrete, dimension-tied suggestion
	// per failed dimension, used to steer regeneration.
	ImprovementNotes []string `json:"improvement_notes,omitempty"`
}
