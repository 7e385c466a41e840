package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/domain"
)

func lenientThresholds() config.QualityThresholds {
	return config.QualityThresholds{
		MinOverall:     0.30,
		MinPedagogical: 0.20,
		MinFactual:     0.50,
	}
}

func newTestAssessor(t *testing.T, cfg config.QualityConfig) *Assessor {
	t.Helper()

	a, err := NewAssessor(cfg)
	require.NoError(t, err)
	return a
}

// goodFlashcards is a well-formed flashcards artifact with objectives,
// examples and enough cards for full structure credit.
func goodFlashcards() *domain.Artifact {
	cards := make([]domain.Card, 0, 8)
	fronts := []string{
		"What is mitosis?",
		"What happens in prophase?",
		"What happens in metaphase?",
		"What happens in anaphase?",
		"What happens in telophase?",
		"What is cytokinesis?",
		"Why do cells divide?",
		"What is a chromatid?",
	}
	for _, f := range fronts {
		cards = append(cards, domain.Card{Front: f, Back: "It is a stage of cell division. For example, skin cells divide to heal cuts."})
	}

	return &domain.Artifact{
		Type:          domain.ArtifactFlashcards,
		Topic:         "mitosis",
		AudienceLevel: domain.AudienceMiddleSchool,
		Title:         "Mitosis Flashcards",
		Summary:       "Cards covering each stage of cell division.",
		Objectives:    []string{"Name the stages of mitosis", "Describe what happens in each stage"},
		Cards:         cards,
	}
}

// blandOutline is structurally complete but carries no teaching
// scaffolding: no objectives, no examples, no recall prompts.
func blandOutline() *domain.Artifact {
	return &domain.Artifact{
		Type:          domain.ArtifactOutline,
		Topic:         "photosynthesis",
		AudienceLevel: domain.AudienceHighSchool,
		Title:         "Photosynthesis Outline",
		Sections: []domain.Section{
			{Title: "Light reactions", Body: "Chlorophyll absorbs light energy in the thylakoid membranes."},
			{Title: "Calvin cycle", Body: "Carbon dioxide becomes sugar through a series of enzyme reactions."},
			{Title: "Chloroplast anatomy", Body: "The stroma surrounds stacked thylakoid membranes called grana."},
			{Title: "Limiting factors", Body: "Light intensity and carbon dioxide concentration bound the reaction rate."},
		},
	}
}

func TestNewAssessor_RejectsUnknownDimension(t *testing.T) {
	t.Parallel()

	_, err := NewAssessor(config.QualityConfig{
		Thresholds: lenientThresholds(),
		Weights: map[string]map[string]float64{
			"flashcards": {"vibes": 1.0},
		},
	})
	assert.ErrorContains(t, err, "unknown dimension")
}

func TestNewAssessor_RejectsUnknownArtifactType(t *testing.T) {
	t.Parallel()

	_, err := NewAssessor(config.QualityConfig{
		Thresholds: lenientThresholds(),
		Weights: map[string]map[string]float64{
			"worksheet": {"structure": 1.0},
		},
	})
	assert.ErrorContains(t, err, "unknown artifact type")
}

func TestAssess_PassingArtifact(t *testing.T) {
	t.Parallel()

	a := newTestAssessor(t, config.QualityConfig{
		Thresholds: lenientThresholds(),
		Weights: map[string]map[string]float64{
			"flashcards": {
				"structure": 0.3, "readability": 0.1, "pedagogy": 0.3,
				"engagement": 0.1, "factuality": 0.2,
			},
		},
	})

	report := a.Assess(goodFlashcards())
	assert.True(t, report.Passed)
	assert.Empty(t, report.FailedDimensions)
	assert.Empty(t, report.ImprovementNotes)
	assert.Len(t, report.DimensionScores, len(Dimensions))
	for _, dim := range Dimensions {
		score := report.DimensionScores[dim]
		assert.GreaterOrEqual(t, score, 0.0, "dimension %s", dim)
		assert.LessOrEqual(t, score, 1.0, "dimension %s", dim)
	}
}

func TestAssess_Idempotent(t *testing.T) {
	t.Parallel()

	a := newTestAssessor(t, config.QualityConfig{
		Thresholds: lenientThresholds(),
		Weights: map[string]map[string]float64{
			"flashcards": {"structure": 0.5, "pedagogy": 0.3, "factuality": 0.2},
		},
	})

	artifact := goodFlashcards()
	first := a.Assess(artifact)
	second := a.Assess(artifact)
	assert.Equal(t, first, second)
}

// A strong weighted overall must not mask a weak pedagogical score: the
// pedagogical threshold is checked independently.
func TestAssess_PedagogicalThresholdGatesIndependently(t *testing.T) {
	t.Parallel()

	a := newTestAssessor(t, config.QualityConfig{
		Thresholds: config.QualityThresholds{
			MinOverall:     0.50,
			MinPedagogical: 0.75,
			MinFactual:     0.50,
		},
		// Pedagogy carries no weight, so the overall score stays high no
		// matter how weak the teaching scaffolding is.
		Weights: map[string]map[string]float64{
			"outline": {"structure": 0.35, "readability": 0.10, "engagement": 0.10, "factuality": 0.45},
		},
	})

	report := a.Assess(blandOutline())

	assert.GreaterOrEqual(t, report.OverallScore, 0.50, "overall threshold itself is met")
	assert.Less(t, report.DimensionScores[DimPedagogy], 0.75)
	assert.False(t, report.Passed)
	assert.Contains(t, report.FailedDimensions, DimPedagogy)
	require.Len(t, report.ImprovementNotes, len(report.FailedDimensions))
	assert.Contains(t, report.ImprovementNotes[indexOf(report.FailedDimensions, DimPedagogy)], "learning objectives")
}

func indexOf(dims []Dimension, target Dimension) int {
	for i, d := range dims {
		if d == target {
			return i
		}
	}
	return -1
}

func TestAssess_WeightsShiftOverallScore(t *testing.T) {
	t.Parallel()

	artifact := blandOutline()

	structureHeavy := newTestAssessor(t, config.QualityConfig{
		Thresholds: lenientThresholds(),
		Weights: map[string]map[string]float64{
			"outline": {"structure": 0.9, "pedagogy": 0.1},
		},
	})
	pedagogyHeavy := newTestAssessor(t, config.QualityConfig{
		Thresholds: lenientThresholds(),
		Weights: map[string]map[string]float64{
			"outline": {"structure": 0.1, "pedagogy": 0.9},
		},
	})

	structureScore := structureHeavy.Assess(artifact).OverallScore
	pedagogyScore := pedagogyHeavy.Assess(artifact).OverallScore

	// The outline is structurally sound but pedagogically bare, so
	// weighting structure up must raise the overall score.
	assert.Greater(t, structureScore, pedagogyScore)
}

func TestAssess_OverallFailureBlamesWeakestDimensions(t *testing.T) {
	t.Parallel()

	a := newTestAssessor(t, config.QualityConfig{
		Thresholds: config.QualityThresholds{
			MinOverall:     0.99,
			MinPedagogical: 0.01,
			MinFactual:     0.01,
		},
		Weights: map[string]map[string]float64{
			"flashcards": {
				"structure": 0.2, "readability": 0.2, "pedagogy": 0.2,
				"engagement": 0.2, "factuality": 0.2,
			},
		},
	})

	report := a.Assess(goodFlashcards())
	assert.False(t, report.Passed)
	require.NotEmpty(t, report.FailedDimensions)
	assert.LessOrEqual(t, len(report.FailedDimensions), 2)
	assert.Len(t, report.ImprovementNotes, len(report.FailedDimensions))

	// Failed dimensions come back in the fixed dimension order.
	order := make(map[Dimension]int, len(Dimensions))
	for i, d := range Dimensions {
		order[d] = i
	}
	for i := 1; i < len(report.FailedDimensions); i++ {
		assert.Less(t, order[report.FailedDimensions[i-1]], order[report.FailedDimensions[i]])
	}
}

func TestScoreStructure_EmptyArtifactScoresZero(t *testing.T) {
	t.Parallel()

	score := scoreStructure(&domain.Artifact{
		Type:  domain.ArtifactFlashcards,
		Title: "Empty",
	})
	assert.Zero(t, score)
}

func TestScoreStructure_PartialCreditBelowMinimum(t *testing.T) {
	t.Parallel()

	few := goodFlashcards()
	few.Cards = few.Cards[:2]

	full := scoreStructure(goodFlashcards())
	partial := scoreStructure(few)
	assert.Greater(t, full, partial)
	assert.Greater(t, partial, 0.0)
}

func TestScoreReadability_PrefersMatchingAudience(t *testing.T) {
	t.Parallel()

	simple := "The cat sat on the mat. The dog ran to the park. We can see the sun."

	forKids := scoreReadability(simple, domain.AudienceElementary)
	forExperts := scoreReadability(simple, domain.AudienceProfessional)
	assert.Greater(t, forKids, forExperts)
}

func TestScoreFactuality_PenalizesContradictions(t *testing.T) {
	t.Parallel()

	clean := "Water boils at one hundred degrees Celsius at sea level. According to standard references, the boiling point falls at altitude."
	contradictory := "Water boils at one hundred degrees. But actually that is false. On the contrary, it never boils."

	cleanScore := scoreFactuality(clean, lowered(clean))
	badScore := scoreFactuality(contradictory, lowered(contradictory))
	assert.Greater(t, cleanScore, badScore)
}

func TestScoreFactuality_PenalizesDenseHedging(t *testing.T) {
	t.Parallel()

	hedged := "It might be true. Perhaps it may be so. Some say it is possibly correct, arguably."
	plain := "The mitochondrion produces most of the cell's chemical energy in the form of ATP."

	assert.Greater(t, scoreFactuality(plain, lowered(plain)), scoreFactuality(hedged, lowered(hedged)))
}

func lowered(s string) string {
	return strings.ToLower(s)
}
