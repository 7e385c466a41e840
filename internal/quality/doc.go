// Package quality scores generated artifacts along five independent
// dimensions (structure, readability, pedagogy, engagement, factuality),
// combines them into a weighted overall score, and gates acceptance
// behind three independent thresholds. Assessment is a pure function of
// its inputs: the same artifact always produces the same report, which
// is what makes quality-weighted cache TTLs reproducible.
//
// The factuality dimension is a heuristic proxy (contradiction markers,
// hedging density, citation presence), not fact checking.
package quality
