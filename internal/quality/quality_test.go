package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-coach/internal/model"
)

func TestWeightSum(t *testing.T) {
	assert.Equal(t, 100.0, WeightSum())
}

func TestFieldKeys_StableOrder(t *testing.T) {
	want := []string{
		"name", "quadrant", "ring", "description", "submitter_name",
		"submitter_contact", "why_now", "client_references",
		"alternatives_considered", "strengths", "weaknesses",
	}
	assert.Equal(t, want, FieldKeys())
	assert.Equal(t, want, FieldKeys()) // identical across calls
}

func TestScore_EmptySubmission(t *testing.T) {
	e := Default()
	res := e.Score(&model.BlipSubmission{})

	assert.Equal(t, 0.0, res.Completeness)
	assert.Equal(t, 0.0, res.Quality)
	assert.Len(t, res.MissingFields, 11)
	assert.Empty(t, res.RingGaps)
}

// Filling fields one at a time must give a monotonically non-decreasing
// completeness that always equals the sum of filled weights.
func TestScore_CompletenessMonotonic(t *testing.T) {
	e := Default()
	b := &model.BlipSubmission{}

	fills := []struct {
		apply  func()
		weight float64
	}{
		{func() { b.Name = model.StringPtr("Terraform") }, 10},
		{func() { b.Quadrant = model.QuadrantPtr(model.QuadrantTools) }, 5},
		{func() { b.Ring = model.RingPtr(model.RingAdopt) }, 5},
		{func() { b.Description = model.StringPtr("Infrastructure as code") }, 25},
		{func() { b.SubmitterName = model.StringPtr("Jo") }, 5},
		{func() { b.SubmitterContact = model.StringPtr("jo@example.com") }, 5},
		{func() { b.WhyNow = model.StringPtr("Cloud migration wave") }, 15},
		{func() { b.ClientReferences = []string{"Acme rollout"} }, 10},
		{func() { b.AlternativesConsidered = []string{"Pulumi"} }, 10},
		{func() { b.Strengths = []string{"Declarative"} }, 5},
		{func() { b.Weaknesses = []string{"State management"} }, 5},
	}

	expected := 0.0
	prev := 0.0
	for _, f := range fills {
		f.apply()
		expected += f.weight
		res := e.Score(b)
		assert.Equal(t, expected, res.Completeness)
		assert.GreaterOrEqual(t, res.Completeness, prev)
		assert.GreaterOrEqual(t, res.Completeness, 0.0)
		assert.LessOrEqual(t, res.Completeness, 100.0)
		prev = res.Completeness
	}

	assert.Equal(t, 100.0, prev)
}

func TestScore_WhitespaceNotFilled(t *testing.T) {
	e := Default()
	b := &model.BlipSubmission{
		Name:        model.StringPtr("   "),
		Description: model.StringPtr("\n\t"),
	}
	res := e.Score(b)
	assert.Equal(t, 0.0, res.Completeness)
	assert.Contains(t, res.MissingFields, "name")
	assert.Contains(t, res.MissingFields, "description")
}

// Every ring's bonus weights must sum to the same constant so quality is
// comparable across rings.
func TestEvidence_CrossRingFairness(t *testing.T) {
	for _, ring := range model.Rings {
		checks, ok := defaultEvidence[ring]
		require.True(t, ok, "ring %s has no checks", ring)

		sum := 0.0
		for _, c := range checks {
			sum += c.Bonus
		}
		assert.Equal(t, float64(BonusTotal), sum, "ring %s", ring)
	}

	assert.NoError(t, ValidateEvidence(defaultEvidence))
}

// fullSubmission satisfies every field and every ring's evidence checks at
// once, so quality must be exactly 100 for any selected ring.
func fullSubmission(ring model.Ring) *model.BlipSubmission {
	longDescription := "Terraform lets teams declare cloud infrastructure as code and " +
		"apply changes through a plan/apply workflow that has become the de facto standard."
	return &model.BlipSubmission{
		Name:                   model.StringPtr("Terraform"),
		Quadrant:               model.QuadrantPtr(model.QuadrantTools),
		Ring:                   model.RingPtr(ring),
		Description:            model.StringPtr(longDescription),
		ClientReferences:       []string{"Acme platform build", "Globex landing zone"},
		SubmitterName:          model.StringPtr("Jordan"),
		SubmitterContact:       model.StringPtr("jordan@example.com"),
		WhyNow:                 model.StringPtr("Multi-cloud estates are now the norm"),
		AlternativesConsidered: []string{"Pulumi", "CloudFormation"},
		Strengths:              []string{"Declarative", "Huge provider ecosystem"},
		Weaknesses:             []string{"State file handling"},
	}
}

func TestScore_FullSubmissionQuality100_AllRings(t *testing.T) {
	e := Default()
	for _, ring := range model.Rings {
		res := e.Score(fullSubmission(ring))
		assert.Equal(t, 100.0, res.Completeness, "ring %s", ring)
		assert.Equal(t, 100.0, res.Quality, "ring %s", ring)
		assert.Empty(t, res.RingGaps, "ring %s", ring)
		assert.Empty(t, res.MissingFields, "ring %s", ring)
	}
}

func TestScore_CompleteButRequirementsUnmet(t *testing.T) {
	e := Default()
	b := fullSubmission(model.RingAdopt)
	// One reference fills the field (completeness 100) but misses Adopt's
	// two-reference threshold.
	b.ClientReferences = []string{"Acme platform build"}

	res := e.Score(b)
	assert.Equal(t, 100.0, res.Completeness)
	assert.Less(t, res.Quality, 100.0)
	require.Len(t, res.RingGaps, 1)
	assert.Equal(t, "Adopt suggests at least 2 client references (need at least 2, have 1)", res.RingGaps[0])
}

func TestScore_NoRingSelected(t *testing.T) {
	e := Default()
	b := fullSubmission(model.RingAdopt)
	b.Ring = nil

	res := e.Score(b)
	assert.Equal(t, 95.0, res.Completeness)
	assert.Empty(t, res.RingGaps)
	// No ring forfeits the whole bonus: quality scales completeness alone.
	assert.InDelta(t, 95.0/140*100, res.Quality, 1e-9)
	assert.Less(t, res.Quality, 100.0)
}

func TestScore_TerraformAdoptScenario(t *testing.T) {
	e := Default()
	b := &model.BlipSubmission{
		Name: model.StringPtr("Terraform"),
		Ring: model.RingPtr(model.RingAdopt),
	}

	res := e.Score(b)
	assert.Equal(t, 15.0, res.Completeness)
	// No Adopt evidence is satisfiable on an otherwise empty record.
	assert.InDelta(t, 15.0/140*100, res.Quality, 1e-9)
	assert.Len(t, res.RingGaps, 3)
}

func TestScore_AssessDescriptionPresenceSuffices(t *testing.T) {
	e := Default()
	b := &model.BlipSubmission{
		Name:        model.StringPtr("htmx"),
		Ring:        model.RingPtr(model.RingAssess),
		Description: model.StringPtr("Small library."),
	}

	// Any non-empty description earns the Assess bonus; only why_now
	// remains open.
	res := e.Score(b)
	require.Len(t, res.RingGaps, 1)
	assert.Equal(t, "Explain why this technology is worth assessing now", res.RingGaps[0])
	assert.InDelta(t, (40.0+20.0)/140*100, res.Quality, 1e-9)
}

func TestScore_MinLengthGap(t *testing.T) {
	e := &Engine{evidence: map[model.Ring][]EvidenceCheck{
		model.RingAssess: {
			{Field: "description", Kind: CheckMinLength, Threshold: 100, Bonus: 40,
				Gap: "A thorough description is critical for an Assess recommendation"},
		},
	}}
	b := &model.BlipSubmission{
		Name:        model.StringPtr("htmx"),
		Ring:        model.RingPtr(model.RingAssess),
		Description: model.StringPtr("Small library."),
	}

	res := e.Score(b)
	require.Len(t, res.RingGaps, 1)
	assert.Equal(t,
		"A thorough description is critical for an Assess recommendation (need at least 100 characters, have 14)",
		res.RingGaps[0])
}

func TestScore_OnlySelectedRingEvaluated(t *testing.T) {
	e := Default()
	// Hold-satisfying record with ring Hold: weaknesses + alternatives +
	// description present. Adopt's reference requirement must not leak in.
	b := &model.BlipSubmission{
		Name:                   model.StringPtr("SOAP"),
		Ring:                   model.RingPtr(model.RingHold),
		Description:            model.StringPtr("Legacy protocol teams should stop starting new work on."),
		Weaknesses:             []string{"Verbosity", "Tooling decay"},
		AlternativesConsidered: []string{"REST", "gRPC"},
	}

	res := e.Score(b)
	assert.Empty(t, res.RingGaps)
	for _, gap := range res.RingGaps {
		assert.NotContains(t, gap, "client references")
	}
}

func TestScore_QualityAlwaysBounded(t *testing.T) {
	e := Default()
	subs := []*model.BlipSubmission{
		{},
		{Name: model.StringPtr("x")},
		fullSubmission(model.RingTrial),
		fullSubmission(model.RingHold),
	}
	for _, b := range subs {
		res := e.Score(b)
		assert.GreaterOrEqual(t, res.Quality, 0.0)
		assert.LessOrEqual(t, res.Quality, 100.0)
		assert.False(t, math.IsNaN(res.Quality))
	}
}

func TestScore_DoesNotMutate(t *testing.T) {
	e := Default()
	b := fullSubmission(model.RingAdopt)
	before, err := b.StateJSON()
	require.NoError(t, err)

	_ = e.Score(b)

	after, err := b.StateJSON()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
