// Package quality derives completeness and quality scores for a blip
// submission, plus the missing-field and ring-gap lists used to drive
// coaching.
package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/radar-coach/internal/model"
)

// fieldValue is the resolved value of a single submission field: either a
// scalar string or a list, never both.
type fieldValue struct {
	str  *string
	list []string
}

func (v fieldValue) filled() bool {
	if v.str != nil {
		return strings.TrimSpace(*v.str) != ""
	}
	return len(v.list) > 0
}

func (v fieldValue) length() int {
	if v.str == nil {
		return 0
	}
	return len(strings.TrimSpace(*v.str))
}

func (v fieldValue) count() int {
	return len(v.list)
}

// fieldSpec binds a field key to its completeness weight and an explicit
// accessor. The accessor table replaces the dynamic attribute lookup a
// schema-driven validator would do: only fields listed here participate in
// scoring, in this order.
type fieldSpec struct {
	Key    string
	Weight float64
	value  func(b *model.BlipSubmission) fieldValue
}

func strField(p *string) fieldValue   { return fieldValue{str: p} }
func listField(l []string) fieldValue { return fieldValue{list: l} }

// fieldTable enumerates the eleven scored fields. Weights sum to 100.
var fieldTable = []fieldSpec{
	{"name", 10, func(b *model.BlipSubmission) fieldValue { return strField(b.Name) }},
	{"quadrant", 5, func(b *model.BlipSubmission) fieldValue {
		if b.Quadrant == nil {
			return fieldValue{}
		}
		s := string(*b.Quadrant)
		return strField(&s)
	}},
	{"ring", 5, func(b *model.BlipSubmission) fieldValue {
		if b.Ring == nil {
			return fieldValue{}
		}
		s := string(*b.Ring)
		return strField(&s)
	}},
	{"description", 25, func(b *model.BlipSubmission) fieldValue { return strField(b.Description) }},
	{"submitter_name", 5, func(b *model.BlipSubmission) fieldValue { return strField(b.SubmitterName) }},
	{"submitter_contact", 5, func(b *model.BlipSubmission) fieldValue { return strField(b.SubmitterContact) }},
	{"why_now", 15, func(b *model.BlipSubmission) fieldValue { return strField(b.WhyNow) }},
	{"client_references", 10, func(b *model.BlipSubmission) fieldValue { return listField(b.ClientReferences) }},
	{"alternatives_considered", 10, func(b *model.BlipSubmission) fieldValue { return listField(b.AlternativesConsidered) }},
	{"strengths", 5, func(b *model.BlipSubmission) fieldValue { return listField(b.Strengths) }},
	{"weaknesses", 5, func(b *model.BlipSubmission) fieldValue { return listField(b.Weaknesses) }},
}

// CheckKind selects the predicate an evidence check applies.
type CheckKind string

const (
	// CheckMinCount requires a list field with at least Threshold items.
	CheckMinCount CheckKind = "min_count"
	// CheckMinLength requires a string field with at least Threshold
	// characters after trimming.
	CheckMinLength CheckKind = "min_length"
	// CheckRequired requires the field to be filled at all.
	CheckRequired CheckKind = "required"
)

// EvidenceCheck is one ring-specific evidence requirement.
type EvidenceCheck struct {
	Field     string    `yaml:"field"`
	Kind      CheckKind `yaml:"kind"`
	Threshold int       `yaml:"threshold,omitempty"`
	Bonus     float64   `yaml:"bonus"`
	Gap       string    `yaml:"gap"`
}

// BonusTotal is the evidence bonus each ring can earn. Every ring's checks
// must sum to exactly this value so the quality denominator (100 +
// BonusTotal) is identical across rings.
const BonusTotal = 40

// defaultEvidence holds the built-in per-ring evidence checks.
var defaultEvidence = map[model.Ring][]EvidenceCheck{
	model.RingAdopt: {
		{Field: "client_references", Kind: CheckMinCount, Threshold: 2, Bonus: 20,
			Gap: "Adopt suggests at least 2 client references"},
		{Field: "description", Kind: CheckRequired, Bonus: 10,
			Gap: "A description is essential for an Adopt recommendation"},
		{Field: "strengths", Kind: CheckRequired, Bonus: 10,
			Gap: "List strengths to justify Adopt placement"},
	},
	model.RingTrial: {
		{Field: "client_references", Kind: CheckMinCount, Threshold: 1, Bonus: 15,
			Gap: "Trial blips benefit from at least 1 client reference"},
		{Field: "description", Kind: CheckRequired, Bonus: 10,
			Gap: "A description is essential for a Trial recommendation"},
		{Field: "alternatives_considered", Kind: CheckRequired, Bonus: 15,
			Gap: "Describe alternatives you considered before recommending Trial"},
	},
	model.RingAssess: {
		{Field: "description", Kind: CheckRequired, Bonus: 20,
			Gap: "A thorough description is critical for an Assess recommendation"},
		{Field: "why_now", Kind: CheckRequired, Bonus: 20,
			Gap: "Explain why this technology is worth assessing now"},
	},
	model.RingHold: {
		{Field: "description", Kind: CheckRequired, Bonus: 10,
			Gap: "Describe why teams should hold on this technology"},
		{Field: "weaknesses", Kind: CheckRequired, Bonus: 15,
			Gap: "Describe weaknesses that justify the Hold recommendation"},
		{Field: "alternatives_considered", Kind: CheckRequired, Bonus: 15,
			Gap: "Suggest alternatives teams should consider instead"},
	},
}

// ScoreResult is the full derived output for one submission state.
type ScoreResult struct {
	Completeness  float64  `json:"completeness"`
	Quality       float64  `json:"quality"`
	MissingFields []string `json:"missing_fields"`
	RingGaps      []string `json:"ring_gaps"`
}

// Engine scores submissions against a set of per-ring evidence checks.
// The zero-cost constructor Default uses the built-in checks; LoadEvidence
// builds an Engine from a YAML override file.
type Engine struct {
	evidence map[model.Ring][]EvidenceCheck
}

// Default returns an Engine with the built-in evidence checks.
func Default() *Engine {
	return &Engine{evidence: defaultEvidence}
}

// Score computes completeness, quality, missing fields, and ring gaps for
// the given submission. It is deterministic, never fails, and never
// mutates the submission.
func (e *Engine) Score(b *model.BlipSubmission) ScoreResult {
	res := ScoreResult{
		MissingFields: []string{},
		RingGaps:      []string{},
	}

	for _, f := range fieldTable {
		if f.value(b).filled() {
			res.Completeness += f.Weight
		} else {
			res.MissingFields = append(res.MissingFields, f.Key)
		}
	}

	earned := 0.0
	if b.Ring != nil {
		for _, check := range e.evidence[*b.Ring] {
			satisfied, gap := e.evaluate(b, check)
			if satisfied {
				earned += check.Bonus
			} else {
				res.RingGaps = append(res.RingGaps, gap)
			}
		}
	}

	// The denominator stays 100+BonusTotal even with no ring selected: an
	// unselected ring forfeits its bonus, so quality cannot reach 100
	// until a ring is chosen. The clamp guards the fully-satisfied case
	// against floating point drift above 100.
	res.Quality = math.Min(100, (res.Completeness+earned)/(100+BonusTotal)*100)

	return res
}

// evaluate applies one evidence check, returning whether it is satisfied
// and the human-readable gap description when it is not.
func (e *Engine) evaluate(b *model.BlipSubmission, check EvidenceCheck) (bool, string) {
	v := e.lookup(b, check.Field)
	switch check.Kind {
	case CheckMinCount:
		if v.count() >= check.Threshold {
			return true, ""
		}
		return false, fmt.Sprintf("%s (need at least %d, have %d)", check.Gap, check.Threshold, v.count())
	case CheckMinLength:
		if v.length() >= check.Threshold {
			return true, ""
		}
		return false, fmt.Sprintf("%s (need at least %d characters, have %d)", check.Gap, check.Threshold, v.length())
	default:
		if v.filled() {
			return true, ""
		}
		return false, check.Gap
	}
}

// lookup resolves a field key through the field table. Unknown keys
// resolve to an empty value, which fails every predicate.
func (e *Engine) lookup(b *model.BlipSubmission, key string) fieldValue {
	for _, f := range fieldTable {
		if f.Key == key {
			return f.value(b)
		}
	}
	return fieldValue{}
}

// FieldKeys returns the scored field keys in enumeration order.
func FieldKeys() []string {
	keys := make([]string, len(fieldTable))
	for i, f := range fieldTable {
		keys[i] = f.Key
	}
	return keys
}

// WeightSum returns the sum of all completeness weights.
func WeightSum() float64 {
	sum := 0.0
	for _, f := range fieldTable {
		sum += f.Weight
	}
	return sum
}
