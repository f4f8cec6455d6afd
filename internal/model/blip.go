// Package model defines the blip submission domain types shared across the
// coaching pipeline.
package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Quadrant is one of the four radar classification buckets.
type Quadrant string

const (
	QuadrantTechniques          Quadrant = "Techniques"
	QuadrantTools               Quadrant = "Tools"
	QuadrantPlatforms           Quadrant = "Platforms"
	QuadrantLanguagesFrameworks Quadrant = "Languages & Frameworks"
)

// Quadrants lists all quadrants in display order.
var Quadrants = []Quadrant{
	QuadrantTechniques,
	QuadrantTools,
	QuadrantPlatforms,
	QuadrantLanguagesFrameworks,
}

// ParseQuadrant matches a canonical quadrant label. Matching is
// case-sensitive: the tool schema constrains the model to canonical labels,
// and anything else must be dropped rather than guessed at.
func ParseQuadrant(s string) (Quadrant, bool) {
	for _, q := range Quadrants {
		if s == string(q) {
			return q, true
		}
	}
	return "", false
}

// Ring is one of the four ordered recommendation strengths.
type Ring string

const (
	RingAdopt  Ring = "Adopt"
	RingTrial  Ring = "Trial"
	RingAssess Ring = "Assess"
	RingHold   Ring = "Hold"
)

// Rings lists all rings from strongest to weakest recommendation.
var Rings = []Ring{RingAdopt, RingTrial, RingAssess, RingHold}

// ParseRing matches a canonical ring label (case-sensitive).
func ParseRing(s string) (Ring, bool) {
	for _, r := range Rings {
		if s == string(r) {
			return r, true
		}
	}
	return "", false
}

// Resubmission rationale labels. The coach asks the submitter to pick one
// when the blip has appeared on a previous radar edition.
const (
	RationaleRefreshWriteUp = "refresh write-up"
	RationaleStillImportant = "still important"
	RationaleRingChange     = "ring change"
)

// ResubmissionRationales lists the accepted rationale labels.
var ResubmissionRationales = []string{
	RationaleRefreshWriteUp,
	RationaleStillImportant,
	RationaleRingChange,
}

// ParseRationale matches a canonical resubmission rationale label.
func ParseRationale(s string) (string, bool) {
	for _, r := range ResubmissionRationales {
		if s == r {
			return r, true
		}
	}
	return "", false
}

// HistoricalBlip is one appearance of a technology in a prior radar edition.
type HistoricalBlip struct {
	Name     string `json:"name"`
	Ring     string `json:"ring"`
	Quadrant string `json:"quadrant"`
	Volume   string `json:"volume"`
}

// BlipSubmission is the structured record being built during a coaching
// conversation. All user-supplied fields are optional: a nil pointer or
// empty list means the field has not been provided yet. The two score
// fields are derived — they are recomputed after every merge and never set
// directly from conversation data.
type BlipSubmission struct {
	Name                   *string   `json:"name,omitempty"`
	Quadrant               *Quadrant `json:"quadrant,omitempty"`
	Ring                   *Ring     `json:"ring,omitempty"`
	Description            *string   `json:"description,omitempty"`
	ClientReferences       []string  `json:"client_references,omitempty"`
	SubmitterName          *string   `json:"submitter_name,omitempty"`
	SubmitterContact       *string   `json:"submitter_contact,omitempty"`
	WhyNow                 *string   `json:"why_now,omitempty"`
	AlternativesConsidered []string  `json:"alternatives_considered,omitempty"`
	Strengths              []string  `json:"strengths,omitempty"`
	Weaknesses             []string  `json:"weaknesses,omitempty"`

	IsResubmission        bool             `json:"is_resubmission,omitempty"`
	PreviousAppearances   []HistoricalBlip `json:"previous_appearances,omitempty"`
	ResubmissionRationale *string          `json:"resubmission_rationale,omitempty"`

	CompletenessScore *float64 `json:"completeness_score,omitempty"`
	QualityScore      *float64 `json:"quality_score,omitempty"`
}

// StateJSON serializes the current submission state for embedding in the
// system prompt. Nil fields are omitted so the model only sees what has
// actually been gathered.
func (b *BlipSubmission) StateJSON() (string, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "model: marshal blip state")
	}
	return string(data), nil
}

// SetScores stores freshly computed scores on the record.
func (b *BlipSubmission) SetScores(completeness, quality float64) {
	b.CompletenessScore = &completeness
	b.QualityScore = &quality
}

// String helpers for building records in one expression.

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// RingPtr returns a pointer to r.
func RingPtr(r Ring) *Ring { return &r }

// QuadrantPtr returns a pointer to q.
func QuadrantPtr(q Quadrant) *Quadrant { return &q }
