package coach

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sells-group/radar-coach/internal/model"
	"github.com/sells-group/radar-coach/internal/sanitize"
)

// extractPayload mirrors the extract_blip_data input schema. Pointer and
// slice fields distinguish "model sent null" from "model sent a value";
// null always means "no update".
type extractPayload struct {
	Name                   *string  `json:"name"`
	Quadrant               *string  `json:"quadrant"`
	Ring                   *string  `json:"ring"`
	Description            *string  `json:"description"`
	ClientReferences       []string `json:"client_references"`
	SubmitterName          *string  `json:"submitter_name"`
	SubmitterContact       *string  `json:"submitter_contact"`
	WhyNow                 *string  `json:"why_now"`
	AlternativesConsidered []string `json:"alternatives_considered"`
	Strengths              []string `json:"strengths"`
	Weaknesses             []string `json:"weaknesses"`
	IsResubmission         *bool    `json:"is_resubmission"`
	ResubmissionRationale  *string  `json:"resubmission_rationale"`
}

// mergeExtract applies one extract_blip_data input to the record. Null
// fields are skipped so a sparse tool call never erases earlier answers.
// Values that fail coercion (unknown enum labels, malformed JSON) are
// dropped per-field; the rest of the call still applies.
func mergeExtract(input json.RawMessage, blip *model.BlipSubmission) {
	var p extractPayload
	if len(input) > 0 {
		if err := json.Unmarshal(input, &p); err != nil {
			zap.L().Warn("extract input not parseable, ignoring",
				zap.Error(err))
			return
		}
	}

	if p.Name != nil {
		if name := sanitize.Name(*p.Name); name != "" {
			blip.Name = &name
		}
	}
	if p.Quadrant != nil {
		if q, ok := model.ParseQuadrant(*p.Quadrant); ok {
			blip.Quadrant = &q
		} else {
			zap.L().Warn("dropping unrecognized quadrant", zap.String("value", *p.Quadrant))
		}
	}
	if p.Ring != nil {
		if r, ok := model.ParseRing(*p.Ring); ok {
			blip.Ring = &r
		} else {
			zap.L().Warn("dropping unrecognized ring", zap.String("value", *p.Ring))
		}
	}
	if p.Description != nil {
		if desc := sanitize.Description(*p.Description); desc != "" {
			blip.Description = &desc
		}
	}
	if p.ClientReferences != nil {
		blip.ClientReferences = sanitize.ListField(p.ClientReferences)
	}
	if p.SubmitterName != nil {
		if v := sanitize.ShortField(*p.SubmitterName); v != "" {
			blip.SubmitterName = &v
		}
	}
	if p.SubmitterContact != nil {
		if v := sanitize.ShortField(*p.SubmitterContact); v != "" {
			blip.SubmitterContact = &v
		}
	}
	if p.WhyNow != nil {
		if v := sanitize.ShortField(*p.WhyNow); v != "" {
			blip.WhyNow = &v
		}
	}
	if p.AlternativesConsidered != nil {
		blip.AlternativesConsidered = sanitize.ListField(p.AlternativesConsidered)
	}
	if p.Strengths != nil {
		blip.Strengths = sanitize.ListField(p.Strengths)
	}
	if p.Weaknesses != nil {
		blip.Weaknesses = sanitize.ListField(p.Weaknesses)
	}
	if p.IsResubmission != nil {
		blip.IsResubmission = *p.IsResubmission
	}
	if p.ResubmissionRationale != nil {
		if v, ok := model.ParseRationale(*p.ResubmissionRationale); ok {
			blip.ResubmissionRationale = &v
		} else {
			zap.L().Warn("dropping unrecognized resubmission rationale",
				zap.String("value", *p.ResubmissionRationale))
		}
	}
}
