package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/radar-coach/internal/model"
	"github.com/sells-group/radar-coach/pkg/anthropic"
)

// DevModel is a scripted stand-in for the real model, used when no API key
// is configured. It parses the user's message with keyword matching and
// emits the same tool-use streams a live model would, so extraction,
// scoring, and duplicate detection behave exactly as in production.
type DevModel struct{}

// NewDevModel returns a DevModel.
func NewDevModel() *DevModel {
	return &DevModel{}
}

var (
	quotedRe    = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	fillerRe    = regexp.MustCompile(`(?i)^(i'?d? ?like to submit|i want to submit|let'?s do|how about|submit|what about|i'?m submitting)\s*`)
	selfNameRe  = regexp.MustCompile(`(?i)(?:my name is|i'm|i am)\s+(\w+(?:\s+\w+)?)`)
	emailRe     = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
	quadrantMap = map[string]model.Quadrant{
		"techniques":               model.QuadrantTechniques,
		"tools":                    model.QuadrantTools,
		"platforms":                model.QuadrantPlatforms,
		"languages & frameworks":   model.QuadrantLanguagesFrameworks,
		"languages and frameworks": model.QuadrantLanguagesFrameworks,
		"languages-and-frameworks": model.QuadrantLanguagesFrameworks,
		"frameworks":               model.QuadrantLanguagesFrameworks,
		"languages":                model.QuadrantLanguagesFrameworks,
	}
	ringMap = map[string]model.Ring{
		"adopt":  model.RingAdopt,
		"trial":  model.RingTrial,
		"assess": model.RingAssess,
		"hold":   model.RingHold,
	}
)

// questionMarkers map a distinctive phrase in a previously asked question
// to the field it asked about, so a free-text answer can be assigned to
// that field when keyword extraction finds nothing.
var questionMarkers = []struct {
	marker string
	field  string
}{
	{"give me the name", "name"},
	{"Which ring", "ring"},
	{"Which quadrant", "quadrant"},
	{"the description", "description"},
	{"client project", "client_references"},
	{"What alternatives", "alternatives_considered"},
	{"weaknesses or limitations", "weaknesses"},
	{"right time to feature", "why_now"},
	{"tell me your name", "submitter_name"},
	{"best way to reach you", "submitter_contact"},
}

// StreamMessage implements anthropic.Client.
func (d *DevModel) StreamMessage(_ context.Context, req anthropic.MessageRequest) (anthropic.MessageStream, error) {
	blip := stateFromSystem(req.System)
	userText, forceSubmit := lastUserText(req.Messages)

	// After tool results come back, answer with coaching text only so the
	// orchestrator's loop terminates.
	if endsWithToolResults(req.Messages) {
		response := d.pickResponse(blip, forceSubmit, duplicateIntro(req.Messages, blip))
		return textStream(response, "end_turn"), nil
	}

	changes := extractChanges(userText, blip, lastQuestionField(req.Messages))
	if len(changes) == 0 {
		response := d.pickResponse(blip, forceSubmit, "")
		return textStream(response, "end_turn"), nil
	}

	var events []anthropic.StreamEvent
	if name, ok := changes["name"].(string); ok && blip.Name == nil {
		input, _ := json.Marshal(map[string]string{"name": name})
		events = append(events, toolUseEvents(ToolCheckHistory, input)...)
	}
	input, _ := json.Marshal(changes)
	events = append(events, toolUseEvents(ToolExtractBlip, input)...)
	events = append(events, anthropic.StreamEvent{Type: anthropic.EventMessageStop, StopReason: "tool_use"})
	return anthropic.NewScriptStream(events), nil
}

func toolUseEvents(name string, input []byte) []anthropic.StreamEvent {
	return []anthropic.StreamEvent{
		{Type: anthropic.EventToolUseStart, ToolID: "toolu_" + uuid.NewString()[:8], ToolName: name},
		{Type: anthropic.EventInputJSONDelta, PartialJSON: string(input)},
	}
}

// textStream streams text word by word the way a live model does.
func textStream(text, stopReason string) anthropic.MessageStream {
	words := strings.Split(text, " ")
	events := make([]anthropic.StreamEvent, 0, len(words)+1)
	for i, w := range words {
		chunk := w
		if i > 0 {
			chunk = " " + w
		}
		events = append(events, anthropic.StreamEvent{Type: anthropic.EventTextDelta, Text: chunk})
	}
	events = append(events, anthropic.StreamEvent{Type: anthropic.EventMessageStop, StopReason: stopReason})
	return anthropic.NewScriptStream(events)
}

// stateFromSystem recovers the submission state from the dynamic system
// block the orchestrator builds each round.
func stateFromSystem(system []anthropic.SystemBlock) *model.BlipSubmission {
	blip := &model.BlipSubmission{}
	for _, block := range system {
		start := strings.Index(block.Text, "CURRENT BLIP STATE:")
		if start < 0 {
			continue
		}
		body := block.Text[start+len("CURRENT BLIP STATE:"):]
		if end := strings.Index(body, "QUALITY SCORES:"); end >= 0 {
			body = body[:end]
		}
		_ = json.Unmarshal([]byte(strings.TrimSpace(body)), blip)
	}
	return blip
}

func lastUserText(msgs []anthropic.Message) (text string, forceSubmit bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != anthropic.RoleUser {
			continue
		}
		for _, b := range msgs[i].Content {
			if b.Type != anthropic.BlockText {
				continue
			}
			if strings.HasPrefix(b.Text, "[SYSTEM: The user has clicked the Submit button") {
				forceSubmit = true
				continue
			}
			return b.Text, forceSubmit
		}
	}
	return "", forceSubmit
}

func endsWithToolResults(msgs []anthropic.Message) bool {
	if len(msgs) == 0 {
		return false
	}
	last := msgs[len(msgs)-1]
	return last.Role == anthropic.RoleUser &&
		len(last.Content) > 0 &&
		last.Content[0].Type == anthropic.BlockToolResult
}

// lastQuestionField identifies which field the previous assistant question
// asked about, if any.
func lastQuestionField(msgs []anthropic.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != anthropic.RoleAssistant {
			continue
		}
		for _, b := range msgs[i].Content {
			if b.Type != anthropic.BlockText {
				continue
			}
			for _, qm := range questionMarkers {
				if strings.Contains(b.Text, qm.marker) {
					return qm.field
				}
			}
		}
		return ""
	}
	return ""
}

// extractChanges does rough keyword extraction from the user message; just
// enough to drive the quality meter during dev testing.
func extractChanges(text string, blip *model.BlipSubmission, pendingField string) map[string]any {
	lower := strings.ToLower(text)
	changes := map[string]any{}
	if strings.TrimSpace(text) == "" {
		return changes
	}

	for keyword, ring := range ringMap {
		if strings.Contains(lower, keyword) {
			changes["ring"] = string(ring)
			break
		}
	}
	for keyword, quad := range quadrantMap {
		if strings.Contains(lower, keyword) {
			changes["quadrant"] = string(quad)
			break
		}
	}

	if blip.Name == nil {
		if m := quotedRe.FindStringSubmatch(text); m != nil {
			if m[1] != "" {
				changes["name"] = m[1]
			} else {
				changes["name"] = m[2]
			}
		} else if candidate := strings.TrimRight(strings.TrimSpace(fillerRe.ReplaceAllString(text, "")), ".,!?"); candidate != "" {
			changes["name"] = candidate
		}
	}

	if strings.Contains(lower, "client") || strings.Contains(lower, "production") || strings.Contains(lower, "project") {
		ref := text
		if len(ref) > 120 {
			ref = ref[:120]
		}
		changes["client_references"] = append(append([]string{}, blip.ClientReferences...), ref)
	}

	if len(text) > 80 && blip.Description == nil {
		changes["description"] = text
	}

	if blip.SubmitterName == nil {
		if m := selfNameRe.FindStringSubmatch(text); m != nil {
			changes["submitter_name"] = m[1]
		}
	}
	if m := emailRe.FindString(text); m != "" {
		changes["submitter_contact"] = m
	}

	applyPendingField(changes, blip, pendingField, text)
	return changes
}

// applyPendingField assigns the raw message to the field the previous
// question asked about when keyword extraction found nothing for it. Enum
// fields are skipped since raw text is not a valid value.
func applyPendingField(changes map[string]any, blip *model.BlipSubmission, field, text string) {
	if field == "" || field == "ring" || field == "quadrant" {
		return
	}
	if _, done := changes[field]; done {
		return
	}
	text = strings.TrimSpace(text)
	switch field {
	case "client_references", "alternatives_considered", "strengths", "weaknesses":
		var existing []string
		switch field {
		case "client_references":
			existing = blip.ClientReferences
		case "alternatives_considered":
			existing = blip.AlternativesConsidered
		case "strengths":
			existing = blip.Strengths
		case "weaknesses":
			existing = blip.Weaknesses
		}
		changes[field] = append(append([]string{}, existing...), text)
	case "name":
		if blip.Name == nil {
			changes[field] = text
		}
	case "description":
		if blip.Description == nil {
			changes[field] = text
		}
	case "why_now":
		if blip.WhyNow == nil {
			changes[field] = text
		}
	case "submitter_name":
		if blip.SubmitterName == nil {
			changes[field] = text
		}
	case "submitter_contact":
		if blip.SubmitterContact == nil {
			changes[field] = text
		}
	}
}

// duplicateIntro builds the resubmission prompt when the turn's history
// lookup found prior appearances.
func duplicateIntro(msgs []anthropic.Message, blip *model.BlipSubmission) string {
	if blip.Name == nil || len(msgs) == 0 {
		return ""
	}
	last := msgs[len(msgs)-1]
	if last.Role != anthropic.RoleUser {
		return ""
	}
	for _, b := range last.Content {
		if b.Type != anthropic.BlockToolResult {
			continue
		}
		var outcome HistoryOutcome
		if err := json.Unmarshal([]byte(b.Text), &outcome); err != nil || !outcome.Found {
			continue
		}
		shown := outcome.Appearances
		more := ""
		if len(shown) > 3 {
			more = fmt.Sprintf(" and %d more", len(shown)-3)
			shown = shown[:3]
		}
		vols := make([]string, len(shown))
		for i, a := range shown {
			vols[i] = fmt.Sprintf("**%s** (%s ring)", a.Volume, a.Ring)
		}
		return fmt.Sprintf(
			"I noticed **%s** has appeared in previous radar editions: %s%s.\n\n"+
				"Since this is a resubmission, could you tell me your reason?\n\n"+
				"1. **The write-up needs a refresh** — same ring, but the landscape has changed\n"+
				"2. **Still important, should appear again** — it remains highly relevant\n"+
				"3. **The ring should change** — you'd like to move it to a different ring\n"+
				"4. **Cancel this submission**\n\n",
			*blip.Name, strings.Join(vols, ", "), more)
	}
	return ""
}

// pickResponse generates the next coaching question from the current state,
// walking the field checklist in priority order.
func (d *DevModel) pickResponse(blip *model.BlipSubmission, forceSubmit bool, intro string) string {
	if forceSubmit {
		return intro + submitSummary(blip)
	}

	var response string
	switch {
	case blip.Name == nil:
		response = "Thanks for starting a submission! What technology or technique " +
			"would you like to submit? Please give me the name."
	case blip.Ring == nil:
		response = fmt.Sprintf("Great — **%s** is an interesting choice. "+
			"Which ring would you recommend?\n\n"+
			"- **Adopt**: We believe the industry should strongly consider this\n"+
			"- **Trial**: Worth pursuing — we've seen it work in production\n"+
			"- **Assess**: Worth exploring to understand how it will affect you\n"+
			"- **Hold**: Proceed with caution", *blip.Name)
	case blip.Quadrant == nil:
		response = fmt.Sprintf("Got it — %s for the **%s** ring. "+
			"Which quadrant does this belong in?\n\n"+
			"- **Techniques** (processes, architectural patterns)\n"+
			"- **Tools** (software applications and utilities)\n"+
			"- **Platforms** (cloud, infrastructure, runtime environments)\n"+
			"- **Languages & Frameworks**", *blip.Name, *blip.Ring)
	case blip.Description == nil:
		response = fmt.Sprintf("Now for the most important part — the description. "+
			"For a **%s** recommendation, I'd suggest writing at least a paragraph that explains:\n\n"+
			"- What %s is and what problem it solves\n"+
			"- Your experience using it (client projects, outcomes)\n"+
			"- Why you're recommending this ring placement\n\n"+
			"Go ahead — the more detail, the better the submission!", *blip.Ring, *blip.Name)
	case len(blip.ClientReferences) == 0:
		switch *blip.Ring {
		case model.RingAdopt:
			response = fmt.Sprintf("Can you describe client projects where %s was used? "+
				"For an Adopt recommendation, at least 2 client references "+
				"strengthen the case significantly.", *blip.Name)
		case model.RingTrial:
			response = fmt.Sprintf("Can you describe a client project where %s was used? "+
				"For a Trial recommendation, at least 1 client reference "+
				"helps support the placement.", *blip.Name)
		default:
			response = fmt.Sprintf("Can you describe a client project where %s was used? "+
				"Concrete references strengthen any submission.", *blip.Name)
		}
	case len(blip.AlternativesConsidered) == 0:
		response = fmt.Sprintf("What alternatives to %s did you consider? "+
			"Knowing what you compared it against helps the TAB "+
			"understand your recommendation.", *blip.Name)
	case len(blip.Weaknesses) == 0:
		response = fmt.Sprintf("What are the known weaknesses or limitations of %s? "+
			"Being upfront about drawbacks actually strengthens your submission.", *blip.Name)
	case blip.WhyNow == nil:
		response = fmt.Sprintf("Why is now the right time to feature %s on the radar? "+
			"What's changed recently that makes it relevant?", *blip.Name)
	case blip.SubmitterName == nil:
		response = "We're getting close! Before you submit, can you tell me your " +
			"name so the TAB can follow up if needed?"
	case blip.SubmitterContact == nil:
		response = "And what's the best way to reach you? (email or Slack handle)"
	default:
		response = fmt.Sprintf("Your submission is looking solid! Completeness: %.0f%%, "+
			"Quality: %.0f%%.\n\nFeel free to add more detail to any section, or click "+
			"**Submit Blip** when you're ready.", scoreOrZero(blip.CompletenessScore), scoreOrZero(blip.QualityScore))
	}
	return intro + response
}

func submitSummary(blip *model.BlipSubmission) string {
	name := "Unnamed"
	if blip.Name != nil {
		name = *blip.Name
	}
	ring := "No ring"
	if blip.Ring != nil {
		ring = string(*blip.Ring)
	}
	quadrant := "No quadrant"
	if blip.Quadrant != nil {
		quadrant = string(*blip.Quadrant)
	}
	return fmt.Sprintf("Thanks for your submission! Here's a summary:\n\n"+
		"**%s** — %s / %s\n\nCompleteness: %.0f%%\nQuality: %.0f%%\n",
		name, ring, quadrant, scoreOrZero(blip.CompletenessScore), scoreOrZero(blip.QualityScore))
}

func scoreOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
