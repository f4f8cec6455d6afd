package coach

import (
	"github.com/sells-group/radar-coach/pkg/anthropic"
)

// Tool names the model may call.
const (
	ToolExtractBlip  = "extract_blip_data"
	ToolCheckHistory = "check_radar_history"
)

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

func nullableList() map[string]any {
	return map[string]any{
		"type":  []string{"array", "null"},
		"items": map[string]any{"type": "string"},
	}
}

func nullableEnum(values ...any) map[string]any {
	return map[string]any{
		"type": []string{"string", "null"},
		"enum": append(values, nil),
	}
}

// extractTool is the schema for extract_blip_data. Every field is nullable
// so the model can report only what the conversation established; required
// lists the core fields so it always emits an explicit value or null for
// each.
var extractTool = anthropic.Tool{
	Name: ToolExtractBlip,
	Description: "Extract structured blip submission data from the conversation. " +
		"Call this tool whenever the user provides substantive information " +
		"about their blip, or when they request to submit.",
	Properties: map[string]any{
		"name": nullable("string"),
		"quadrant": nullableEnum(
			"Techniques", "Tools", "Platforms", "Languages & Frameworks",
		),
		"ring":                    nullableEnum("Adopt", "Trial", "Assess", "Hold"),
		"description":             nullable("string"),
		"client_references":       nullableList(),
		"submitter_name":          nullable("string"),
		"submitter_contact":       nullable("string"),
		"why_now":                 nullable("string"),
		"alternatives_considered": nullableList(),
		"strengths":               nullableList(),
		"weaknesses":              nullableList(),
		"is_resubmission":         nullable("boolean"),
		"resubmission_rationale": nullableEnum(
			"refresh write-up", "still important", "ring change",
		),
	},
	Required: []string{
		"name", "quadrant", "ring", "description", "client_references",
		"submitter_name", "submitter_contact", "why_now",
		"alternatives_considered", "strengths", "weaknesses",
	},
}

// checkHistoryTool is the schema for check_radar_history.
var checkHistoryTool = anthropic.Tool{
	Name: ToolCheckHistory,
	Description: "Check if a technology has appeared in previous Technology Radar " +
		"editions. Call this as soon as the user mentions the name of the " +
		"technology they want to submit.",
	Properties: map[string]any{
		"name": map[string]any{
			"type":        "string",
			"description": "The technology name to look up.",
		},
	},
	Required: []string{"name"},
}

// Tools returns the tool set offered on every model call.
func Tools() []anthropic.Tool {
	return []anthropic.Tool{extractTool, checkHistoryTool}
}
