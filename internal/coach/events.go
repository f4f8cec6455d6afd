// Package coach runs the tool-calling conversation loop that fills in a
// blip submission: it streams model output, executes extraction and
// history-lookup tool calls against the session's record, and feeds tool
// results back until the model stops calling tools.
package coach

// EventType discriminates turn events.
type EventType string

const (
	// EventText carries a fragment of assistant prose as it streams.
	EventText EventType = "text"
	// EventToolOutcome reports the result of one executed tool call.
	EventToolOutcome EventType = "tool_outcome"
	// EventError ends the turn after a transport failure or when the
	// round ceiling is hit.
	EventError EventType = "error"
	// EventDone ends a successful turn.
	EventDone EventType = "done"
)

// Event is one item on the ordered event channel returned by RunTurn.
type Event struct {
	Type EventType

	// Text is set for EventText.
	Text string

	// ToolName and Data are set for EventToolOutcome. Data is an
	// ExtractOutcome, a HistoryOutcome, or an ErrorOutcome.
	ToolName string
	Data     any

	// Err is set for EventError.
	Err error
}

// ExtractOutcome is the result payload of an extract_blip_data call.
type ExtractOutcome struct {
	Status            string   `json:"status"`
	CompletenessScore float64  `json:"completeness_score"`
	QualityScore      float64  `json:"quality_score"`
	MissingFields     []string `json:"missing_fields"`
	RingGaps          []string `json:"ring_gaps"`
}

// HistoryOutcome is the result payload of a check_radar_history call.
type HistoryOutcome struct {
	Found       bool         `json:"found"`
	Appearances []Appearance `json:"appearances"`
}

// Appearance is one prior radar edition a technology appeared in.
type Appearance struct {
	Volume   string `json:"volume"`
	Ring     string `json:"ring"`
	Quadrant string `json:"quadrant"`
}

// ErrorOutcome is the result payload for a tool call that could not be
// executed, e.g. an unknown tool name.
type ErrorOutcome struct {
	Error string `json:"error"`
}
