package coach

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-coach/internal/model"
	"github.com/sells-group/radar-coach/internal/quality"
	"github.com/sells-group/radar-coach/internal/session"
	"github.com/sells-group/radar-coach/pkg/anthropic"
)

// HistoryFinder looks up prior radar appearances by technology name.
// *history.Corpus satisfies it.
type HistoryFinder interface {
	Find(ctx context.Context, name string) ([]model.HistoricalBlip, error)
}

// Options tunes the orchestrator.
type Options struct {
	Model     string
	MaxTokens int64
	// MaxRounds caps tool-call rounds per turn. A model that keeps
	// requesting tools past this many rounds ends the turn with an error.
	MaxRounds int
}

const (
	defaultMaxTokens = 2048
	defaultMaxRounds = 10
)

// Orchestrator drives one conversation turn: it streams the model's
// response, executes tool calls against the session's record, feeds the
// results back, and repeats until the model answers without tools.
type Orchestrator struct {
	client anthropic.Client
	corpus HistoryFinder
	engine *quality.Engine
	opts   Options
}

// New creates an Orchestrator. A nil engine falls back to the built-in
// evidence checks.
func New(client anthropic.Client, corpus HistoryFinder, engine *quality.Engine, opts Options) *Orchestrator {
	if engine == nil {
		engine = quality.Default()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = defaultMaxRounds
	}
	return &Orchestrator{client: client, corpus: corpus, engine: engine, opts: opts}
}

// RunTurn processes one turn for the session and returns an ordered event
// channel. The channel is closed when the turn ends; the final event is
// always EventDone or EventError. The caller must hold the session's turn
// lock and must have appended the user's message already.
//
// When forceSubmit is set a synthetic submit instruction is sent to the
// model without being persisted in the transcript.
//
// Tool rounds append their assistant and tool_result messages to the
// transcript as they happen. The final text-only response is not appended;
// the caller appends it from the accumulated EventText fragments after
// EventDone.
func (o *Orchestrator) RunTurn(ctx context.Context, sess *session.Session, forceSubmit bool) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		o.run(ctx, sess, forceSubmit, events)
	}()
	return events
}

// toolCall accumulates one streamed tool invocation.
type toolCall struct {
	id    string
	name  string
	input strings.Builder
}

func (o *Orchestrator) run(ctx context.Context, sess *session.Session, forceSubmit bool, events chan<- Event) {
	local := append([]anthropic.Message(nil), sess.Transcript...)
	if forceSubmit {
		local = append(local, anthropic.UserText(submitInstruction))
	}

	for round := 0; round < o.opts.MaxRounds; round++ {
		system := buildSystem(sess.Blip, o.engine.Score(sess.Blip))
		stream, err := o.client.StreamMessage(ctx, anthropic.MessageRequest{
			Model:     o.opts.Model,
			MaxTokens: o.opts.MaxTokens,
			System:    system,
			Messages:  local,
			Tools:     Tools(),
		})
		if err != nil {
			o.send(ctx, events, Event{Type: EventError, Err: err})
			return
		}

		var text strings.Builder
		var calls []*toolCall
		for stream.Next() {
			ev := stream.Event()
			switch ev.Type {
			case anthropic.EventTextDelta:
				text.WriteString(ev.Text)
				if !o.send(ctx, events, Event{Type: EventText, Text: ev.Text}) {
					stream.Close()
					return
				}
			case anthropic.EventToolUseStart:
				calls = append(calls, &toolCall{id: ev.ToolID, name: ev.ToolName})
			case anthropic.EventInputJSONDelta:
				if len(calls) > 0 {
					calls[len(calls)-1].input.WriteString(ev.PartialJSON)
				}
			case anthropic.EventMessageStop:
				ev.Usage.LogCost(o.opts.Model, "coach")
			}
		}
		streamErr := stream.Err()
		stream.Close()
		if streamErr != nil {
			o.send(ctx, events, Event{Type: EventError, Err: streamErr})
			return
		}

		if len(calls) == 0 {
			o.send(ctx, events, Event{Type: EventDone})
			return
		}

		// One assistant turn: text block if any, then all tool_use blocks.
		blocks := make([]anthropic.ContentBlock, 0, len(calls)+1)
		if text.Len() > 0 {
			blocks = append(blocks, anthropic.TextBlock(text.String()))
		}
		for _, c := range calls {
			blocks = append(blocks, anthropic.ToolUseBlock(c.id, c.name, parseToolInput(c.input.String())))
		}
		sess.AppendAssistant(blocks)
		local = append(local, anthropic.Message{Role: anthropic.RoleAssistant, Content: blocks})

		// One user turn of tool_result blocks, in the order the calls
		// were opened. The results are appended before any outcome event
		// is emitted: a consumer that stops listening mid-turn must never
		// leave a tool_use block in the transcript without its result.
		results := make([]anthropic.ContentBlock, 0, len(calls))
		outcomes := make([]Event, 0, len(calls))
		for _, c := range calls {
			input := parseToolInput(c.input.String())
			var payload any
			isError := false
			switch c.name {
			case ToolExtractBlip:
				payload = o.runExtract(input, sess.Blip)
			case ToolCheckHistory:
				payload = o.runCheckHistory(ctx, input)
			default:
				zap.L().Warn("model called unknown tool", zap.String("tool", c.name))
				payload = ErrorOutcome{Error: "unknown tool: " + c.name}
				isError = true
			}
			outcomes = append(outcomes, Event{Type: EventToolOutcome, ToolName: c.name, Data: payload})
			body, err := json.Marshal(payload)
			if err != nil {
				body = []byte(`{}`)
			}
			results = append(results, anthropic.ToolResultBlock(c.id, string(body), isError))
		}
		sess.AppendToolResults(results)
		local = append(local, anthropic.Message{Role: anthropic.RoleUser, Content: results})

		for _, ev := range outcomes {
			if !o.send(ctx, events, ev) {
				return
			}
		}
	}

	o.send(ctx, events, Event{
		Type: EventError,
		Err:  eris.Errorf("coach: model exceeded %d tool rounds in one turn", o.opts.MaxRounds),
	})
}

func (o *Orchestrator) send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// parseToolInput decodes accumulated partial-JSON fragments. Malformed or
// empty input degrades to an empty object rather than failing the turn.
func parseToolInput(raw string) json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" || !json.Valid([]byte(raw)) {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(raw)
}

func (o *Orchestrator) runExtract(input json.RawMessage, blip *model.BlipSubmission) ExtractOutcome {
	mergeExtract(input, blip)
	result := o.engine.Score(blip)
	blip.SetScores(result.Completeness, result.Quality)
	return ExtractOutcome{
		Status:            "ok",
		CompletenessScore: result.Completeness,
		QualityScore:      result.Quality,
		MissingFields:     result.MissingFields,
		RingGaps:          result.RingGaps,
	}
}

func (o *Orchestrator) runCheckHistory(ctx context.Context, input json.RawMessage) HistoryOutcome {
	var args struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		zap.L().Warn("check_radar_history input not parseable", zap.Error(err))
	}

	outcome := HistoryOutcome{Appearances: []Appearance{}}
	if o.corpus == nil || args.Name == "" {
		return outcome
	}

	matches, err := o.corpus.Find(ctx, args.Name)
	if err != nil {
		// Duplicate detection is best-effort; a corpus failure must not
		// break the conversation.
		zap.L().Warn("radar history lookup failed", zap.Error(err))
		return outcome
	}
	for _, m := range matches {
		outcome.Appearances = append(outcome.Appearances, Appearance{
			Volume:   m.Volume,
			Ring:     m.Ring,
			Quadrant: m.Quadrant,
		})
	}
	outcome.Found = len(matches) > 0
	return outcome
}
