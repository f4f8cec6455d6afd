package anthropic

// ScriptStream implements MessageStream over a fixed event sequence. It
// backs the dev-mode model and scripted tests.
type ScriptStream struct {
	events []StreamEvent
	idx    int
	err    error
}

// NewScriptStream creates a stream that yields the given events.
func NewScriptStream(events []StreamEvent) *ScriptStream {
	return &ScriptStream{events: events, idx: -1}
}

// NewScriptStreamWithError creates a stream that fails after yielding the
// given events.
func NewScriptStreamWithError(events []StreamEvent, err error) *ScriptStream {
	return &ScriptStream{events: events, idx: -1, err: err}
}

func (s *ScriptStream) Next() bool {
	if s.idx+1 < len(s.events) {
		s.idx++
		return true
	}
	return false
}

func (s *ScriptStream) Event() StreamEvent {
	return s.events[s.idx]
}

func (s *ScriptStream) Err() error {
	if s.idx+1 >= len(s.events) {
		return s.err
	}
	return nil
}

func (s *ScriptStream) Close() error {
	return nil
}
