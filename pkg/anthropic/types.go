package anthropic

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Roles for conversational messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// BlockType discriminates ContentBlock variants.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one block of message content: assistant text, an
// assistant tool invocation, or a user tool result.
type ContentBlock struct {
	Type BlockType

	// Text carries the text for text blocks and the result payload for
	// tool_result blocks.
	Text string

	// ToolID links a tool_use block to its tool_result.
	ToolID   string
	ToolName string
	Input    json.RawMessage

	// IsError marks a tool_result as a failure the model should recover
	// from.
	IsError bool
}

// Message represents a single conversational message.
type Message struct {
	Role    string
	Content []ContentBlock
}

// UserText builds a user message with a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock builds an assistant tool invocation block.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ToolID: id, ToolName: name, Input: input}
}

// ToolResultBlock builds a user tool result block answering the tool_use
// with the given ID.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolID: toolUseID, Text: content, IsError: isError}
}

// Tool describes a tool the model may invoke. Properties is the JSON
// schema's properties object; additionalProperties is always pinned false
// on the wire.
type Tool struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

// SystemBlock represents a system prompt block, optionally with cache
// control.
type SystemBlock struct {
	Text         string
	CacheControl *CacheControl
}

// CacheControl configures caching for a content block.
type CacheControl struct {
	TTL string // "5m" or "1h"
}

// MessageRequest is our own request type for StreamMessage.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      []SystemBlock
	Messages    []Message
	Tools       []Tool
	Temperature *float64
}

// StreamEventType discriminates StreamEvent variants.
type StreamEventType string

const (
	// EventTextDelta carries a fragment of assistant text.
	EventTextDelta StreamEventType = "text_delta"
	// EventToolUseStart opens a tool invocation; input JSON deltas follow.
	EventToolUseStart StreamEventType = "tool_use_start"
	// EventInputJSONDelta carries a fragment of the open tool call's input.
	EventInputJSONDelta StreamEventType = "input_json_delta"
	// EventMessageStop closes the assistant turn.
	EventMessageStop StreamEventType = "message_stop"
)

// StreamEvent is one event from a streaming message response.
type StreamEvent struct {
	Type StreamEventType

	// Text is set for EventTextDelta.
	Text string

	// ToolID and ToolName are set for EventToolUseStart.
	ToolID   string
	ToolName string

	// PartialJSON is set for EventInputJSONDelta.
	PartialJSON string

	// StopReason and Usage are set for EventMessageStop.
	StopReason string
	Usage      TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-opus-4-6":            {15.00, 75.00},
}

// EstimateCost computes an estimated cost in USD from a TokenUsage and model ID.
// Returns 0 for unknown models.
func (u TokenUsage) EstimateCost(model string) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	inCost := (float64(u.InputTokens) / 1e6) * pricing[0]
	outCost := (float64(u.OutputTokens) / 1e6) * pricing[1]
	cacheWriteCost := (float64(u.CacheCreationInputTokens) / 1e6) * pricing[0] * 1.25
	cacheReadCost := (float64(u.CacheReadInputTokens) / 1e6) * pricing[0] * 0.1
	return inCost + outCost + cacheWriteCost + cacheReadCost
}

// LogCost logs token usage and estimated cost with structured zap fields.
func (u TokenUsage) LogCost(model, phase string) {
	cost := u.EstimateCost(model)
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", cost),
	)
}
