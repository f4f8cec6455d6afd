package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/rotisserie/eris"
)

// Client defines the Anthropic API operations used by the coaching loop.
type Client interface {
	StreamMessage(ctx context.Context, req MessageRequest) (MessageStream, error)
}

// MessageStream iterates the events of one streaming response. Callers must
// Close the stream when done.
type MessageStream interface {
	Next() bool
	Event() StreamEvent
	Err() error
	Close() error
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a new Anthropic client backed by the SDK.
func NewClient(apiKey string) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
	}
}

func (c *sdkClient) StreamMessage(ctx context.Context, req MessageRequest) (MessageStream, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}

	if len(req.System) > 0 {
		params.System = toSDKSystemBlocks(req.System)
	}
	if len(req.Tools) > 0 {
		params.Tools = toSDKTools(req.Tools)
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, eris.Wrap(err, "anthropic: stream message")
	}
	return &sdkStream{stream: stream}, nil
}

// sdkStream wraps the SDK's SSE stream, translating its event union into
// the events the coaching loop consumes. SDK events with no mapping
// (message_start, content_block_stop, ping) are skipped.
type sdkStream struct {
	stream *ssestream.Stream[sdk.MessageStreamEventUnion]
	event  StreamEvent
	usage  TokenUsage
}

func (s *sdkStream) Next() bool {
	for s.stream.Next() {
		raw := s.stream.Current()
		switch ev := raw.AsAny().(type) {
		case sdk.MessageStartEvent:
			s.usage.InputTokens = ev.Message.Usage.InputTokens
			s.usage.CacheCreationInputTokens = ev.Message.Usage.CacheCreationInputTokens
			s.usage.CacheReadInputTokens = ev.Message.Usage.CacheReadInputTokens
		case sdk.ContentBlockStartEvent:
			if ev.ContentBlock.Type == "tool_use" {
				s.event = StreamEvent{
					Type:     EventToolUseStart,
					ToolID:   ev.ContentBlock.ID,
					ToolName: ev.ContentBlock.Name,
				}
				return true
			}
		case sdk.ContentBlockDeltaEvent:
			switch ev.Delta.Type {
			case "text_delta":
				s.event = StreamEvent{Type: EventTextDelta, Text: ev.Delta.Text}
				return true
			case "input_json_delta":
				s.event = StreamEvent{Type: EventInputJSONDelta, PartialJSON: ev.Delta.PartialJSON}
				return true
			}
		case sdk.MessageDeltaEvent:
			s.event.StopReason = string(ev.Delta.StopReason)
			s.usage.OutputTokens = ev.Usage.OutputTokens
		case sdk.MessageStopEvent:
			s.event = StreamEvent{
				Type:       EventMessageStop,
				StopReason: s.event.StopReason,
				Usage:      s.usage,
			}
			return true
		}
	}
	return false
}

func (s *sdkStream) Event() StreamEvent {
	return s.event
}

func (s *sdkStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return eris.Wrap(err, "anthropic: stream")
	}
	return nil
}

func (s *sdkStream) Close() error {
	return s.stream.Close()
}

// --- SDK type conversion helpers ---

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case BlockText:
				blocks = append(blocks, sdk.NewTextBlock(b.Text))
			case BlockToolUse:
				blocks = append(blocks, sdk.ContentBlockParamUnion{
					OfToolUse: &sdk.ToolUseBlockParam{
						ID:    b.ToolID,
						Name:  b.ToolName,
						Input: b.Input,
					},
				})
			case BlockToolResult:
				result := &sdk.ToolResultBlockParam{
					ToolUseID: b.ToolID,
					Content: []sdk.ToolResultBlockParamContentUnion{
						{OfText: &sdk.TextBlockParam{Text: b.Text}},
					},
				}
				if b.IsError {
					result.IsError = sdk.Bool(true)
				}
				blocks = append(blocks, sdk.ContentBlockParamUnion{OfToolResult: result})
			}
		}
		role := sdk.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = sdk.MessageParamRoleAssistant
		}
		out[i] = sdk.MessageParam{Role: role, Content: blocks}
	}
	return out
}

func toSDKSystemBlocks(blocks []SystemBlock) []sdk.TextBlockParam {
	out := make([]sdk.TextBlockParam, len(blocks))
	for i, b := range blocks {
		out[i] = sdk.TextBlockParam{
			Text: b.Text,
		}
		if b.CacheControl != nil {
			cc := sdk.NewCacheControlEphemeralParam()
			if b.CacheControl.TTL != "" {
				cc.TTL = sdk.CacheControlEphemeralTTL(b.CacheControl.TTL)
			}
			out[i].CacheControl = cc
		}
	}
	return out
}

func toSDKTools(tools []Tool) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: t.Properties,
					Required:   t.Required,
					ExtraFields: map[string]any{
						"additionalProperties": false,
					},
				},
			},
		}
	}
	return out
}
