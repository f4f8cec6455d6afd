package anthropic

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) StreamMessage(ctx context.Context, req MessageRequest) (MessageStream, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(MessageStream), args.Error(1)
}

func TestMockClient_StreamMessage(t *testing.T) {
	client := new(MockClient)
	stream := NewScriptStream([]StreamEvent{
		{Type: EventTextDelta, Text: "Hello"},
		{Type: EventTextDelta, Text: ", world"},
		{Type: EventMessageStop, StopReason: "end_turn"},
	})
	client.On("StreamMessage", mock.Anything, mock.Anything).Return(stream, nil)

	got, err := client.StreamMessage(context.Background(), MessageRequest{Model: "claude-sonnet-4-5-20250929"})
	require.NoError(t, err)

	var text string
	var stops int
	for got.Next() {
		ev := got.Event()
		switch ev.Type {
		case EventTextDelta:
			text += ev.Text
		case EventMessageStop:
			stops++
			assert.Equal(t, "end_turn", ev.StopReason)
		}
	}
	require.NoError(t, got.Err())
	assert.Equal(t, "Hello, world", text)
	assert.Equal(t, 1, stops)
	client.AssertExpectations(t)
}

func TestScriptStream_ToolUseSequence(t *testing.T) {
	stream := NewScriptStream([]StreamEvent{
		{Type: EventToolUseStart, ToolID: "toolu_01", ToolName: "extract_blip_data"},
		{Type: EventInputJSONDelta, PartialJSON: `{"name":`},
		{Type: EventInputJSONDelta, PartialJSON: `"Terraform"}`},
		{Type: EventMessageStop, StopReason: "tool_use"},
	})

	var input string
	var toolName string
	for stream.Next() {
		ev := stream.Event()
		switch ev.Type {
		case EventToolUseStart:
			toolName = ev.ToolName
		case EventInputJSONDelta:
			input += ev.PartialJSON
		}
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, "extract_blip_data", toolName)
	assert.JSONEq(t, `{"name":"Terraform"}`, input)
}

func TestScriptStream_TerminalError(t *testing.T) {
	stream := NewScriptStreamWithError(
		[]StreamEvent{{Type: EventTextDelta, Text: "partial"}},
		assert.AnError,
	)

	require.True(t, stream.Next())
	require.NoError(t, stream.Err())
	require.False(t, stream.Next())
	assert.Error(t, stream.Err())
}

func TestMessageHelpers(t *testing.T) {
	msg := UserText("hi")
	assert.Equal(t, RoleUser, msg.Role)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, BlockText, msg.Content[0].Type)

	use := ToolUseBlock("toolu_01", "check_radar_history", json.RawMessage(`{"name":"Docker"}`))
	assert.Equal(t, BlockToolUse, use.Type)
	assert.Equal(t, "toolu_01", use.ToolID)

	result := ToolResultBlock("toolu_01", "no matches", false)
	assert.Equal(t, BlockToolResult, result.Type)
	assert.Equal(t, "toolu_01", result.ToolID)
	assert.False(t, result.IsError)
}

func TestSplitCachedSystem(t *testing.T) {
	blocks := SplitCachedSystem("instructions", "state")
	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "5m", blocks[0].CacheControl.TTL)
	assert.Nil(t, blocks[1].CacheControl)

	blocks = SplitCachedSystem("instructions", "")
	require.Len(t, blocks, 1)
}
