package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	content string
	err     error
	inputs  [][]*schema.Message
	options []*model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	f.options = append(f.options, model.GetCommonOptions(nil, opts...))
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestChatModelBackendSendsComposedPrompt(t *testing.T) {
	fake := &fakeChatModel{content: "  - I hear you.\n"}
	backend, err := NewChatModelBackend(context.Background(), "ark", fake)
	require.NoError(t, err)

	prompt := ComposePrompt("I lost my job today {not a placeholder}", "")
	reply, err := backend.Generate(context.Background(), prompt, Options{MaxOutputTokens: 150, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "- I hear you.", reply)

	require.Len(t, fake.inputs, 1)
	require.Len(t, fake.inputs[0], 1)
	assert.Equal(t, schema.User, fake.inputs[0][0].Role)
	assert.Equal(t, prompt, fake.inputs[0][0].Content)

	opts := fake.options[0]
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 150, *opts.MaxTokens)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.5, *opts.Temperature, 1e-6)
}

func TestChatModelBackendFailures(t *testing.T) {
	_, err := NewChatModelBackend(context.Background(), "ark", nil)
	assert.Error(t, err)

	broken, err := NewChatModelBackend(context.Background(), "ark", &fakeChatModel{err: errors.New("401")})
	require.NoError(t, err)
	_, err = broken.Generate(context.Background(), "p", Options{})
	assert.Error(t, err)

	blank, err := NewChatModelBackend(context.Background(), "ark", &fakeChatModel{content: "  "})
	require.NoError(t, err)
	_, err = blank.Generate(context.Background(), "p", Options{})
	assert.Error(t, err)

	gen := NewGenerator([]Backend{broken, blank})
	assert.Equal(t, UnavailableMessage, gen.Generate(context.Background(), "p", Options{}))
}
