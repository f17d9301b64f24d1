package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ChatModelBackend runs prompts through an eino chat model, such as the Ark
// model built by config.ArkConfig. The model name is fixed by the chat model
// configuration, so Options.Model is ignored here.
type ChatModelBackend struct {
	name      string
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewChatModelBackend compiles the single-message chain used for every call.
func NewChatModelBackend(ctx context.Context, name string, chatModel model.ChatModel) (*ChatModelBackend, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%s chat model is not configured", name)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s chain: %w", name, err)
	}

	return &ChatModelBackend{
		name:      name,
		chatModel: chatModel,
		chain:     runnable,
	}, nil
}

// Name implements Backend.
func (b *ChatModelBackend) Name() string {
	return b.name
}

// ChatModel returns the underlying chat model.
func (b *ChatModelBackend) ChatModel() model.ChatModel {
	return b.chatModel
}

// Generate implements Backend.
func (b *ChatModelBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	modelOpts := []model.Option{model.WithTemperature(float32(opts.Temperature))}
	if opts.MaxOutputTokens > 0 {
		modelOpts = append(modelOpts, model.WithMaxTokens(opts.MaxOutputTokens))
	}

	response, err := b.chain.Invoke(ctx, map[string]any{"prompt": prompt}, compose.WithChatModelOption(modelOpts...))
	if err != nil {
		return "", fmt.Errorf("failed to run %s chain: %w", b.name, err)
	}
	if response == nil {
		return "", fmt.Errorf("%s returned no message", b.name)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("%s returned empty content", b.name)
	}
	return content, nil
}
