package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

// LLM scores text by asking a chat model for a label distribution.
type LLM struct {
	task       string
	labels     []string
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewLLM compiles a classification chain over chatModel restricted to labels.
func NewLLM(ctx context.Context, chatModel model.ChatModel, task string, labels []string) (*LLM, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required for %s classification", task)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels are required for %s classification", task)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(llmSystemPrompt),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s classifier chain: %w", task, err)
	}

	return &LLM{
		task:       task,
		labels:     append([]string(nil), labels...),
		classifier: runnable,
	}, nil
}

// Score implements Scorer.
func (l *LLM) Score(ctx context.Context, text string) ([]chat.Score, error) {
	msg, err := l.classifier.Invoke(ctx, map[string]any{
		"task":   l.task,
		"labels": strings.Join(l.labels, ", "),
		"text":   strings.TrimSpace(text),
	})
	if err != nil {
		return nil, fmt.Errorf("%s classifier invoke: %w", l.task, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%s classifier returned empty output", l.task)
	}

	return parseLabelScores(msg.Content, l.labels)
}

// parseLabelScores extracts the JSON array from the model output and keeps
// only entries whose label is in the vocabulary, mapped to its canonical case.
func parseLabelScores(content string, labels []string) ([]chat.Score, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json array")
	}

	var raw []chat.Score
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return nil, err
	}

	canonical := make(map[string]string, len(labels))
	for _, label := range labels {
		canonical[strings.ToLower(label)] = label
	}

	scores := make([]chat.Score, 0, len(raw))
	for _, item := range raw {
		label, ok := canonical[strings.ToLower(strings.TrimSpace(item.Label))]
		if !ok {
			continue
		}
		scores = append(scores, chat.Score{Label: label, Score: item.Score})
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("no known labels in classifier output")
	}
	return scores, nil
}

const llmSystemPrompt = "You are a text classifier for {task}. Score the user text against every label of this list: {labels}.\n" +
	"Answer with a JSON array only. Each element has a \"label\" field (one of the listed labels) and a \"score\" field between 0 and 1. " +
	"Keep the listed order and do not output any other text."
