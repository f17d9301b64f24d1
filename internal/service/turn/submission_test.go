package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

func TestSubmissionRequestUsesDefaults(t *testing.T) {
	req, err := Submission{Input: "hello", Need: "advice"}.Request(chat.DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, Request{Input: "hello", Hint: "advice", Settings: chat.DefaultSettings()}, req)
}

func TestSubmissionRequestOverrides(t *testing.T) {
	tokens := 100
	temperature := 0.0

	req, err := Submission{
		Input:           "hello",
		Model:           "gemini-2.0-flash",
		MaxOutputTokens: &tokens,
		Temperature:     &temperature,
	}.Request(chat.DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, chat.Settings{Model: "gemini-2.0-flash", MaxOutputTokens: 100, Temperature: 0}, req.Settings)
}

func TestSubmissionRequestRejects(t *testing.T) {
	tooMany := 4096
	tooHot := 1.2

	_, err := Submission{Input: " \t\n"}.Request(chat.DefaultSettings())
	assert.ErrorIs(t, err, ErrBlankInput)

	_, err = Submission{Input: "hi", MaxOutputTokens: &tooMany}.Request(chat.DefaultSettings())
	assert.Error(t, err)

	_, err = Submission{Input: "hi", Temperature: &tooHot}.Request(chat.DefaultSettings())
	assert.Error(t, err)
}

func TestSubmissionRequestRejectsExplicitZeroTokens(t *testing.T) {
	zero := 0

	_, err := Submission{Input: "hi", MaxOutputTokens: &zero}.Request(chat.DefaultSettings())
	assert.Error(t, err)
}

func TestSubmissionRequestFillsEmptyDefaults(t *testing.T) {
	temperature := 0.4

	req, err := Submission{Input: "hi", Temperature: &temperature}.Request(chat.Settings{})
	require.NoError(t, err)
	assert.Equal(t, chat.Settings{Model: chat.DefaultModel, MaxOutputTokens: chat.DefaultMaxOutputTokens, Temperature: 0.4}, req.Settings)
}
