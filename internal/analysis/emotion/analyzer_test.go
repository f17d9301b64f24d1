package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

func top(scores []chat.Score) chat.Score {
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}

func TestScoreEmotionsSadUser(t *testing.T) {
	scores := ScoreEmotions("I lost my job today")
	require.Len(t, scores, len(EmotionLabels))
	assert.Equal(t, Sadness, top(scores).Label)
}

func TestScoreEmotionsOrderAndRange(t *testing.T) {
	scores := ScoreEmotions("I'm so angry and scared, this is disgusting!!")
	sum := 0.0
	for i, s := range scores {
		assert.Equal(t, EmotionLabels[i], s.Label)
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
		sum += s.Score
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScoreEmotionsNeutralWithoutKeywords(t *testing.T) {
	scores := ScoreEmotions("The meeting is at noon!")
	assert.Equal(t, chat.Score{Label: Neutral, Score: 1}, top(scores))
}

func TestScoreEmotionsMatchesWholeWords(t *testing.T) {
	// "made" must not count as "mad"
	assert.Equal(t, Neutral, top(ScoreEmotions("I made dinner")).Label)
}

func TestScoreSentiment(t *testing.T) {
	assert.Equal(t, Negative, top(ScoreSentiment("I lost my job today")).Label)
	assert.Equal(t, Positive, top(ScoreSentiment("Thank you, this is great")).Label)
	assert.Equal(t, chat.Score{Label: NeutralSentiment, Score: 1}, top(ScoreSentiment("The bus leaves at five")))
}
