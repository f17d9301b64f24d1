package emotion

import (
	"strings"
	"unicode"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

// 情绪标签，与 j-hartmann distilroberta 情绪模型一致。
const (
	Anger    = "anger"
	Disgust  = "disgust"
	Fear     = "fear"
	Joy      = "joy"
	Neutral  = "neutral"
	Sadness  = "sadness"
	Surprise = "surprise"
)

// 情感极性标签，与 sst-2 情感模型一致。
const (
	Positive         = "POSITIVE"
	Negative         = "NEGATIVE"
	NeutralSentiment = "NEUTRAL"
)

// EmotionLabels is the order in which ScoreEmotions reports its distribution.
var EmotionLabels = []string{Anger, Disgust, Fear, Joy, Neutral, Sadness, Surprise}

// SentimentLabels is the order in which ScoreSentiment reports its distribution.
var SentimentLabels = []string{Positive, Negative, NeutralSentiment}

const keywordWeight = 3

type bucket struct {
	label    string
	keywords []string
}

var emotionBuckets = []bucket{
	{label: Anger, keywords: []string{
		"angry", "anger", "furious", "rage", "mad", "annoyed", "pissed", "outraged", "hate", "irritated",
		"fed up", "sick of", "livid", "frustrated", "frustrating", "unfair",
	}},
	{label: Disgust, keywords: []string{
		"disgusting", "disgusted", "gross", "revolting", "nasty", "sickening", "yuck", "repulsive", "vile",
	}},
	{label: Fear, keywords: []string{
		"afraid", "scared", "fear", "terrified", "anxious", "anxiety", "worried", "worry", "nervous",
		"panic", "frightened", "dread", "can't sleep", "what if",
	}},
	{label: Joy, keywords: []string{
		"happy", "glad", "great", "awesome", "amazing", "love", "excited", "wonderful", "thanks",
		"thank you", "delighted", "proud", "fantastic", "joy", "yay", "finally", "celebrate",
	}},
	{label: Sadness, keywords: []string{
		"sad", "unhappy", "lost", "lonely", "alone", "cry", "crying", "depressed", "hurt", "miss",
		"grief", "heartbroken", "upset", "down", "hopeless", "tired of", "sorrow", "fired", "died",
	}},
	{label: Surprise, keywords: []string{
		"wow", "surprised", "unexpected", "suddenly", "shocked", "unbelievable", "no way", "can't believe",
	}},
}

var positiveWords = []string{"good", "nice", "better", "best", "enjoy", "like", "success", "win", "hope"}

var negativeWords = []string{"bad", "worse", "worst", "problem", "fail", "failed", "never", "wrong", "terrible", "awful"}

// ScoreEmotions 返回 EmotionLabels 上的分布，没有命中关键词时完全为 neutral。
func ScoreEmotions(text string) []chat.Score {
	padded := tokenize(text)

	hits := make(map[string]int, len(emotionBuckets))
	total := 0
	for _, b := range emotionBuckets {
		n := countHits(padded, b.keywords) * keywordWeight
		hits[b.label] = n
		total += n
	}

	// exclamations nudge towards surprise, never more than one keyword's worth
	if exclamations := strings.Count(text, "!"); exclamations > 0 && total > 0 {
		boost := exclamations
		if boost > keywordWeight {
			boost = keywordWeight
		}
		hits[Surprise] += boost
		total += boost
	}

	scores := make([]chat.Score, 0, len(EmotionLabels))
	for _, label := range EmotionLabels {
		var value float64
		switch {
		case total == 0 && label == Neutral:
			value = 1
		case total > 0:
			value = float64(hits[label]) / float64(total)
		}
		scores = append(scores, chat.Score{Label: label, Score: value})
	}
	return scores
}

// ScoreSentiment 返回 SentimentLabels 上的分布。
func ScoreSentiment(text string) []chat.Score {
	padded := tokenize(text)

	positive := countHits(padded, positiveWords)
	negative := countHits(padded, negativeWords)
	for _, b := range emotionBuckets {
		n := countHits(padded, b.keywords)
		switch b.label {
		case Joy:
			positive += n
		case Anger, Disgust, Fear, Sadness:
			negative += n
		}
	}

	total := positive + negative
	if total == 0 {
		return []chat.Score{
			{Label: Positive, Score: 0},
			{Label: Negative, Score: 0},
			{Label: NeutralSentiment, Score: 1},
		}
	}
	return []chat.Score{
		{Label: Positive, Score: float64(positive) / float64(total)},
		{Label: Negative, Score: float64(negative) / float64(total)},
		{Label: NeutralSentiment, Score: 0},
	}
}

// tokenize 转小写并按空格分词，首尾补空格以便按词边界匹配关键词。
func tokenize(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return " " + strings.Join(words, " ") + " "
}

func countHits(padded string, keywords []string) int {
	n := 0
	for _, word := range keywords {
		if strings.Contains(padded, " "+word+" ") {
			n++
		}
	}
	return n
}
