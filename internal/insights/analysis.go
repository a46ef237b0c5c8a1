// Package insights scores borrower engagement and classifies message tone.
package insights

import (
	"math"
	"strings"
	"time"
)

// Sentiment labels.
const (
	SentimentNegative = "negative"
	SentimentHesitant = "hesitant"
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
)

type keywordRule struct {
	label    string
	keywords []string
}

// Rules are checked in order and the first hit wins.
var sentimentRules = []keywordRule{
	{SentimentNegative, []string{"i don't know", "confused", "lost", "stressed", "upset", "frustrated", "worried"}},
	{SentimentHesitant, []string{"maybe", "not sure", "i guess", "thinking about", "possibly"}},
	{SentimentPositive, []string{"great", "perfect", "love it", "awesome", "ready", "let's do it"}},
}

var objectionRules = []keywordRule{
	{"rate_objection", []string{"rate too high", "high rate", "better rate", "another lender", "shopping", "shop around"}},
	{"payment_objection", []string{"payment too high", "can't afford", "too expensive", "monthly payment"}},
	{"trust_objection", []string{"not sure", "don't trust", "scam", "nervous", "unsure"}},
	{"documentation_objection", []string{"too many documents", "don't want to upload", "privacy", "why do you need"}},
	{"timing_objection", []string{"need to think", "call later", "not ready", "wait", "maybe later"}},
}

func firstMatch(rules []keywordRule, text string) string {
	text = strings.ToLower(text)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(text, k) {
				return r.label
			}
		}
	}
	return ""
}

// AnalyzeSentiment classifies text as negative, hesitant, positive or neutral.
func AnalyzeSentiment(text string) string {
	if label := firstMatch(sentimentRules, text); label != "" {
		return label
	}
	return SentimentNeutral
}

// DetectObjection returns the objection type raised in text, or "".
func DetectObjection(text string) string {
	return firstMatch(objectionRules, text)
}

var eventWeights = map[string]float64{
	"opened":            10,
	"viewed":            15,
	"downloaded":        20,
	"uploaded":          35,
	"condition_cleared": 25,
	"emailed":           5,
	"status_changed":    5,
}

// EngagementScore weights recent borrower activity into a 0..100 score.
// Unknown event types count for nothing.
func EngagementScore(events []Event, now time.Time) int {
	var score float64
	for _, e := range events {
		base, ok := eventWeights[e.EventType]
		if !ok {
			continue
		}
		hours := now.Sub(e.CreatedAt).Hours()
		switch {
		case hours < 6:
			base *= 1.4
		case hours < 24:
			base *= 1.2
		case hours < 48:
			base *= 1.05
		}
		score += base
	}
	return int(math.Min(100, math.Round(score)))
}
