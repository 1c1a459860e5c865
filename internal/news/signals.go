package news

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

var hookPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)breakthrough|revolutionary|innovative|game-changing`),
	regexp.MustCompile(`(?i)exclusive|limited|secret|insider`),
	regexp.MustCompile(`(?i)trending|viral|popular|hot`),
	regexp.MustCompile(`(?i)save|discount|deal|offer`),
	regexp.MustCompile(`(?i)new|latest|fresh|updated`),
}

// MarketingHooks returns the hook words found in text, lower-cased and
// deduplicated in the order they were found. Matches are substrings, so
// "photos" yields "hot".
func MarketingHooks(text string) []string {
	seen := make(map[string]struct{})
	hooks := []string{}
	for _, re := range hookPatterns {
		for _, m := range re.FindAllString(text, -1) {
			h := strings.ToLower(m)
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			hooks = append(hooks, h)
		}
	}
	return hooks
}

var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "success", "growth", "win"}
	negativeWords = []string{"bad", "terrible", "fail", "loss", "decline", "crisis"}
)

// Sentiment classifies text by counting space-separated words that contain a
// positive or negative marker.
func Sentiment(text string) string {
	var positive, negative int
	for _, word := range strings.Split(strings.ToLower(text), " ") {
		if containsAny(word, positiveWords) {
			positive++
		}
		if containsAny(word, negativeWords) {
			negative++
		}
	}
	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func containsAny(word string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(word, m) {
			return true
		}
	}
	return false
}

// TrendScore rates an article from 0 to 100. Recency contributes up to 100
// points, losing one per hour; viral titles and marketing descriptions earn
// bonuses.
func TrendScore(a Article, now time.Time) int {
	score := 0.0
	if published, ok := ParsePublished(a.PublishedAt, now); ok {
		hoursAgo := now.Sub(published).Hours()
		score = math.Max(0, 100-hoursAgo)
	}
	if strings.Contains(a.Title, "viral") || strings.Contains(a.Title, "trending") {
		score += 20
	}
	if strings.Contains(a.Description, "marketing") || strings.Contains(a.Description, "advertising") {
		score += 15
	}
	return int(math.Min(100, math.Round(score)))
}

var relativeDate = regexp.MustCompile(`(?i)^(\d+)\s+(second|sec|minute|min|hour|hr|day|week|month|year)s?\s+ago$`)

var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02",
}

// ParsePublished parses a SERP date. It accepts RFC 3339 and a few absolute
// layouts as well as relative forms such as "3 hours ago".
func ParsePublished(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if m := relativeDate.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		var unit time.Duration
		switch strings.ToLower(m[2]) {
		case "second", "sec":
			unit = time.Second
		case "minute", "min":
			unit = time.Minute
		case "hour", "hr":
			unit = time.Hour
		case "day":
			unit = 24 * time.Hour
		case "week":
			unit = 7 * 24 * time.Hour
		case "month":
			unit = 30 * 24 * time.Hour
		case "year":
			unit = 365 * 24 * time.Hour
		}
		return now.Add(-time.Duration(n) * unit), true
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
