package scraper

import (
	"regexp"
	"sort"
	"strings"
)

const maxKeywords = 15

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and or but in on at to for of with by is are was were be been
		have has had do does did will would could should may might must shall can this that these
		those a an as from up out off over under again further then once`) {
		stopWords[w] = struct{}{}
	}
}

var wordPattern = regexp.MustCompile(`\b\w{3,}\b`)

// ExtractKeywords returns up to 15 of the most frequent non stop-words of at
// least three characters. Ties keep the order of first appearance.
func ExtractKeywords(title, description string, features []string) []string {
	text := strings.ToLower(title + " " + description + " " + strings.Join(features, " "))

	counts := map[string]int{}
	var order []string
	for _, word := range wordPattern.FindAllString(text, -1) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	if order == nil {
		return []string{}
	}
	return order
}

type audienceRule struct {
	name  string
	terms []string
}

var audienceRules = []audienceRule{
	{"Gamers", []string{"gaming", "gamer", "esports"}},
	{"Business Professionals", []string{"business", "office", "professional"}},
	{"Home Users", []string{"home", "family", "household"}},
	{"Fitness Enthusiasts", []string{"fitness", "health", "workout", "exercise"}},
	{"Tech Enthusiasts", []string{"tech", "electronic", "smart", "digital"}},
	{"Students", []string{"student", "education", "school", "college"}},
	{"Parents", []string{"parent", "baby", "kid", "child"}},
	{"Outdoor Enthusiasts", []string{"outdoor", "camping", "hiking", "adventure"}},
	{"Cooking Enthusiasts", []string{"cook", "kitchen", "recipe", "chef"}},
	{"Pet Owners", []string{"pet", "dog", "cat", "animal"}},
}

// InferAudience maps substring matches over the product text to audience
// segments. Matching is by substring, so "smartphone" counts as "smart".
func InferAudience(title, description, category string) []string {
	text := strings.ToLower(title + " " + description + " " + category)
	var audiences []string
	for _, rule := range audienceRules {
		for _, term := range rule.terms {
			if strings.Contains(text, term) {
				audiences = append(audiences, rule.name)
				break
			}
		}
	}
	if len(audiences) == 0 {
		return []string{"General Consumers"}
	}
	return audiences
}

var (
	categorySlug    = regexp.MustCompile(`/([^/]+)/dp/`)
	wordStart       = regexp.MustCompile(`\b\w`)
	brandBeforeDash = regexp.MustCompile(`^([A-Z][a-zA-Z0-9&\s]+?)\s+[-–—]`)
	brandLeading    = regexp.MustCompile(`^([A-Z][a-zA-Z0-9&\s]+?)\s+\w+`)
)

// CategoryFromURL derives a category from the slug before /dp/ in an Amazon
// product URL, e.g. /Wireless-Earbuds/dp/ becomes "Wireless Earbuds".
func CategoryFromURL(url string) string {
	match := categorySlug.FindStringSubmatch(url)
	if match == nil {
		return "General"
	}
	slug := strings.ReplaceAll(match[1], "-", " ")
	return wordStart.ReplaceAllStringFunc(slug, strings.ToUpper)
}

// BrandFromTitle guesses the brand from the leading capitalized words of a
// title.
func BrandFromTitle(title string) string {
	for _, pattern := range []*regexp.Regexp{brandBeforeDash, brandLeading} {
		if match := pattern.FindStringSubmatch(title); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return "Unknown"
}
