package publisher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var contentWordPattern = regexp.MustCompile(`\b[a-z]{4,}\b`)

var hashtagStopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true,
	"have": true, "been": true, "were": true, "they": true,
}

var commonHashtags = []string{
	"#fyp", "#foryou", "#viral", "#trending", "#explore",
	"#didyouknow", "#facts", "#mindblown", "#interesting",
	"#learnontiktok", "#educational", "#amazing", "#wow",
	"#reels", "#fbreels", "#facebookreels",
}

// categoryHashtags is ordered; the first category whose name appears in the
// combined text wins.
var categoryHashtags = []struct {
	category string
	tags     []string
}{
	{"science", []string{"#science", "#scientists", "#research", "#discovery", "#biology"}},
	{"animal", []string{"#animals", "#wildlife", "#nature", "#animalfacts", "#pets"}},
	{"space", []string{"#space", "#universe", "#astronomy", "#galaxy", "#nasa"}},
	{"ocean", []string{"#ocean", "#marine", "#sealife", "#underwater", "#fish"}},
	{"psychology", []string{"#psychology", "#mentalhealth", "#brain", "#mindset", "#therapy"}},
	{"food", []string{"#food", "#foodscience", "#cooking", "#chef", "#nutrition"}},
	{"nature", []string{"#nature", "#environment", "#earth", "#wild", "#outdoors"}},
	{"history", []string{"#history", "#historical", "#past", "#civilization", "#ancient"}},
	{"technology", []string{"#technology", "#tech", "#innovation", "#future", "#gadgets"}},
	{"health", []string{"#health", "#wellness", "#fitness", "#medical", "#body"}},
	{"human body", []string{"#humanbody", "#anatomy", "#health", "#biology", "#science"}},
}

// GenerateHashtags derives up to five hashtags from the script text: the
// most frequent content words first, then three tags from the first matching
// topic category, then the top of the common viral pool. Deterministic for
// the same input.
func GenerateHashtags(topic, hook, payoff string) string {
	text := strings.ToLower(fmt.Sprintf("%s %s %s", topic, hook, payoff))

	type wordCount struct {
		word  string
		count int
	}
	counts := make(map[string]int)
	var order []string
	for _, word := range contentWordPattern.FindAllString(text, -1) {
		if hashtagStopwords[word] {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	ranked := make([]wordCount, 0, len(order))
	for _, word := range order {
		ranked = append(ranked, wordCount{word, counts[word]})
	}
	// stable sort keeps first-seen order among equal frequencies
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].count > ranked[j].count
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	var all []string
	for _, wc := range ranked {
		all = append(all, "#"+wc.word)
	}
	for _, entry := range categoryHashtags {
		if strings.Contains(text, entry.category) {
			all = append(all, entry.tags[:3]...)
			break
		}
	}
	all = append(all, commonHashtags[:3]...)

	seen := make(map[string]bool)
	var unique []string
	for _, tag := range all {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		unique = append(unique, tag)
		if len(unique) == 5 {
			break
		}
	}

	return strings.Join(unique, " ")
}

// BuildCaption formats the publish caption: hook, payoff and hashtags.
// Tags derive from the hook and payoff only; the topic stays out of the
// frequency pool and category matching.
func BuildCaption(hook, payoff string) string {
	hashtags := GenerateHashtags("", hook, payoff)
	return fmt.Sprintf("%s 🤯\n\n%s\n\n%s", hook, payoff, hashtags)
}
