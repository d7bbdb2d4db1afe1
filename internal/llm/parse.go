package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// rawCandidate tolerates the field spellings models actually emit.
type rawCandidate struct {
	Topic      string   `json:"topic"`
	Title      string   `json:"title"`
	Hook       string   `json:"hook"`
	Facts      []string `json:"facts"`
	Fact1      string   `json:"fact1"`
	Fact2      string   `json:"fact2"`
	Fact3      string   `json:"fact3"`
	Fact4      string   `json:"fact4"`
	Payoff     string   `json:"payoff"`
	ViralScore *float64 `json:"viral_score"`
}

var jsonObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// ParseCandidates extracts script candidates from a model response. Models
// wrap JSON in prose and code fences, so parsing falls through three
// strategies: the whole response, the outermost bracketed slice, then
// individual object matches. Incomplete candidates are dropped.
func ParseCandidates(response string) ([]ScriptCandidate, error) {
	cleaned := stripCodeFences(response)

	var raws []rawCandidate
	if err := json.Unmarshal([]byte(cleaned), &raws); err != nil {
		raws = parseBracketSlice(cleaned)
	}
	if len(raws) == 0 {
		raws = parseObjectMatches(cleaned)
	}

	var candidates []ScriptCandidate
	for _, raw := range raws {
		candidate := raw.normalize()
		if candidate.Complete() {
			candidates = append(candidates, candidate)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no usable scripts in response")
	}
	return candidates, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func parseBracketSlice(s string) []rawCandidate {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil
	}
	var raws []rawCandidate
	if err := json.Unmarshal([]byte(s[start:end+1]), &raws); err != nil {
		return nil
	}
	return raws
}

func parseObjectMatches(s string) []rawCandidate {
	var raws []rawCandidate
	for _, match := range jsonObjectPattern.FindAllString(s, -1) {
		var raw rawCandidate
		if err := json.Unmarshal([]byte(match), &raw); err != nil {
			continue
		}
		raws = append(raws, raw)
	}
	return raws
}

func (r rawCandidate) normalize() ScriptCandidate {
	candidate := ScriptCandidate{
		Topic:      strings.TrimSpace(r.Topic),
		Hook:       strings.TrimSpace(r.Hook),
		Fact1:      strings.TrimSpace(r.Fact1),
		Fact2:      strings.TrimSpace(r.Fact2),
		Fact3:      strings.TrimSpace(r.Fact3),
		Fact4:      strings.TrimSpace(r.Fact4),
		Payoff:     strings.TrimSpace(r.Payoff),
		ViralScore: 0.5,
	}
	if candidate.Topic == "" {
		candidate.Topic = strings.TrimSpace(r.Title)
	}
	if len(r.Facts) >= 4 {
		candidate.Fact1 = strings.TrimSpace(r.Facts[0])
		candidate.Fact2 = strings.TrimSpace(r.Facts[1])
		candidate.Fact3 = strings.TrimSpace(r.Facts[2])
		candidate.Fact4 = strings.TrimSpace(r.Facts[3])
	}
	if r.ViralScore != nil && *r.ViralScore >= 0 && *r.ViralScore <= 1 {
		candidate.ViralScore = *r.ViralScore
	}
	return candidate
}
