package renderer

import (
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

// Resume is the structured content shared by every layout.
type Resume struct {
	Name       string   `json:"name"`
	Objective  string   `json:"objective"`
	Experience []string `json:"experience"`
	Skills     []string `json:"skills"`
	Education  string   `json:"education"`
	Additional string   `json:"additional"`
}

var (
	nameMarkers        = [][2]string{{"меня", "зовут"}, {"my", "name is"}}
	goalMarkers        = []string{"цель", "хочу", "goal", "want to", "aim"}
	skillMarkers       = []string{"навы", "skill", "уме", "tools", "инструмент"}
	achievementMarkers = []string{"результ", "достиг", "улуч", "result", "achiev", "improv", "led "}
	educationMarkers   = []string{"университет", "академ", "бакалавр", "магистр", "university", "bachelor", "master", "degree", "course", "курс"}
)

// Extract pulls resume sections out of the user's answers with keyword
// heuristics. fallbackName is used when no answer introduces the candidate.
func Extract(messages []*models.Message, fallbackName string) Resume {
	answers := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Role != models.RoleUser {
			continue
		}
		if s := strings.TrimSpace(m.Content); s != "" {
			answers = append(answers, s)
		}
	}

	r := Resume{
		Name:       extractName(answers),
		Objective:  firstMatching(answers, goalMarkers),
		Experience: allMatching(answers, achievementMarkers),
		Skills:     extractSkills(answers),
		Education:  firstMatching(answers, educationMarkers),
	}
	if r.Name == "" {
		r.Name = strings.TrimSpace(fallbackName)
	}
	return r
}

func containsAny(s string, markers []string) bool {
	lowered := strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

func firstMatching(answers []string, markers []string) string {
	for _, a := range answers {
		if containsAny(a, markers) {
			return a
		}
	}
	return ""
}

func allMatching(answers []string, markers []string) []string {
	var out []string
	for _, a := range answers {
		if containsAny(a, markers) {
			out = append(out, a)
		}
	}
	return out
}

func extractName(answers []string) string {
	for _, a := range answers {
		lowered := strings.ToLower(a)
		for _, pair := range nameMarkers {
			if !strings.Contains(lowered, pair[0]) {
				continue
			}
			idx := strings.Index(lowered, pair[1])
			if idx < 0 {
				continue
			}
			src := a
			if len(src) != len(lowered) {
				src = lowered
			}
			words := strings.Fields(src[idx+len(pair[1]):])
			if len(words) > 2 {
				words = words[:2]
			}
			for i, w := range words {
				words[i] = strings.Trim(w, ",.;:!?")
			}
			if name := strings.TrimSpace(strings.Join(words, " ")); name != "" {
				return name
			}
		}
	}
	return ""
}

func extractSkills(answers []string) []string {
	seen := make(map[string]struct{})
	var skills []string
	for _, a := range answers {
		if !containsAny(a, skillMarkers) {
			continue
		}
		for _, chunk := range strings.Split(strings.ReplaceAll(a, ";", ","), ",") {
			if i := strings.Index(chunk, ":"); i >= 0 {
				chunk = chunk[i+1:]
			}
			chunk = capitalize(strings.TrimSpace(chunk))
			if chunk == "" {
				continue
			}
			key := strings.ToLower(chunk)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, chunk)
		}
	}
	return skills
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
