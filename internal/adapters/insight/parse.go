package insight

import (
	"encoding/json"
	"strings"
)

// Parse decodes model output into Insights. Surrounding markdown code
// fences are tolerated. Any JSON object is accepted, missing fields stay
// empty. ok is false when the text does not decode; callers fall back to
// Degraded.
func Parse(raw string) (Insights, bool) {
	text := stripFence(strings.TrimSpace(raw))

	var ins Insights
	if err := json.Unmarshal([]byte(text), &ins); err != nil {
		return Insights{}, false
	}
	if ins.Strengths == nil {
		ins.Strengths = []string{}
	}
	if ins.Improvements == nil {
		ins.Improvements = []Improvement{}
	}
	if ins.TrainingRecommendations == nil {
		ins.TrainingRecommendations = []Training{}
	}
	return ins, true
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
