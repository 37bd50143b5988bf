package interview

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scorePattern = regexp.MustCompile(`(?i)(?:score|评分|得分)\s*[:：]\s*(\d{1,3})`)
	levelPattern = regexp.MustCompile(`(?i)(?:level|等级)\s*[:：]\s*([^\s,，。.]+)`)
)

// ParseAssessment pulls the score and level the model wrote into its final
// turn. Missing values come back as 0 and "". Scores are clamped to 0..100.
func ParseAssessment(text string) (score int, level string) {
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		score, _ = strconv.Atoi(m[1])
		if score > 100 {
			score = 100
		}
	}

	if m := levelPattern.FindStringSubmatch(text); m != nil {
		level = strings.ToLower(strings.Trim(m[1], "*_`\"'"))
	}

	return score, level
}
