package matching

import (
	"fmt"
	"math"
	"strings"
)

const (
	skillWeight      = 40
	keywordWeight    = 30
	experienceWeight = 30

	maxSuggestionItems = 3
)

// ComputeScore combines the three similarities into an integer in [0, 100]
// using fixed 40/30/30 weights.
func ComputeScore(skills, keywords, experience float64) int {
	raw := sanitize(skills)*skillWeight + sanitize(keywords)*keywordWeight + sanitize(experience)*experienceWeight
	score := int(math.Round(raw))
	return max(0, min(100, score))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// FindMissingSkills returns skills present in the job text but not in the resume.
func FindMissingSkills(resume, job string, skills []string) []string {
	missing := make([]string, 0)
	for _, s := range skills {
		if strings.Contains(job, s) && !strings.Contains(resume, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// FindMissingKeywords returns job keywords absent from the resume.
func FindMissingKeywords(resume string, keywords []string) []string {
	missing := make([]string, 0)
	for _, k := range keywords {
		if !strings.Contains(resume, k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// FindMissingExperience returns experience requirements mentioned by the job
// but absent from the resume.
func FindMissingExperience(resume, job string) []string {
	missing := make([]string, 0)
	for _, e := range experienceRequirements {
		if strings.Contains(job, e) && !strings.Contains(resume, e) {
			missing = append(missing, e)
		}
	}
	return missing
}

// GenerateImprovementSuggestions never returns an empty slice.
func GenerateImprovementSuggestions(missingSkills, missingKeywords, missingExperience []string, score int) []string {
	suggestions := make([]string, 0, 5)

	if len(missingSkills) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Consider adding these skills to your resume: %s", firstN(missingSkills)))
	}
	if len(missingKeywords) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Include these keywords from the job description: %s", firstN(missingKeywords)))
	}
	if len(missingExperience) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Highlight your experience with: %s", firstN(missingExperience)))
	}
	if score < 50 {
		suggestions = append(suggestions, "Gain more relevant experience in the areas this role focuses on")
	}
	if score < 30 {
		suggestions = append(suggestions, "Focus on developing the core skills required for this position")
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Your resume is well aligned with this job description. Keep it updated with your latest achievements.")
	}
	return suggestions
}

// firstN joins the first maxSuggestionItems entries in their original order.
func firstN(items []string) string {
	if len(items) > maxSuggestionItems {
		items = items[:maxSuggestionItems]
	}
	return strings.Join(items, ", ")
}
