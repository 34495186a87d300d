package matching

import (
	"slices"
	"strings"
)

const maxJobKeywords = 20

// skillsVocabulary is the reference vocabulary skills are drawn from. Terms are
// stored in normalized form so they can be matched against normalized text.
var skillsVocabulary = []string{
	// languages
	"javascript", "typescript", "python", "java", "golang", "rust", "ruby", "php",
	"swift", "kotlin", "scala",
	// frameworks and runtimes
	"react", "angular", "vue", "node", "express", "django", "flask", "spring",
	// data
	"sql", "postgresql", "mysql", "mongodb", "redis", "graphql", "machine learning",
	"data analysis", "tableau", "excel",
	// platform
	"docker", "kubernetes", "aws", "azure", "gcp", "terraform", "linux", "git",
	"ci cd", "microservices", "rest", "api", "html", "css", "testing", "devops",
	// process
	"agile", "scrum",
	// soft skills
	"leadership", "communication", "teamwork", "problem solving", "collaboration",
	"mentoring", "management", "time management", "critical thinking", "creativity",
	"adaptability", "negotiation", "presentation", "analytical", "customer service",
}

// experienceIndicators are words that signal professional experience.
var experienceIndicators = []string{
	"experience", "years", "managed", "led", "developed", "implemented", "designed",
	"built", "created", "improved", "achieved", "responsible", "senior",
}

// experienceRequirements is the vocabulary used to report missing experience.
var experienceRequirements = []string{
	"leadership", "management", "team", "project", "agile", "scrum", "mentoring",
	"training", "collaboration",
}

// ExtractSkills returns the reference skills found in either text, in
// vocabulary order. Both texts must already be normalized.
func ExtractSkills(resume, job string) []string {
	found := make([]string, 0)
	for _, skill := range skillsVocabulary {
		if strings.Contains(resume, skill) || strings.Contains(job, skill) {
			found = append(found, skill)
		}
	}
	return found
}

// ExtractJobKeywords returns up to 20 tokens longer than three characters,
// ordered by descending frequency. Ties keep first-occurrence order.
func ExtractJobKeywords(job string) []string {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, token := range strings.Fields(job) {
		if len(token) <= 3 {
			continue
		}
		if _, seen := counts[token]; !seen {
			order = append(order, token)
		}
		counts[token]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(order) > maxJobKeywords {
		order = order[:maxJobKeywords]
	}
	return order
}

// keywordFrequencies counts occurrences of each keyword token in the job text.
func keywordFrequencies(job string) map[string]int {
	counts := make(map[string]int)
	for _, token := range strings.Fields(job) {
		counts[token]++
	}
	return counts
}

// ExtractFeatures derives all three feature lists from normalized texts.
func ExtractFeatures(resume, job string) FeatureSet {
	return FeatureSet{
		Skills:               ExtractSkills(resume, job),
		JobKeywords:          ExtractJobKeywords(job),
		ExperienceIndicators: slices.Clone(experienceIndicators),
	}
}
