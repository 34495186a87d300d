package matching

import (
	"fmt"
	"strings"
)

var hardSkillTerms = []string{
	"javascript", "typescript", "python", "java", "golang", "rust", "ruby", "php",
	"swift", "kotlin", "scala", "react", "angular", "vue", "node", "express",
	"django", "flask", "spring", "sql", "postgres", "mysql", "mongo", "redis",
	"graphql", "docker", "kubernetes", "aws", "azure", "gcp", "terraform", "linux",
	"git", "html", "css", "api", "rest", "microservices", "machine learning",
	"data", "tableau", "excel", "testing", "devops", "ci cd", "cloud", "security",
}

var softSkillTerms = []string{
	"leadership", "communication", "teamwork", "team", "problem solving",
	"collaboration", "mentoring", "management", "time management",
	"critical thinking", "creativity", "adaptability", "negotiation",
	"presentation", "analytical", "customer service", "organization", "interpersonal",
}

// CategorizeSkill classifies a skill name case-insensitively. Hard skills are
// checked before soft skills; anything else is Core.
func CategorizeSkill(name string) SkillCategory {
	n := Normalize(name)
	if n == "" {
		return CategoryCore
	}

	for _, term := range hardSkillTerms {
		if strings.Contains(n, term) {
			return CategoryHardSkill
		}
	}
	for _, term := range softSkillTerms {
		if strings.Contains(n, term) {
			return CategorySoftSkill
		}
	}
	return CategoryCore
}

// GenerateSummary describes the match in one of four score bands.
func GenerateSummary(score int, sim Similarity) string {
	skills, keywords, experience := percent(sim.Skills), percent(sim.Keywords), percent(sim.Experience)

	switch {
	case score >= 80:
		return fmt.Sprintf("Excellent match! Your resume aligns strongly with this role: %d%% skill overlap, %d%% keyword coverage and %d%% experience alignment.", skills, keywords, experience)
	case score >= 60:
		return fmt.Sprintf("Good match. Your resume covers most requirements with %d%% skill overlap and %d%% keyword coverage; experience alignment is %d%%.", skills, keywords, experience)
	case score >= 40:
		return fmt.Sprintf("Moderate match. Skill overlap is %d%% and keyword coverage is %d%%, with %d%% experience alignment. Tailoring your resume could help.", skills, keywords, experience)
	default:
		return fmt.Sprintf("Low match. Only %d%% skill overlap and %d%% keyword coverage were found, with %d%% experience alignment. Significant changes are needed for this role.", skills, keywords, experience)
	}
}

// DetermineWhatMattersMost gives score-banded guidance.
func DetermineWhatMattersMost(score int) string {
	switch {
	case score >= 80:
		return "You already meet the core requirements. Emphasize measurable achievements and the impact of your work to stand out."
	case score >= 60:
		return "Close the remaining skill gaps and mirror the job description's key terms so your relevant experience is easy to spot."
	default:
		return "Focus on the required technical skills and relevant experience first; these carry the most weight for this role."
	}
}

func percent(v float64) int {
	return int(sanitize(v)*100 + 0.5)
}
