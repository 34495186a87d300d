package matching

import (
	"fmt"
	"strings"
)

const (
	// DefaultName and DefaultRole are used until an enrichment pass supplies
	// the candidate identity.
	DefaultName = "Candidate"
	DefaultRole = "Not specified"
)

// Analyze runs the deterministic pass: normalization, feature extraction,
// cosine similarities, weighted score, missing elements and narrative.
func Analyze(resumeText, jobText string) (*MatchAnalysis, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("%w: resume text is required", ErrInvalidInput)
	}
	if strings.TrimSpace(jobText) == "" {
		return nil, fmt.Errorf("%w: job description text is required", ErrInvalidInput)
	}

	resume := Normalize(resumeText)
	job := Normalize(jobText)

	fs := ExtractFeatures(resume, job)
	sim := Similarities(resume, job, fs)
	score := ComputeScore(sim.Skills, sim.Keywords, sim.Experience)

	missingSkills := FindMissingSkills(resume, job, fs.Skills)
	missingKeywords := FindMissingKeywords(resume, fs.JobKeywords)
	missingExperience := FindMissingExperience(resume, job)

	return &MatchAnalysis{
		Name:                   DefaultName,
		Role:                   DefaultRole,
		MatchScore:             score,
		Skills:                 buildSkills(resume, job, fs.Skills),
		JobKeywords:            buildKeywords(job, fs.JobKeywords),
		MissingSkills:          missingSkills,
		MissingKeywords:        missingKeywords,
		MissingExperience:      missingExperience,
		MissingForPerfectMatch: MissingForPerfectMatch(missingSkills, missingKeywords, missingExperience),
		Summary:                GenerateSummary(score, sim),
		WhatMattersMost:        DetermineWhatMattersMost(score),
		ImprovementSuggestions: GenerateImprovementSuggestions(missingSkills, missingKeywords, missingExperience, score),
		Similarity:             sim,
	}, nil
}

func buildSkills(resume, job string, skills []string) []Skill {
	out := make([]Skill, 0, len(skills))
	for _, s := range skills {
		out = append(out, Skill{
			Name:            s,
			Category:        CategorizeSkill(s),
			PresentInResume: strings.Contains(resume, s),
			Highlight:       strings.Contains(job, s),
		})
	}
	return out
}

// buildKeywords marks keywords repeated in the job description as Emphasis.
func buildKeywords(job string, keywords []string) []Keyword {
	freq := keywordFrequencies(job)
	out := make([]Keyword, 0, len(keywords))
	for _, k := range keywords {
		category := CategorizeSkill(k)
		if freq[k] > 1 {
			category = CategoryEmphasis
		}
		out = append(out, Keyword{Word: k, Category: category})
	}
	return out
}
