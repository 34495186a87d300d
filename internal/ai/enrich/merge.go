package enrich

import (
	"strings"

	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	MinListEntries     = 6
	KeywordPlaceholder = "No keyword"
	SkillPlaceholder   = "No skill"
)

// Merge returns a copy of base with the provider's narrative applied. The
// score and similarity breakdown always stay deterministic. Fields the
// provider left out keep their deterministic values.
func Merge(base *matching.MatchAnalysis, p *Payload, resumeText string) *matching.MatchAnalysis {
	out := base.Clone()
	if out == nil || p == nil {
		return out
	}

	if p.Name != "" {
		out.Name = p.Name
	}
	if p.Role != "" {
		out.Role = p.Role
	}
	if p.JobKeywords != nil {
		out.JobKeywords = mergeKeywords(p.JobKeywords)
	}
	if p.JobSkills != nil {
		out.Skills = mergeSkills(p.JobSkills, matching.Normalize(resumeText))
	}
	if p.MissingSkills != nil {
		out.MissingSkills = p.MissingSkills
	}
	if p.MissingExperience != nil {
		out.MissingExperience = p.MissingExperience
	}
	if p.Summary != "" {
		out.Summary = p.Summary
	}
	if len(p.ImprovementSuggestions) > 0 {
		out.ImprovementSuggestions = p.ImprovementSuggestions
	}
	if p.WhatMattersMost != "" {
		out.WhatMattersMost = p.WhatMattersMost
	}

	out.JobKeywords = padKeywords(out.JobKeywords)
	out.Skills = padSkills(out.Skills)
	out.MissingForPerfectMatch = matching.MissingForPerfectMatch(out.MissingSkills, out.MissingKeywords, out.MissingExperience)

	return out
}

func mergeKeywords(items []Item) []matching.Keyword {
	out := make([]matching.Keyword, 0, len(items))
	for _, it := range items {
		word := it.Label()
		if word == "" {
			continue
		}
		out = append(out, matching.Keyword{Word: word, Category: category(it.Category, word)})
	}
	return out
}

func mergeSkills(items []Item, normalizedResume string) []matching.Skill {
	out := make([]matching.Skill, 0, len(items))
	for _, it := range items {
		name := it.Label()
		if name == "" {
			continue
		}
		norm := matching.Normalize(name)
		out = append(out, matching.Skill{
			Name:            name,
			Category:        category(it.Category, name),
			PresentInResume: norm != "" && strings.Contains(normalizedResume, norm),
			Highlight:       true,
		})
	}
	return out
}

func category(label, term string) matching.SkillCategory {
	if c, ok := matching.ParseCategory(label); ok {
		return c
	}
	return matching.CategorizeSkill(term)
}

func padKeywords(in []matching.Keyword) []matching.Keyword {
	for len(in) < MinListEntries {
		in = append(in, matching.Keyword{Word: KeywordPlaceholder, Category: matching.CategoryCore})
	}
	return in
}

func padSkills(in []matching.Skill) []matching.Skill {
	for len(in) < MinListEntries {
		in = append(in, matching.Skill{Name: SkillPlaceholder, Category: matching.CategoryCore})
	}
	return in
}
