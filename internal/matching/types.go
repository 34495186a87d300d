// Package matching implements the deterministic resume/job-description scorer.
//
// Every function in this package is pure: the same resume and job description
// always yield the same MatchAnalysis, which makes the package safe to call from
// any number of goroutines without coordination.
package matching

import (
	"errors"
	"slices"
)

// ErrInvalidInput is returned when the resume or the job description is empty.
var ErrInvalidInput = errors.New("invalid input")

// SkillCategory classifies a skill or keyword for presentation.
type SkillCategory string

const (
	CategoryHardSkill SkillCategory = "Hard Skill"
	CategorySoftSkill SkillCategory = "Soft Skill"
	CategoryCore      SkillCategory = "Core"
	CategoryEmphasis  SkillCategory = "Emphasis"
)

// ParseCategory maps free-form category labels onto a SkillCategory.
// Unknown labels return false.
func ParseCategory(label string) (SkillCategory, bool) {
	switch Normalize(label) {
	case "hard skill", "hard skills", "hardskill", "hard":
		return CategoryHardSkill, true
	case "soft skill", "soft skills", "softskill", "soft":
		return CategorySoftSkill, true
	case "core":
		return CategoryCore, true
	case "emphasis":
		return CategoryEmphasis, true
	default:
		return "", false
	}
}

type Skill struct {
	Name            string        `json:"name"`
	Category        SkillCategory `json:"category"`
	PresentInResume bool          `json:"presentInResume"`
	Highlight       bool          `json:"highlight"`
}

type Keyword struct {
	Word     string        `json:"word"`
	Category SkillCategory `json:"category"`
}

// Similarity holds the three cosine similarities the score is built from.
type Similarity struct {
	Skills     float64 `json:"skills"`
	Keywords   float64 `json:"keywords"`
	Experience float64 `json:"experience"`
}

// FeatureSet is the set of ordered feature lists used to build presence vectors.
type FeatureSet struct {
	Skills               []string
	JobKeywords          []string
	ExperienceIndicators []string
}

// MatchAnalysis is the result of comparing a resume with a job description.
type MatchAnalysis struct {
	Name                   string     `json:"name"`
	Role                   string     `json:"role"`
	MatchScore             int        `json:"matchScore"`
	Skills                 []Skill    `json:"skills"`
	JobKeywords            []Keyword  `json:"jobKeywords"`
	MissingSkills          []string   `json:"missingSkills"`
	MissingKeywords        []string   `json:"missingKeywords"`
	MissingExperience      []string   `json:"missingExperience"`
	MissingForPerfectMatch []string   `json:"missingForPerfectMatch"`
	Summary                string     `json:"summary"`
	WhatMattersMost        string     `json:"whatMattersMost"`
	ImprovementSuggestions []string   `json:"improvementSuggestions"`
	Similarity             Similarity `json:"similarity"`
}

// Clone returns a deep copy so cached results can't be mutated by callers.
func (a *MatchAnalysis) Clone() *MatchAnalysis {
	if a == nil {
		return nil
	}

	out := *a
	out.Skills = slices.Clone(a.Skills)
	out.JobKeywords = slices.Clone(a.JobKeywords)
	out.MissingSkills = slices.Clone(a.MissingSkills)
	out.MissingKeywords = slices.Clone(a.MissingKeywords)
	out.MissingExperience = slices.Clone(a.MissingExperience)
	out.MissingForPerfectMatch = slices.Clone(a.MissingForPerfectMatch)
	out.ImprovementSuggestions = slices.Clone(a.ImprovementSuggestions)

	return &out
}

// MissingForPerfectMatch lists every missing element prefixed by its kind.
func MissingForPerfectMatch(skills, keywords, experience []string) []string {
	out := make([]string, 0, len(skills)+len(keywords)+len(experience))
	for _, s := range skills {
		out = append(out, "Skill: "+s)
	}
	for _, k := range keywords {
		out = append(out, "Keyword: "+k)
	}
	for _, e := range experience {
		out = append(out, "Experience: "+e)
	}
	return out
}
