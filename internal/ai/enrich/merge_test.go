package enrich

import (
	"reflect"
	"slices"
	"testing"

	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	mergeResume = "Experienced JavaScript developer with React and leadership skills"
	mergeJob    = "Looking for a JavaScript and Python developer with strong leadership and teamwork"
)

func baseAnalysis(t *testing.T) *matching.MatchAnalysis {
	t.Helper()
	a, err := matching.Analyze(mergeResume, mergeJob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestMergeKeepsScore(t *testing.T) {
	base := baseAnalysis(t)
	payload, err := ParsePayload(`{"summary": "AI summary", "matchScore": 3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged := Merge(base, payload, mergeResume)

	if merged == base {
		t.Fatal("expected a new analysis, got the base pointer")
	}
	if merged.MatchScore != base.MatchScore || merged.Similarity != base.Similarity {
		t.Fatalf("score changed: got %d %+v, want %d %+v", merged.MatchScore, merged.Similarity, base.MatchScore, base.Similarity)
	}
	if merged.Summary != "AI summary" {
		t.Fatalf("expected AI summary, got %q", merged.Summary)
	}
	if merged.WhatMattersMost != base.WhatMattersMost {
		t.Fatalf("omitted fields must stay deterministic, got %q", merged.WhatMattersMost)
	}
	if !reflect.DeepEqual(merged.MissingSkills, base.MissingSkills) {
		t.Fatalf("expected missing skills %v, got %v", base.MissingSkills, merged.MissingSkills)
	}
}

func TestMergePadsLists(t *testing.T) {
	base := baseAnalysis(t)
	payload := &Payload{
		Summary:     "s",
		JobKeywords: []Item{{Word: "python", Category: "Hard Skill"}, {Word: "teamwork"}},
		JobSkills:   []Item{{Name: "React"}, {Name: "Python", Category: "bogus"}},
	}

	merged := Merge(base, payload, mergeResume)

	if len(merged.JobKeywords) != MinListEntries {
		t.Fatalf("expected %d keywords, got %d", MinListEntries, len(merged.JobKeywords))
	}
	if want := (matching.Keyword{Word: "python", Category: matching.CategoryHardSkill}); merged.JobKeywords[0] != want {
		t.Fatalf("expected %+v, got %+v", want, merged.JobKeywords[0])
	}
	if merged.JobKeywords[1].Category != matching.CategorySoftSkill {
		t.Fatalf("expected teamwork to be a soft skill, got %q", merged.JobKeywords[1].Category)
	}
	for _, k := range merged.JobKeywords[2:] {
		if k.Word != KeywordPlaceholder {
			t.Fatalf("expected placeholder keyword, got %q", k.Word)
		}
	}

	if len(merged.Skills) != MinListEntries {
		t.Fatalf("expected %d skills, got %d", MinListEntries, len(merged.Skills))
	}
	if !merged.Skills[0].PresentInResume {
		t.Fatal("react is in the resume")
	}
	if merged.Skills[1].PresentInResume {
		t.Fatal("python is not in the resume")
	}
	if merged.Skills[1].Category != matching.CategoryHardSkill {
		t.Fatalf("expected python to fall back to hard skill, got %q", merged.Skills[1].Category)
	}
	for _, s := range merged.Skills[2:] {
		if s.Name != SkillPlaceholder || s.PresentInResume {
			t.Fatalf("unexpected padding skill %+v", s)
		}
	}
}

func TestMergeDoesNotTruncateLongLists(t *testing.T) {
	base := baseAnalysis(t)
	items := make([]Item, 8)
	for i := range items {
		items[i] = Item{Word: "kw"}
	}

	merged := Merge(base, &Payload{Summary: "s", JobKeywords: items}, mergeResume)
	if len(merged.JobKeywords) != 8 {
		t.Fatalf("expected 8 keywords, got %d", len(merged.JobKeywords))
	}
}

func TestMergeRebuildsMissingForPerfectMatch(t *testing.T) {
	base := baseAnalysis(t)
	payload := &Payload{
		Summary:           "s",
		MissingSkills:     []string{"Python"},
		MissingExperience: []string{"mentoring"},
	}

	got := Merge(base, payload, mergeResume).MissingForPerfectMatch

	for _, want := range []string{"Skill: Python", "Experience: mentoring"} {
		if !slices.Contains(got, want) {
			t.Fatalf("expected %q in %v", want, got)
		}
	}
	if slices.Contains(got, "Skill: python") {
		t.Fatalf("deterministic missing skill should be replaced, got %v", got)
	}
}

func TestMergeNilPayload(t *testing.T) {
	base := baseAnalysis(t)
	if got := Merge(base, nil, mergeResume); !reflect.DeepEqual(got, base) {
		t.Fatalf("expected base analysis back, got %+v", got)
	}
	if got := Merge(nil, &Payload{}, mergeResume); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
