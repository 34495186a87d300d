package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScore(t *testing.T) {
	assert.Equal(t, 0, ComputeScore(0, 0, 0))
	assert.Equal(t, 100, ComputeScore(1, 1, 1))
	assert.Equal(t, 40, ComputeScore(1, 0, 0))
	assert.Equal(t, 51, ComputeScore(0.75, 0.7071, 0))
	assert.Equal(t, 100, ComputeScore(2, 2, 2))
	assert.Equal(t, 0, ComputeScore(-1, -1, -1))
	assert.Equal(t, 30, ComputeScore(math.NaN(), 1, 0))
}

func TestComputeScoreMonotonic(t *testing.T) {
	steps := []float64{0, 0.1, 0.25, 0.33, 0.5, 0.66, 0.75, 0.9, 1}

	for _, a := range steps {
		for _, b := range steps {
			prev := [3]int{-1, -1, -1}
			for _, x := range steps {
				got := [3]int{ComputeScore(x, a, b), ComputeScore(a, x, b), ComputeScore(a, b, x)}
				for i, s := range got {
					require.GreaterOrEqual(t, s, 0)
					require.LessOrEqual(t, s, 100)
					require.GreaterOrEqual(t, s, prev[i], "score decreased for input %d", i)
				}
				prev = got
			}
		}
	}
}

func TestFindMissing(t *testing.T) {
	resume := "go developer with docker and team leadership"
	job := "go python docker kubernetes leadership mentoring project"

	assert.Equal(t, []string{"python", "kubernetes"}, FindMissingSkills(resume, job, []string{"go", "python", "docker", "kubernetes", "rust"}))
	assert.Equal(t, []string{"python", "kubernetes"}, FindMissingKeywords(resume, []string{"python", "docker", "kubernetes"}))
	assert.Equal(t, []string{"project", "mentoring"}, FindMissingExperience(resume, job))
}

func TestGenerateImprovementSuggestions(t *testing.T) {
	tests := []struct {
		name       string
		skills     []string
		keywords   []string
		experience []string
		score      int
		expect     []string
	}{
		{
			name:   "nothing missing high score",
			score:  90,
			expect: []string{"Your resume is well aligned with this job description. Keep it updated with your latest achievements."},
		},
		{
			name:     "lists first three items",
			skills:   []string{"python", "rust", "go", "java"},
			keywords: []string{"cloud"},
			score:    70,
			expect: []string{
				"Consider adding these skills to your resume: python, rust, go",
				"Include these keywords from the job description: cloud",
			},
		},
		{
			name:       "low score adds unconditional suggestions",
			experience: []string{"agile"},
			score:      20,
			expect: []string{
				"Highlight your experience with: agile",
				"Gain more relevant experience in the areas this role focuses on",
				"Focus on developing the core skills required for this position",
			},
		},
		{
			name:  "between thirty and fifty",
			score: 45,
			expect: []string{
				"Gain more relevant experience in the areas this role focuses on",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateImprovementSuggestions(tt.skills, tt.keywords, tt.experience, tt.score)
			assert.Equal(t, tt.expect, got)
		})
	}

	for score := 0; score <= 100; score++ {
		require.NotEmpty(t, GenerateImprovementSuggestions(nil, nil, nil, score))
	}
}
