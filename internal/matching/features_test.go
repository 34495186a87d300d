package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSkills(t *testing.T) {
	resume := Normalize("Experienced JavaScript developer with React and leadership skills")
	job := Normalize("Looking for a JavaScript and Python developer with strong leadership and teamwork")

	skills := ExtractSkills(resume, job)

	assert.Equal(t, []string{"javascript", "python", "java", "react", "leadership", "teamwork"}, skills)
}

func TestExtractSkillsEmpty(t *testing.T) {
	assert.Empty(t, ExtractSkills("", ""))
	assert.Equal(t, []string{"python"}, ExtractSkills("python", ""))
}

func TestExtractJobKeywordsOrdering(t *testing.T) {
	job := Normalize("golang services; kubernetes and golang. Build services with golang, the team")

	keywords := ExtractJobKeywords(job)

	require.NotEmpty(t, keywords)
	assert.Equal(t, []string{"golang", "services", "kubernetes", "build", "with", "team"}, keywords)
}

func TestExtractJobKeywordsLimit(t *testing.T) {
	words := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		words = append(words, "word"+strings.Repeat("x", i))
	}

	keywords := ExtractJobKeywords(strings.Join(words, " "))

	require.Len(t, keywords, maxJobKeywords)
	assert.Equal(t, words[:maxJobKeywords], keywords)
}

func TestExtractJobKeywordsSkipsShortTokens(t *testing.T) {
	assert.Empty(t, ExtractJobKeywords("a an the and for"))
	assert.Empty(t, ExtractJobKeywords(""))
}
