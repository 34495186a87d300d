package matching

import (
	"math"
	"strings"
)

// BuildPresenceVector returns a 0/1 vector with one position per feature,
// set when the normalized text contains that feature as a substring.
func BuildPresenceVector(text string, features []string) []int {
	vec := make([]int, len(features))
	for i, f := range features {
		if f != "" && strings.Contains(text, f) {
			vec[i] = 1
		}
	}
	return vec
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero-magnitude or mismatched vectors yield 0.
func CosineSimilarity(a, b []int) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}

// Similarities computes skill, keyword and experience similarities between
// the normalized resume and job texts over the given feature set.
func Similarities(resume, job string, fs FeatureSet) Similarity {
	sim := func(features []string) float64 {
		return CosineSimilarity(BuildPresenceVector(resume, features), BuildPresenceVector(job, features))
	}

	return Similarity{
		Skills:     sim(fs.Skills),
		Keywords:   sim(fs.JobKeywords),
		Experience: sim(fs.ExperienceIndicators),
	}
}
