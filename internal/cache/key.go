package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	keyPrefix    = "rm:"
	keySeparator = "_"
	digestBytes  = 16
)

// Key fingerprints a resume/job-description pair. Each side is normalized and
// hashed independently so the order of the two inputs matters.
func Key(resumeText, jobText string) string {
	return keyPrefix + digest(matching.Normalize(resumeText)) + keySeparator + digest(matching.Normalize(jobText))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:digestBytes])
}
