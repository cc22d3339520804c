package grading

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// BasicCheckGraderID identifies attempts produced by the built-in check.
const BasicCheckGraderID = "basic-check-v1"

// BasicCheck is the cheap pre-grading pass: it strips any markup from the raw
// answer and verifies that real text content remains before the submission is
// allowed to consume grader time.
type BasicCheck struct {
	sanitizer *bluemonday.Policy
	minLength int
}

// NewBasicCheck builds the check. minLength is the minimum number of
// characters the stripped answer must contain.
func NewBasicCheck(minLength int) *BasicCheck {
	if minLength < 1 {
		minLength = 1
	}

	return &BasicCheck{
		sanitizer: bluemonday.StrictPolicy(),
		minLength: minLength,
	}
}

// Evaluate runs the check over a raw answer. When the check fails, feedback
// explains why; that feedback becomes the reported result if no grader ever
// sees the submission.
func (b *BasicCheck) Evaluate(answer string) (bool, string) {
	stripped := strings.TrimSpace(b.sanitizer.Sanitize(answer))
	if stripped == "" {
		return false, "The submission is empty."
	}

	if len([]rune(stripped)) < b.minLength {
		return false, "The submission is too short to be graded."
	}

	if !containsLetter(stripped) {
		return false, "The submission contains no readable text."
	}

	return true, ""
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
