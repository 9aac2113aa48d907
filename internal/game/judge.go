package game

import (
	"strings"

	"github.com/robalobadob/linguapet/internal/similarity"
)

// DefaultPassThreshold is the similarity a pronunciation must exceed to count as correct.
const DefaultPassThreshold = 0.7

// Verdict is the judged outcome of an attempt.
type Verdict struct {
	Correct     bool    `json:"correct"`
	Similarity  float64 `json:"similarity"`            // 1 or 0 for exact-match kinds
	SoundsAlike bool    `json:"soundsAlike,omitempty"` // pronunciation only
}

// Judge decides whether an attempt answers a challenge.
type Judge struct {
	threshold float64
}

// ValidThreshold reports whether t can serve as a pass threshold: strictly
// between 0 and 1.
func ValidThreshold(t float64) bool { return t > 0 && t < 1 }

// NewJudge returns a Judge using threshold for pronunciation challenges.
// A threshold outside (0,1) falls back to DefaultPassThreshold.
func NewJudge(threshold float64) *Judge {
	if !ValidThreshold(threshold) {
		threshold = DefaultPassThreshold
	}
	return &Judge{threshold: threshold}
}

// Threshold returns the pronunciation pass threshold.
func (j *Judge) Threshold() float64 { return j.threshold }

// Check judges a against c.
//
//   - pronunciation: similarity of the normalized transcript > threshold.
//   - vocabulary, story: the selected option equals the answer.
//   - sentence: equal after case folding, whitespace collapsing and dropping
//     terminal punctuation.
func (j *Judge) Check(c Challenge, a Attempt) (Verdict, error) {
	if err := a.Validate(); err != nil {
		return Verdict{}, err
	}
	if a.Kind != c.Kind {
		return Verdict{}, &InputError{Field: "kind", Reason: "does not match challenge " + string(c.Kind)}
	}

	switch c.Kind {
	case KindPronunciation:
		target, spoken := similarity.Normalize(c.TargetAnswer), similarity.Normalize(a.Submitted)
		score := similarity.Score(target, spoken)
		return Verdict{
			Correct:     score > j.threshold,
			Similarity:  score,
			SoundsAlike: similarity.SoundsAlike(target, spoken),
		}, nil
	case KindSentence:
		return exact(sentenceKey(a.Submitted) == sentenceKey(c.TargetAnswer)), nil
	default:
		return exact(strings.TrimSpace(a.Submitted) == strings.TrimSpace(c.TargetAnswer)), nil
	}
}

func exact(ok bool) Verdict {
	if ok {
		return Verdict{Correct: true, Similarity: 1}
	}
	return Verdict{}
}

// sentenceKey folds a sentence to lowercase single-spaced words without
// trailing punctuation.
func sentenceKey(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimRight(s, ".!? ")
}
