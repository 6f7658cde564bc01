package moderation

import (
	"errors"
	"strings"

	"github.com/convoyapp/convoy/internal/domain"
)

var ErrBadEncoding = errors.New("text is not valid utf-8")

var (
	positiveLexicon = []string{
		"good", "great", "awesome", "nice", "love", "happy", "thanks",
		"thank", "cool", "excellent", "perfect", "yes", "safe", "arrived",
	}
	negativeLexicon = []string{
		"bad", "terrible", "awful", "hate", "sad", "angry", "late",
		"lost", "stuck", "problem", "no", "worst", "scared", "danger",
	}
)

// LexiconScorer classifies text by counting hits against fixed
// positive/negative word lists. Deterministic: identical text always
// produces the same mood.
type LexiconScorer struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

func NewLexiconScorer() *LexiconScorer {
	s := &LexiconScorer{
		positive: make(map[string]struct{}, len(positiveLexicon)),
		negative: make(map[string]struct{}, len(negativeLexicon)),
	}
	for _, w := range positiveLexicon {
		s.positive[w] = struct{}{}
	}
	for _, w := range negativeLexicon {
		s.negative[w] = struct{}{}
	}
	return s
}

func (s *LexiconScorer) Score(text string) domain.Mood {
	score := 0
	for _, f := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(f, ".,!?;:\"'")
		if _, ok := s.positive[word]; ok {
			score++
		}
		if _, ok := s.negative[word]; ok {
			score--
		}
	}
	switch {
	case score > 0:
		return domain.MoodPositive
	case score < 0:
		return domain.MoodNegative
	default:
		return domain.MoodNeutral
	}
}
