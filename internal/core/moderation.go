package core

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/domain"
)

// ModerationPipeline runs the ordered stages applied to one outgoing
// message: profanity scrub, sentiment classification, payload seal.
//
// Failure policy per stage:
//   - scrub: fail open. Passing unfiltered text through is better than
//     blocking legitimate communication.
//   - sentiment: advisory only, cannot fail the send.
//   - seal: fail closed. A missing key must reject the send rather
//     than leak plaintext under a silent fallback.
type ModerationPipeline struct {
	cleaner Cleaner
	scorer  Scorer
	sealer  Sealer
}

// NewModerationPipeline wires the stages. A nil sealer disables the
// payload transform; the payload is then the scrubbed text itself.
func NewModerationPipeline(cleaner Cleaner, scorer Scorer, sealer Sealer) *ModerationPipeline {
	return &ModerationPipeline{cleaner: cleaner, scorer: scorer, sealer: sealer}
}

func (p *ModerationPipeline) Process(text string) (domain.Moderated, error) {
	m := domain.Moderated{Original: text}

	clean, err := p.cleaner.Clean(text)
	if err != nil {
		// Explicit fail-open policy for the scrub stage.
		log.Warn().Err(err).Str("module", "core.moderation").Msg("scrub failed, passing text through")
		clean = text
	}
	m.Clean = clean

	m.Mood = p.scorer.Score(clean)

	if p.sealer == nil {
		m.Payload = []byte(clean)
		return m, nil
	}
	sealed, err := p.sealer.Seal([]byte(clean))
	if err != nil {
		return domain.Moderated{}, fmt.Errorf("payload transform: %w", err)
	}
	m.Payload = sealed
	return m, nil
}
