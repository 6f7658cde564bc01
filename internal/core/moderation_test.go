package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoyapp/convoy/internal/domain"
)

type fakeCleaner struct {
	out string
	err error
}

func (f fakeCleaner) Clean(text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.out != "" {
		return f.out, nil
	}
	return text, nil
}

type fakeScorer struct{ mood domain.Mood }

func (f fakeScorer) Score(string) domain.Mood { return f.mood }

type fakeSealer struct {
	err error
}

func (f fakeSealer) Seal(plaintext []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("sealed:"), plaintext...), nil
}

func TestPipelineStagesInOrder(t *testing.T) {
	p := NewModerationPipeline(fakeCleaner{out: "scrubbed"}, fakeScorer{mood: domain.MoodPositive}, fakeSealer{})

	m, err := p.Process("raw text")
	require.NoError(t, err)
	assert.Equal(t, "raw text", m.Original)
	assert.Equal(t, "scrubbed", m.Clean)
	assert.Equal(t, domain.MoodPositive, m.Mood)
	assert.Equal(t, []byte("sealed:scrubbed"), m.Payload, "sealer must see scrubbed text, not the original")
}

func TestPipelineScrubFailsOpen(t *testing.T) {
	p := NewModerationPipeline(fakeCleaner{err: errors.New("bad encoding")}, fakeScorer{mood: domain.MoodNeutral}, nil)

	m, err := p.Process("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Clean, "scrub failure passes text through unmodified")
}

func TestPipelineSealFailsClosed(t *testing.T) {
	p := NewModerationPipeline(fakeCleaner{}, fakeScorer{mood: domain.MoodNeutral}, fakeSealer{err: ErrKeyUnavailable})

	_, err := p.Process("hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestPipelineNoSealerPassesCleanText(t *testing.T) {
	p := NewModerationPipeline(fakeCleaner{out: "clean"}, fakeScorer{mood: domain.MoodNegative}, nil)

	m, err := p.Process("whatever")
	require.NoError(t, err)
	assert.Equal(t, []byte("clean"), m.Payload)
}
