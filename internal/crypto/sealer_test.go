package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoyapp/convoy/internal/core"
)

var testKey = strings.Repeat("ab", 32)

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewBoxSealer(testKey)
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("meet at the north gate"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "north gate")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("meet at the north gate"), plain)
}

func TestSealDistinctNonces(t *testing.T) {
	s, err := NewBoxSealer(testKey)
	require.NoError(t, err)

	a, err := s.Seal([]byte("x"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("x"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewBoxSealerMissingKey(t *testing.T) {
	_, err := NewBoxSealer("")
	assert.ErrorIs(t, err, core.ErrKeyUnavailable)
}

func TestNewBoxSealerBadKey(t *testing.T) {
	_, err := NewBoxSealer("not hex")
	assert.Error(t, err)

	_, err = NewBoxSealer(hex.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestOpenGarbage(t *testing.T) {
	s, err := NewBoxSealer(testKey)
	require.NoError(t, err)

	_, err = s.Open([]byte("xx"))
	assert.Error(t, err)

	_, err = s.Open(make([]byte, 64))
	assert.Error(t, err)
}
